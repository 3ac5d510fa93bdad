package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/okian/telematics/internal/domain/types"
)

// maxBodyBytes bounds request bodies on session routes.
const maxBodyBytes = 1 << 12

// SessionsHandler handles feedback session requests.
type SessionsHandler struct {
	deps SessionDependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps SessionDependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleCreate handles POST /api/sessions. The body is optional; an empty
// policyholder_id selects the default policyholder.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	var req types.CreateSessionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	sess, err := h.deps.CreateSession(r.Context(), strings.TrimSpace(req.PolicyholderID))
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/api/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, sess)
}

// HandleGet handles GET /api/sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_session"
	sess, err := h.deps.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// HandleDelete handles DELETE /api/sessions/{id}.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_session"
	if err := h.deps.CloseSession(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStart handles POST /api/sessions/{id}/simulation. A run already in
// progress answers 200 with started=false.
func (h *SessionsHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	const op = "api.start_simulation"
	started, err := h.deps.StartSimulation(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	status := http.StatusOK
	if started {
		status = http.StatusAccepted
	}
	writeJSON(w, status, types.StartResponse{Started: started})
}

// HandleMarkRead handles POST /api/sessions/{id}/feedback/{feedback_id}/read.
func (h *SessionsHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	const op = "api.mark_read"
	feedbackID := strings.TrimSpace(r.PathValue("feedback_id"))
	if feedbackID == "" {
		writeError(w, NewKind(op, ErrBadRequest))
		return
	}
	sess, err := h.deps.MarkRead(r.Context(), r.PathValue("id"), feedbackID)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, sess)
}
