package api

import (
	"net/http"
)

// DashboardHandler serves the policyholder dashboard and driving tips.
type DashboardHandler struct {
	deps DashboardDependencies
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps DashboardDependencies) *DashboardHandler {
	return &DashboardHandler{deps: deps}
}

// HandleGetDashboard handles GET /api/dashboard/{policyholder_id}.
// While the simulated load is pending the body is {"loading":true}.
func (h *DashboardHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_dashboard"
	resp, err := h.deps.Dashboard(r.Context(), r.PathValue("policyholder_id"))
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGetTips handles GET /api/tips.
func (h *DashboardHandler) HandleGetTips(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Tips(r.Context()))
}
