// Package site serves the embedded single-page dashboard.
package site

import (
	"context"
	"errors"
	"net/http"
)

// ErrServe is returned when the embedded page cannot be served.
var ErrServe = errors.New("site serve failed")

// Register attaches the dashboard page to mux. Unknown paths under / fall
// through to the file server and answer 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET /", NewRootHandler())
}

// RootHandler serves the embedded static files.
type RootHandler struct {
	files http.Handler
}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{files: http.FileServer(FS())}
}

// ServeHTTP serves index.html at / and the other embedded assets by path.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	h.files.ServeHTTP(w, r)
}
