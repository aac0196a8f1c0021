package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/service"
)

// AdminHandler serves the consistency maintenance endpoints.
type AdminHandler struct {
	reconciler *service.Reconciler
	reporter   *service.LogReporter
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(reconciler *service.Reconciler, reporter *service.LogReporter) *AdminHandler {
	return &AdminHandler{reconciler: reconciler, reporter: reporter}
}

// Reconcile handles POST /admin/reconcile
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.Reconcile(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ConsistencyWarnings handles GET /admin/consistency-warnings
func (h *AdminHandler) ConsistencyWarnings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reporter.Recent())
}
