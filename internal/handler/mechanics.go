package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/service"
)

// MechanicHandler serves the /mechanics endpoints.
type MechanicHandler struct {
	svc *service.MechanicService
}

// NewMechanicHandler constructs a MechanicHandler.
func NewMechanicHandler(svc *service.MechanicService) *MechanicHandler {
	return &MechanicHandler{svc: svc}
}

// Create handles POST /mechanics/create
func (h *MechanicHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.MechanicServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	m, err := h.svc.Create(r.Context(), caller(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.MechanicServiceResponse{Message: "Service created successfully", Service: m})
}

// List handles GET /mechanics/all
func (h *MechanicHandler) List(w http.ResponseWriter, r *http.Request) {
	listings, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(listings))
}

// Get handles GET /mechanics/{id}
func (h *MechanicHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Contact handles POST /mechanics/contact/{id}
func (h *MechanicHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var req model.ContactRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	to, err := h.svc.Contact(r.Context(), chi.URLParam(r, "id"), caller(r), req.Message)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Contact request sent to mechanic: " + to})
}

// Update handles PUT /mechanics/{id}
func (h *MechanicHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.MechanicServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	m, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), caller(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MechanicServiceResponse{Message: "Service updated successfully", Service: m})
}

// Delete handles DELETE /mechanics/{id}
func (h *MechanicHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), caller(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Service deleted successfully"})
}
