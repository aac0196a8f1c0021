package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/service"
)

// AcademyHandler serves the /academy endpoints.
type AcademyHandler struct {
	svc *service.AcademyService
}

// NewAcademyHandler constructs an AcademyHandler.
func NewAcademyHandler(svc *service.AcademyService) *AcademyHandler {
	return &AcademyHandler{svc: svc}
}

// Create handles POST /academy/create
func (h *AcademyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.LessonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	l, err := h.svc.Create(r.Context(), caller(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.LessonResponse{Message: "Lesson created successfully", Lesson: l})
}

// List handles GET /academy/all
func (h *AcademyHandler) List(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(lessons))
}

// Apply handles POST /academy/apply/{id}
func (h *AcademyHandler) Apply(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.Apply(r.Context(), chi.URLParam(r, "id"), caller(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.LessonResponse{Message: "Application received", Lesson: l})
}

// Applicants handles GET /academy/applicants
func (h *AcademyHandler) Applicants(w http.ResponseWriter, r *http.Request) {
	applicants, err := h.svc.Applicants(r.Context(), caller(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, applicants)
}
