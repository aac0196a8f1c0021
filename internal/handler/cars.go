package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/service"
)

// CarHandler serves the /cars endpoints.
type CarHandler struct {
	cars          *service.CarService
	registrations *service.RegistrationService
}

// NewCarHandler constructs a CarHandler.
func NewCarHandler(cars *service.CarService, registrations *service.RegistrationService) *CarHandler {
	return &CarHandler{cars: cars, registrations: registrations}
}

// Create handles POST /cars/add-car
func (h *CarHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CarRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	c, err := h.cars.Create(r.Context(), caller(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// ListOwned handles GET /cars/my-cars and GET /cars/my-cars/{id}
func (h *CarHandler) ListOwned(w http.ResponseWriter, r *http.Request) {
	who := caller(r)
	ownerID := chi.URLParam(r, "id")
	if ownerID == "" {
		ownerID = who.UserID
	}
	cars, err := h.cars.ListByOwner(r.Context(), ownerID, who)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(cars))
}

// Update handles PUT /cars/update-car/{id}
func (h *CarHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.CarRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	c, err := h.cars.Update(r.Context(), chi.URLParam(r, "id"), caller(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /cars/delete-car/{id}
// The car is removed from every event it was registered for.
func (h *CarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.registrations.DeleteCar(r.Context(), chi.URLParam(r, "id"), caller(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Car deleted successfully"})
}

// ListAll handles GET /cars/all-cars
func (h *CarHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	cars, err := h.cars.ListAll(r.Context(), caller(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(cars))
}
