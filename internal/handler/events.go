package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/service"
)

// EventHandler serves the /events endpoints.
type EventHandler struct {
	events        *service.EventService
	registrations *service.RegistrationService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(events *service.EventService, registrations *service.RegistrationService) *EventHandler {
	return &EventHandler{events: events, registrations: registrations}
}

// Create handles POST /events/create
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.EventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	e, err := h.events.Create(r.Context(), caller(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.EventResponse{Message: "Event created successfully", Event: e})
}

// List handles GET /events/all
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(events))
}

// Get handles GET /events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Update handles PUT /events/update/{id}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.EventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	e, err := h.events.Update(r.Context(), chi.URLParam(r, "id"), caller(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.EventResponse{Message: "Event updated successfully", Event: e})
}

// Delete handles DELETE /events/delete/{id}
// The event is removed from every car registered for it.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.registrations.DeleteEvent(r.Context(), chi.URLParam(r, "id"), caller(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Event deleted successfully"})
}

// RegisterCar handles POST /events/register-car/{id}
func (h *EventHandler) RegisterCar(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterCarRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	e, err := h.registrations.RegisterCar(r.Context(), chi.URLParam(r, "id"), caller(r), req.CarID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.EventResponse{Message: "Car registered for the event successfully", Event: e})
}

// BuyTicket handles POST /events/buy-ticket/{id}
// The body is optional; without one a single ticket is bought.
func (h *EventHandler) BuyTicket(w http.ResponseWriter, r *http.Request) {
	var req model.BuyTicketRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	e, err := h.registrations.BuyTicket(r.Context(), chi.URLParam(r, "id"), caller(r), req.Quantity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.EventResponse{Message: "Ticket purchased successfully", Event: e})
}

// TicketCount handles GET /events/{id}/tickets
func (h *EventHandler) TicketCount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	who := caller(r)
	n, err := h.registrations.TicketCount(r.Context(), id, who.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.TicketCountResponse{EventID: id, UserID: who.UserID, Tickets: n})
}
