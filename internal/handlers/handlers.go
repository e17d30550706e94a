package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Ellibrinker/FlyTAU/internal/allocation"
	"github.com/Ellibrinker/FlyTAU/internal/database"
	"github.com/Ellibrinker/FlyTAU/internal/service"
)

// Handler contains HTTP handlers for the API
type Handler struct {
	service service.AllocationService
}

// NewHandler creates a new Handler instance
func NewHandler(svc service.AllocationService) *Handler {
	return &Handler{service: svc}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondAllocationError maps the engine's error taxonomy onto HTTP statuses.
// Internal write failures are logged with their cause and reported generically.
func respondAllocationError(w http.ResponseWriter, err error) {
	var ae *allocation.Error
	if !errors.As(err, &ae) {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		log.Printf("allocation: unexpected error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch ae.Code {
	case allocation.CodeRouteNotFound:
		respondError(w, http.StatusNotFound, ae.Message)
	case allocation.CodeInvalidTimeInput, allocation.CodePricingInvalid,
		allocation.CodeQuotaMismatch, allocation.CodeIneligibleResource,
		allocation.CodeInventoryMissing:
		respondJSON(w, http.StatusUnprocessableEntity, ae)
	case allocation.CodeResourceUnavailable, allocation.CodeResourceMisplaced,
		allocation.CodeCancellationNotAllowed:
		respondJSON(w, http.StatusConflict, ae)
	default:
		log.Printf("allocation: write failure: %v", errors.Unwrap(ae))
		respondError(w, http.StatusInternalServerError, ae.Message)
	}
}

// SearchFlights handles GET /api/flights
func (h *Handler) SearchFlights(w http.ResponseWriter, r *http.Request) {
	req := service.SearchFlightsRequest{
		Origin:        r.URL.Query().Get("origin"),
		Destination:   r.URL.Query().Get("destination"),
		DepartureDate: r.URL.Query().Get("date"),
	}

	listings, err := h.service.SearchFlights(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if listings == nil {
		listings = []database.FlightListing{}
	}
	respondJSON(w, http.StatusOK, listings)
}

// GetFlight handles GET /api/flights/{id}
func (h *Handler) GetFlight(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid flight id")
		return
	}

	flight, err := h.service.GetFlight(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(w, http.StatusNotFound, "flight not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, flight)
}

// GetFlightSeats handles GET /api/flights/{id}/seats
func (h *Handler) GetFlightSeats(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid flight id")
		return
	}

	seats, err := h.service.GetFlightSeats(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(w, http.StatusNotFound, "flight not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, seats)
}

// ListFlights handles GET /api/admin/flights
func (h *Handler) ListFlights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := database.FlightFilter{
		Origin:      q.Get("origin"),
		Destination: q.Get("destination"),
		Status:      database.FlightStatus(q.Get("status")),
	}
	if date := q.Get("date"); date != "" {
		day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		filter.Day = &day
	}

	flights, err := h.service.ListFlights(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if flights == nil {
		flights = []database.Flight{}
	}
	respondJSON(w, http.StatusOK, flights)
}

// ListCandidates handles POST /api/admin/flights/candidates
func (h *Handler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	var req allocation.CandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Origin == "" || req.Destination == "" || req.DepartureDate == "" || req.DepartureTime == "" {
		respondError(w, http.StatusBadRequest, "origin, destination, departureDate and departureTime are required")
		return
	}

	candidates, err := h.service.ListCandidates(r.Context(), req)
	if err != nil {
		respondAllocationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, candidates)
}

// CreateFlight handles POST /api/admin/flights
func (h *Handler) CreateFlight(w http.ResponseWriter, r *http.Request) {
	var req allocation.CreateFlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Origin == "" || req.Destination == "" || req.DepartureDate == "" || req.DepartureTime == "" {
		respondError(w, http.StatusBadRequest, "origin, destination, departureDate and departureTime are required")
		return
	}
	if req.AircraftID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "aircraftId is required")
		return
	}

	flight, err := h.service.CreateFlight(r.Context(), req)
	if err != nil {
		respondAllocationError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, flight)
}

// CancelFlight handles POST /api/admin/flights/{id}/cancel
func (h *Handler) CancelFlight(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid flight id")
		return
	}

	result, err := h.service.CancelFlight(r.Context(), id)
	if err != nil {
		respondAllocationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
