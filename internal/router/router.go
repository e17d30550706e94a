package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/Ellibrinker/FlyTAU/internal/handlers"
	"github.com/Ellibrinker/FlyTAU/internal/websocket"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(h *handlers.Handler, hub *websocket.Hub, limiter *rate.Limiter) *mux.Router {
	r := mux.NewRouter()

	r.Use(corsMiddleware)
	if limiter != nil {
		r.Use(rateLimitMiddleware(limiter))
	}

	api := r.PathPrefix("/api").Subrouter()

	// Booking-UI-facing reads
	api.HandleFunc("/flights", h.SearchFlights).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights/ws", hub.ServeWS).Methods(http.MethodGet)
	api.HandleFunc("/flights/{id}", h.GetFlight).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights/{id}/seats", h.GetFlightSeats).Methods(http.MethodGet, http.MethodOptions)

	// Administrative allocation surface
	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/flights", h.ListFlights).Methods(http.MethodGet, http.MethodOptions)
	admin.HandleFunc("/flights/candidates", h.ListCandidates).Methods(http.MethodPost, http.MethodOptions)
	admin.HandleFunc("/flights", h.CreateFlight).Methods(http.MethodPost, http.MethodOptions)
	admin.HandleFunc("/flights/{id}/cancel", h.CancelFlight).Methods(http.MethodPost, http.MethodOptions)

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func rateLimitMiddleware(limiter *rate.Limiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
