package routes

import (
	"net/http"

	"github.com/luluspa/spa-booking-backend/internal/api/handlers"
	"github.com/luluspa/spa-booking-backend/internal/api/middleware"
	"github.com/luluspa/spa-booking-backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	bookingHandler *handlers.BookingHandler
	sseHandler     *handlers.SSEHandler

	jwtSecret string
	metrics   *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	bookingHandler *handlers.BookingHandler,
	sseHandler *handlers.SSEHandler,
	jwtSecret string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		bookingHandler: bookingHandler,
		sseHandler:     sseHandler,
		jwtSecret:      jwtSecret,
		metrics:        metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint, outside the authenticated surface
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Booking endpoints
	api := http.NewServeMux()
	api.HandleFunc("POST /api/bookings", r.bookingHandler.CreateBooking)
	api.HandleFunc("GET /api/bookings/{id}", r.bookingHandler.GetBooking)
	api.HandleFunc("POST /api/bookings/{id}/assign", r.bookingHandler.AssignStaff)
	api.HandleFunc("POST /api/bookings/{id}/checkin", r.bookingHandler.CheckIn)
	api.HandleFunc("POST /api/bookings/{id}/complete", r.bookingHandler.Complete)
	api.HandleFunc("POST /api/bookings/{id}/cancel", r.bookingHandler.Cancel)
	api.HandleFunc("POST /api/bookings/{id}/checkout", r.bookingHandler.StartCheckout)
	api.HandleFunc("POST /api/bookings/{id}/payment", r.bookingHandler.ConfirmPayment)

	// Staff endpoints
	api.HandleFunc("GET /api/staff/{id}/bookings", r.bookingHandler.ListStaffBookings)

	// Event stream endpoints
	api.HandleFunc("GET /api/events/bookings", r.sseHandler.StreamBookingUpdates)

	// Observability wraps the mux directly so spans carry the matched
	// route pattern; everything under /api also requires a valid token
	traced := middleware.ObservabilityMiddleware(r.metrics)(api)
	r.mux.Handle("/api/", middleware.AuthMiddleware(r.jwtSecret)(traced))

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS is outermost so error responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
