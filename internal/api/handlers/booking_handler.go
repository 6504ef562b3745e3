package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/luluspa/spa-booking-backend/internal/api/middleware"
	"github.com/luluspa/spa-booking-backend/internal/application/services"
	"github.com/luluspa/spa-booking-backend/internal/domain/entities"
	"github.com/luluspa/spa-booking-backend/internal/domain/repositories"
	apperrors "github.com/luluspa/spa-booking-backend/pkg/errors"
)

// BookingHandler handles booking-related HTTP requests
type BookingHandler struct {
	bookingService  *services.BookingService
	checkoutService *services.CheckoutTimerService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookingService *services.BookingService, checkoutService *services.CheckoutTimerService) *BookingHandler {
	return &BookingHandler{
		bookingService:  bookingService,
		checkoutService: checkoutService,
	}
}

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var input entities.CreateBookingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	booking, err := h.bookingService.CreateBooking(r.Context(), input)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, booking)
}

// GetBooking handles GET /api/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("id")
	if bookingID == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	booking, err := h.bookingService.GetBooking(r.Context(), bookingID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

type assignRequest struct {
	StaffID string `json:"staff_id"`
}

// AssignStaff handles POST /api/bookings/{id}/assign
func (h *BookingHandler) AssignStaff(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.StaffID) == "" {
		respondWithError(w, http.StatusBadRequest, "staff_id is required")
		return
	}

	booking, err := h.bookingService.AssignStaff(r.Context(), r.PathValue("id"), req.StaffID, actor)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

// CheckIn handles POST /api/bookings/{id}/checkin
func (h *BookingHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookingService.CheckIn)
}

// Complete handles POST /api/bookings/{id}/complete
func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookingService.Complete)
}

// Cancel handles POST /api/bookings/{id}/cancel
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookingService.Cancel)
}

type checkoutRequest struct {
	WindowSeconds int `json:"window_seconds"`
}

// StartCheckout handles POST /api/bookings/{id}/checkout. The body is
// optional; window_seconds overrides the configured payment window.
func (h *BookingHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.WindowSeconds < 0 {
		respondWithError(w, http.StatusBadRequest, "window_seconds must be positive")
		return
	}

	window := time.Duration(req.WindowSeconds) * time.Second
	h.transition(w, r, func(ctx context.Context, id string, actor entities.Actor) (*entities.Booking, error) {
		return h.checkoutService.StartCheckout(ctx, id, actor, window)
	})
}

// ConfirmPayment handles POST /api/bookings/{id}/payment
func (h *BookingHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.checkoutService.ConfirmPayment)
}

// ListStaffBookings handles GET /api/staff/{id}/bookings
func (h *BookingHandler) ListStaffBookings(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	staffID := r.PathValue("id")
	if staffID == "" {
		respondWithError(w, http.StatusBadRequest, "staff ID is required")
		return
	}

	filter, err := parseBookingFilter(r)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	bookings, err := h.bookingService.ListForStaff(r.Context(), staffID, actor, filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if bookings == nil {
		bookings = []*entities.Booking{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// transition runs a lifecycle operation keyed by the authenticated actor
func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string, actor entities.Actor) (*entities.Booking, error)) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	bookingID := r.PathValue("id")
	if bookingID == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	booking, err := op(r.Context(), bookingID, actor)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

func parseBookingFilter(r *http.Request) (repositories.BookingFilter, error) {
	filter := repositories.BookingFilter{Limit: 50}

	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, err := entities.ParseBookingStatus(part)
			if err != nil {
				return filter, err
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 && limit <= 200 {
			filter.Limit = limit
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	return filter, nil
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

func respondWithAppError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		payload := map[string]interface{}{
			"error": appErr.Message,
			"code":  string(appErr.Type),
		}
		if len(appErr.Details) > 0 {
			payload["details"] = appErr.Details
		}

		switch appErr.Type {
		case apperrors.ErrorTypeNotFound:
			respondWithJSON(w, http.StatusNotFound, payload)
		case apperrors.ErrorTypeValidation:
			respondWithJSON(w, http.StatusBadRequest, payload)
		case apperrors.ErrorTypeForbidden:
			respondWithJSON(w, http.StatusForbidden, payload)
		case apperrors.ErrorTypeConflict, apperrors.ErrorTypeInvalidTransition, apperrors.ErrorTypeAssignment:
			respondWithJSON(w, http.StatusConflict, payload)
		default:
			respondWithError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}
