package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/luluspa/spa-booking-backend/internal/api/handlers"
	"github.com/luluspa/spa-booking-backend/internal/api/middleware"
	"github.com/luluspa/spa-booking-backend/internal/application/services"
	"github.com/luluspa/spa-booking-backend/internal/domain/entities"
	"github.com/luluspa/spa-booking-backend/internal/domain/repositories"
	apperrors "github.com/luluspa/spa-booking-backend/pkg/errors"
)

// In-memory collaborators

type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*entities.Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[string]*entities.Booking)}
}

func (r *memBookingRepo) Create(ctx context.Context, booking *entities.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *booking
	r.bookings[booking.ID] = &clone
	return nil
}

func (r *memBookingRepo) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("booking not found")
	}
	clone := *booking
	return &clone, nil
}

func (r *memBookingRepo) Update(ctx context.Context, booking *entities.Booking, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[booking.ID]
	if !ok {
		return apperrors.NewNotFoundError("booking not found")
	}
	if stored.Version != expectedVersion {
		return apperrors.NewConflictError("booking was modified concurrently")
	}
	booking.Version = expectedVersion + 1
	clone := *booking
	r.bookings[booking.ID] = &clone
	return nil
}

func (r *memBookingRepo) ListForStaff(ctx context.Context, staffID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Booking
	for _, booking := range r.bookings {
		if booking.IsAssignedTo(staffID) {
			clone := *booking
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memBookingRepo) ListDueCheckouts(ctx context.Context, now time.Time) ([]*entities.Booking, error) {
	return nil, nil
}

type memServiceRepo struct {
	services map[string]*entities.Service
}

func (r *memServiceRepo) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	service, ok := r.services[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("service not found")
	}
	return service, nil
}

type memVoucherRepo struct{}

func (r *memVoucherRepo) GetByCode(ctx context.Context, code string) (*entities.Voucher, error) {
	return nil, apperrors.NewNotFoundError("voucher not found")
}

type noopBus struct{}

func (noopBus) Publish(ctx context.Context, channel string, event *entities.BookingEvent) error {
	return nil
}
func (noopBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.BookingEvent, error) {
	return nil, nil
}
func (noopBus) Unsubscribe(ctx context.Context, channel string) error { return nil }
func (noopBus) Close() error                                          { return nil }

type noopMailer struct{}

func (noopMailer) Send(ctx context.Context, to, subject, body string) error { return nil }

type stubClock struct{ now time.Time }

func (c stubClock) Now() time.Time { return c.now }

// Test harness

var handlerNow = time.Date(2026, 9, 1, 9, 0, 0, 0, time.Local)

type testEnv struct {
	repo *memBookingRepo
	mux  *http.ServeMux
}

func newTestEnv() *testEnv {
	repo := newMemBookingRepo()
	serviceRepo := &memServiceRepo{services: map[string]*entities.Service{
		"svc-1": {
			ID:       "svc-1",
			Name:     "Aroma Massage",
			Category: "Massage",
			Price:    350000,
			Currency: "VND",
			Duration: 60,
			IsActive: true,
		},
	}}

	clock := stubClock{now: handlerNow}
	bookingService := services.NewBookingService(
		repo, serviceRepo, &memVoucherRepo{}, noopBus{},
		services.NewNotificationService(noopMailer{}), clock, nil,
	)
	checkoutService := services.NewCheckoutTimerService(
		repo, noopBus{}, clock, 10*time.Minute, time.Second, nil,
	)

	h := handlers.NewBookingHandler(bookingService, checkoutService)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/bookings", h.CreateBooking)
	mux.HandleFunc("GET /api/bookings/{id}", h.GetBooking)
	mux.HandleFunc("POST /api/bookings/{id}/assign", h.AssignStaff)
	mux.HandleFunc("POST /api/bookings/{id}/checkin", h.CheckIn)
	mux.HandleFunc("POST /api/bookings/{id}/complete", h.Complete)
	mux.HandleFunc("POST /api/bookings/{id}/cancel", h.Cancel)
	mux.HandleFunc("POST /api/bookings/{id}/checkout", h.StartCheckout)
	mux.HandleFunc("POST /api/bookings/{id}/payment", h.ConfirmPayment)
	mux.HandleFunc("GET /api/staff/{id}/bookings", h.ListStaffBookings)

	return &testEnv{repo: repo, mux: mux}
}

func (e *testEnv) seedBooking(staff *string, status entities.BookingStatus) *entities.Booking {
	booking := &entities.Booking{
		ID:            "b1",
		BookingCode:   "BOOK333333",
		ServiceName:   "Aroma Massage",
		CustomerEmail: "an@example.com",
		AssignedStaff: staff,
		Status:        status,
		Version:       1,
	}
	_ = e.repo.Create(context.Background(), booking)
	return booking
}

func (e *testEnv) do(method, path string, body string, actor *entities.Actor) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if actor != nil {
		req = req.WithContext(middleware.WithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

var (
	adminActor     = entities.Actor{ID: "admin-1", Role: entities.RoleAdmin}
	therapistActor = entities.Actor{ID: "staff-1", Role: entities.RoleTherapist}
	customerActor  = entities.Actor{ID: "cust-1", Role: entities.RoleCustomer}
)

func staffPtr(id string) *string { return &id }

// Tests

func TestBookingHandler_CreateBooking(t *testing.T) {
	t.Run("creates booking and returns 201", func(t *testing.T) {
		env := newTestEnv()
		body := `{
			"service_id": "svc-1",
			"customer_name": "An Pham",
			"customer_email": "an@example.com",
			"customer_phone": "0987654321",
			"booking_date": "2026-09-15",
			"start_time": "14:00"
		}`

		rec := env.do(http.MethodPost, "/api/bookings", body, &customerActor)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var booking entities.Booking
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booking))
		assert.Equal(t, entities.BookingStatusPending, booking.Status)
		assert.Equal(t, int64(350000), booking.TotalPrice)
		assert.Regexp(t, `^BOOK\d{6}$`, booking.BookingCode)
	})

	t.Run("returns 400 on invalid body", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(http.MethodPost, "/api/bookings", "{not json", &customerActor)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns 400 with field detail on validation failure", func(t *testing.T) {
		env := newTestEnv()
		body := `{
			"service_id": "svc-1",
			"customer_name": "",
			"customer_email": "an@example.com",
			"customer_phone": "0987654321",
			"booking_date": "2026-09-15",
			"start_time": "14:00"
		}`

		rec := env.do(http.MethodPost, "/api/bookings", body, &customerActor)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var payload map[string]interface{}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, "VALIDATION", payload["code"])
	})
}

func TestBookingHandler_GetBooking(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(nil, entities.BookingStatusPending)

	rec := env.do(http.MethodGet, "/api/bookings/b1", "", &customerActor)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/bookings/nope", "", &customerActor)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingHandler_Lifecycle(t *testing.T) {
	t.Run("assigned staff checks in and completes", func(t *testing.T) {
		env := newTestEnv()
		env.seedBooking(staffPtr("staff-1"), entities.BookingStatusPending)

		rec := env.do(http.MethodPost, "/api/bookings/b1/checkin", "", &therapistActor)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(http.MethodPost, "/api/bookings/b1/complete", "", &therapistActor)
		assert.Equal(t, http.StatusOK, rec.Code)

		var booking entities.Booking
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booking))
		assert.Equal(t, entities.BookingStatusCompleted, booking.Status)
		assert.NotNil(t, booking.EndTime)
	})

	t.Run("missing actor yields 401", func(t *testing.T) {
		env := newTestEnv()
		env.seedBooking(staffPtr("staff-1"), entities.BookingStatusPending)

		rec := env.do(http.MethodPost, "/api/bookings/b1/checkin", "", nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("other staff completing yields 403", func(t *testing.T) {
		env := newTestEnv()
		env.seedBooking(staffPtr("staff-2"), entities.BookingStatusCheckedIn)

		rec := env.do(http.MethodPost, "/api/bookings/b1/complete", "", &therapistActor)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("illegal transition yields 409 with edge details", func(t *testing.T) {
		env := newTestEnv()
		env.seedBooking(staffPtr("staff-1"), entities.BookingStatusCancelled)

		rec := env.do(http.MethodPost, "/api/bookings/b1/cancel", "", &adminActor)

		assert.Equal(t, http.StatusConflict, rec.Code)
		var payload map[string]interface{}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, "INVALID_TRANSITION", payload["code"])
	})

	t.Run("assign requires staff_id", func(t *testing.T) {
		env := newTestEnv()
		env.seedBooking(nil, entities.BookingStatusPending)

		rec := env.do(http.MethodPost, "/api/bookings/b1/assign", `{}`, &adminActor)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = env.do(http.MethodPost, "/api/bookings/b1/assign", `{"staff_id":"staff-1"}`, &adminActor)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestBookingHandler_Checkout(t *testing.T) {
	t.Run("checkout stamps deadline, payment clears it", func(t *testing.T) {
		env := newTestEnv()
		env.seedBooking(nil, entities.BookingStatusPending)

		rec := env.do(http.MethodPost, "/api/bookings/b1/checkout", "", &customerActor)
		assert.Equal(t, http.StatusOK, rec.Code)

		var booking entities.Booking
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booking))
		if assert.NotNil(t, booking.CheckoutDeadline) {
			assert.Equal(t, handlerNow.Add(10*time.Minute).Unix(), booking.CheckoutDeadline.Unix())
		}

		rec = env.do(http.MethodPost, "/api/bookings/b1/payment", "", &customerActor)
		assert.Equal(t, http.StatusOK, rec.Code)
		var paid entities.Booking
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &paid))
		assert.Nil(t, paid.CheckoutDeadline)
		assert.Equal(t, entities.BookingStatusPending, paid.Status)
	})

	t.Run("window_seconds overrides the configured window", func(t *testing.T) {
		env := newTestEnv()
		env.seedBooking(nil, entities.BookingStatusPending)

		rec := env.do(http.MethodPost, "/api/bookings/b1/checkout", `{"window_seconds":120}`, &customerActor)
		assert.Equal(t, http.StatusOK, rec.Code)

		var booking entities.Booking
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booking))
		if assert.NotNil(t, booking.CheckoutDeadline) {
			assert.Equal(t, handlerNow.Add(2*time.Minute).Unix(), booking.CheckoutDeadline.Unix())
		}
	})

	t.Run("negative window_seconds yields 400", func(t *testing.T) {
		env := newTestEnv()
		env.seedBooking(nil, entities.BookingStatusPending)

		rec := env.do(http.MethodPost, "/api/bookings/b1/checkout", `{"window_seconds":-5}`, &customerActor)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("checkout on cancelled booking yields 409", func(t *testing.T) {
		env := newTestEnv()
		env.seedBooking(nil, entities.BookingStatusCancelled)

		rec := env.do(http.MethodPost, "/api/bookings/b1/checkout", "", &customerActor)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestBookingHandler_ListStaffBookings(t *testing.T) {
	t.Run("staff lists own queue", func(t *testing.T) {
		env := newTestEnv()
		env.seedBooking(staffPtr("staff-1"), entities.BookingStatusPending)

		rec := env.do(http.MethodGet, "/api/staff/staff-1/bookings", "", &therapistActor)

		assert.Equal(t, http.StatusOK, rec.Code)
		var payload struct {
			Bookings []*entities.Booking `json:"bookings"`
			Count    int                 `json:"count"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, 1, payload.Count)
	})

	t.Run("staff listing another queue yields 403", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(http.MethodGet, "/api/staff/staff-2/bookings", "", &therapistActor)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown status filter yields 400", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(http.MethodGet, "/api/staff/staff-1/bookings?status=paid", "", &therapistActor)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
