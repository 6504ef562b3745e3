package repositories

import (
	"context"
	"time"

	"github.com/luluspa/spa-booking-backend/internal/domain/entities"
)

// BookingRepository defines the interface for booking persistence.
// Update is a versioned save: the write applies only when the stored
// version matches expectedVersion, otherwise it fails with a CONFLICT
// error so the caller can retry against fresh state.
type BookingRepository interface {
	// Create persists a new booking
	Create(ctx context.Context, booking *entities.Booking) error

	// GetByID retrieves a booking by ID
	GetByID(ctx context.Context, id string) (*entities.Booking, error)

	// Update saves a booking under an optimistic version check and
	// increments the booking's version on success
	Update(ctx context.Context, booking *entities.Booking, expectedVersion int64) error

	// ListForStaff retrieves bookings assigned to a staff member,
	// ordered by booking date then start time ascending
	ListForStaff(ctx context.Context, staffID string, filter BookingFilter) ([]*entities.Booking, error)

	// ListDueCheckouts retrieves pending bookings whose checkout
	// deadline is at or before now
	ListDueCheckouts(ctx context.Context, now time.Time) ([]*entities.Booking, error)
}

// BookingFilter defines filters for listing bookings
type BookingFilter struct {
	Statuses []entities.BookingStatus
	Limit    int
	Offset   int
}
