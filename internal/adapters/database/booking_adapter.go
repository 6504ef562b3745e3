package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/luluspa/spa-booking-backend/internal/domain/entities"
	"github.com/luluspa/spa-booking-backend/internal/domain/repositories"
	"github.com/luluspa/spa-booking-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/luluspa/spa-booking-backend/pkg/errors"
)

var bookingColumns = []interface{}{
	"id", "booking_code", "service_id", "service_name", "service_type",
	"duration", "total_price", "currency", "discount_code",
	"customer_name", "customer_email", "customer_phone",
	"booking_date", "start_time", "end_time",
	"assigned_staff", "status", "action", "notes",
	"checkout_deadline", "version", "created_at", "updated_at",
}

// BookingAdapter implements the BookingRepository interface
type BookingAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewBookingAdapter creates a new booking adapter
func NewBookingAdapter(client *postgres.Client) repositories.BookingRepository {
	return &BookingAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create persists a new booking
func (a *BookingAdapter) Create(ctx context.Context, booking *entities.Booking) error {
	query, args, err := a.db.Insert("bookings").Rows(bookingRecord(booking)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create booking", err)
	}

	return nil
}

// GetByID retrieves a booking by ID
func (a *BookingAdapter) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	query, args, err := a.db.Select(bookingColumns...).
		From("bookings").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	row := a.client.DB().QueryRowContext(ctx, query, args...)
	booking, err := scanBooking(row.Scan)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get booking", err)
	}

	return booking, nil
}

// Update saves a booking under an optimistic version check. Zero rows
// affected means the id is gone (NOT_FOUND) or the version moved under us
// (CONFLICT); a re-read decides which.
func (a *BookingAdapter) Update(ctx context.Context, booking *entities.Booking, expectedVersion int64) error {
	record := goqu.Record{
		"end_time":          booking.EndTime,
		"assigned_staff":    booking.AssignedStaff,
		"status":            booking.Status,
		"action":            booking.Action,
		"notes":             booking.Notes,
		"checkout_deadline": booking.CheckoutDeadline,
		"version":           expectedVersion + 1,
		"updated_at":        booking.UpdatedAt,
	}

	query, args, err := a.db.Update("bookings").
		Set(record).
		Where(goqu.Ex{"id": booking.ID, "version": expectedVersion}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update booking", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		if _, getErr := a.GetByID(ctx, booking.ID); getErr != nil {
			return getErr
		}
		return apperrors.NewConflictError(fmt.Sprintf("booking %s was modified concurrently", booking.ID))
	}

	booking.Version = expectedVersion + 1
	return nil
}

// ListForStaff retrieves bookings assigned to a staff member
func (a *BookingAdapter) ListForStaff(ctx context.Context, staffID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	ds := a.db.Select(bookingColumns...).
		From("bookings").
		Where(goqu.Ex{"assigned_staff": staffID})

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		ds = ds.Where(goqu.C("status").In(statuses))
	}

	ds = ds.Order(goqu.I("booking_date").Asc(), goqu.I("start_time").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	return a.queryBookings(ctx, query, args)
}

// ListDueCheckouts retrieves pending bookings whose checkout deadline has passed
func (a *BookingAdapter) ListDueCheckouts(ctx context.Context, now time.Time) ([]*entities.Booking, error) {
	query, args, err := a.db.Select(bookingColumns...).
		From("bookings").
		Where(
			goqu.Ex{"status": entities.BookingStatusPending},
			goqu.C("checkout_deadline").IsNotNull(),
			goqu.C("checkout_deadline").Lte(now),
		).
		Order(goqu.I("checkout_deadline").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build due-checkouts query", err)
	}

	return a.queryBookings(ctx, query, args)
}

func (a *BookingAdapter) queryBookings(ctx context.Context, query string, args []interface{}) ([]*entities.Booking, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list bookings", err)
	}
	defer rows.Close()

	var bookings []*entities.Booking
	for rows.Next() {
		booking, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan booking", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

func bookingRecord(booking *entities.Booking) goqu.Record {
	return goqu.Record{
		"id":                booking.ID,
		"booking_code":      booking.BookingCode,
		"service_id":        booking.ServiceID,
		"service_name":      booking.ServiceName,
		"service_type":      booking.ServiceType,
		"duration":          booking.Duration,
		"total_price":       booking.TotalPrice,
		"currency":          booking.Currency,
		"discount_code":     booking.DiscountCode,
		"customer_name":     booking.CustomerName,
		"customer_email":    booking.CustomerEmail,
		"customer_phone":    booking.CustomerPhone,
		"booking_date":      booking.BookingDate,
		"start_time":        booking.StartTime,
		"end_time":          booking.EndTime,
		"assigned_staff":    booking.AssignedStaff,
		"status":            booking.Status,
		"action":            booking.Action,
		"notes":             booking.Notes,
		"checkout_deadline": booking.CheckoutDeadline,
		"version":           booking.Version,
		"created_at":        booking.CreatedAt,
		"updated_at":        booking.UpdatedAt,
	}
}

func scanBooking(scan func(dest ...interface{}) error) (*entities.Booking, error) {
	booking := &entities.Booking{}
	var discountCode, assignedStaff, action, notes sql.NullString
	var endTime, checkoutDeadline sql.NullTime

	err := scan(
		&booking.ID,
		&booking.BookingCode,
		&booking.ServiceID,
		&booking.ServiceName,
		&booking.ServiceType,
		&booking.Duration,
		&booking.TotalPrice,
		&booking.Currency,
		&discountCode,
		&booking.CustomerName,
		&booking.CustomerEmail,
		&booking.CustomerPhone,
		&booking.BookingDate,
		&booking.StartTime,
		&endTime,
		&assignedStaff,
		&booking.Status,
		&action,
		&notes,
		&checkoutDeadline,
		&booking.Version,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.DiscountCode = discountCode.String
	booking.Action = entities.BookingAction(action.String)
	booking.Notes = notes.String
	if assignedStaff.Valid {
		booking.AssignedStaff = &assignedStaff.String
	}
	if endTime.Valid {
		booking.EndTime = &endTime.Time
	}
	if checkoutDeadline.Valid {
		booking.CheckoutDeadline = &checkoutDeadline.Time
	}

	return booking, nil
}
