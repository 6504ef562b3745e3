package entities

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/luluspa/spa-booking-backend/pkg/errors"
)

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusCheckedIn BookingStatus = "checked-in"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// ParseBookingStatus parses a status string from the API surface
func ParseBookingStatus(raw string) (BookingStatus, error) {
	switch BookingStatus(strings.TrimSpace(raw)) {
	case BookingStatusPending:
		return BookingStatusPending, nil
	case BookingStatusCheckedIn:
		return BookingStatusCheckedIn, nil
	case BookingStatusCompleted:
		return BookingStatusCompleted, nil
	case BookingStatusCancelled:
		return BookingStatusCancelled, nil
	}
	return "", apperrors.NewValidationError("status", fmt.Sprintf("unknown booking status %q", raw))
}

// BookingAction is an audit hint recording the last operator intent.
// It is not authoritative for state.
type BookingAction string

const (
	BookingActionCheckIn  BookingAction = "checkin"
	BookingActionCheckOut BookingAction = "checkout"
	BookingActionNone     BookingAction = ""
)

const (
	// DateLayout is the wire format for booking dates
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format for slot start times
	TimeLayout = "15:04"
)

// Booking represents a single spa booking / cart line. Service identity,
// price and customer contact are snapshots taken at creation time and are
// never re-derived from live records.
type Booking struct {
	ID            string `json:"id" db:"id"`
	BookingCode   string `json:"booking_code" db:"booking_code"`
	ServiceID     string `json:"service_id" db:"service_id"`
	ServiceName   string `json:"service_name" db:"service_name"`
	ServiceType   string `json:"service_type" db:"service_type"`
	Duration      int    `json:"duration" db:"duration"`
	TotalPrice    int64  `json:"total_price" db:"total_price"`
	Currency      string `json:"currency" db:"currency"`
	DiscountCode  string `json:"discount_code,omitempty" db:"discount_code"`
	CustomerName  string `json:"customer_name" db:"customer_name"`
	CustomerEmail string `json:"customer_email" db:"customer_email"`
	CustomerPhone string `json:"customer_phone" db:"customer_phone"`

	BookingDate string     `json:"booking_date" db:"booking_date"`
	StartTime   string     `json:"start_time" db:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty" db:"end_time"`

	AssignedStaff *string       `json:"assigned_staff,omitempty" db:"assigned_staff"`
	Status        BookingStatus `json:"status" db:"status"`
	Action        BookingAction `json:"action,omitempty" db:"action"`
	Notes         string        `json:"notes,omitempty" db:"notes"`

	CheckoutDeadline *time.Time `json:"checkout_deadline,omitempty" db:"checkout_deadline"`

	Version   int64     `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CreateBookingInput is the raw creation input from the cart/checkout flow
type CreateBookingInput struct {
	ServiceID     string `json:"service_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	BookingDate   string `json:"booking_date"`
	StartTime     string `json:"start_time"`
	Notes         string `json:"notes"`
	DiscountCode  string `json:"discount_code"`
}

// NewBooking validates raw creation input against the service snapshot and
// produces a pending booking. totalPrice is the snapshot price after any
// voucher discount.
func NewBooking(in CreateBookingInput, service *Service, totalPrice int64, now time.Time) (*Booking, error) {
	if strings.TrimSpace(in.CustomerName) == "" {
		return nil, apperrors.NewValidationError("customer_name", "customer name is required")
	}
	if strings.TrimSpace(in.CustomerEmail) == "" {
		return nil, apperrors.NewValidationError("customer_email", "customer email is required")
	}
	if strings.TrimSpace(in.CustomerPhone) == "" {
		return nil, apperrors.NewValidationError("customer_phone", "customer phone is required")
	}
	if totalPrice < 0 {
		return nil, apperrors.NewValidationError("total_price", "price must not be negative")
	}

	slot, err := ParseSlot(in.BookingDate, in.StartTime)
	if err != nil {
		return nil, err
	}
	if slot.Before(now) {
		return nil, apperrors.NewValidationError("start_time", "booking slot is in the past")
	}

	return &Booking{
		ID:            uuid.New().String(),
		BookingCode:   NewBookingCode(),
		ServiceID:     service.ID,
		ServiceName:   service.Name,
		ServiceType:   service.Category,
		Duration:      service.Duration,
		TotalPrice:    totalPrice,
		Currency:      service.Currency,
		DiscountCode:  in.DiscountCode,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		CustomerPhone: in.CustomerPhone,
		BookingDate:   in.BookingDate,
		StartTime:     in.StartTime,
		Status:        BookingStatusPending,
		Action:        BookingActionNone,
		Notes:         in.Notes,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ParseSlot combines a booking date and start time into a single timestamp
func ParseSlot(date, start string) (time.Time, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return time.Time{}, apperrors.NewValidationError("booking_date", fmt.Sprintf("invalid booking date %q (use YYYY-MM-DD)", date))
	}
	slot, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+start, time.Local)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("start_time", fmt.Sprintf("invalid start time %q (use HH:MM)", start))
	}
	return slot, nil
}

// SlotStart returns the scheduled start of the booking
func (b *Booking) SlotStart() (time.Time, error) {
	return ParseSlot(b.BookingDate, b.StartTime)
}

// IsAssignedTo reports whether the booking is assigned to the given staff member
func (b *Booking) IsAssignedTo(staffID string) bool {
	return b.AssignedStaff != nil && *b.AssignedStaff == staffID
}

// NewBookingCode generates a human-facing booking code like BOOK483920
func NewBookingCode() string {
	return fmt.Sprintf("BOOK%06d", 100000+rand.IntN(900000))
}
