package entities

import "time"

// BookingEventType classifies lifecycle events published on the event bus
type BookingEventType string

const (
	BookingEventCreated          BookingEventType = "booking_created"
	BookingEventAssigned         BookingEventType = "booking_assigned"
	BookingEventCheckedIn        BookingEventType = "booking_checked_in"
	BookingEventCompleted        BookingEventType = "booking_completed"
	BookingEventCancelled        BookingEventType = "booking_cancelled"
	BookingEventCheckoutStarted  BookingEventType = "checkout_started"
	BookingEventPaymentConfirmed BookingEventType = "payment_confirmed"
)

// BookingEvent is broadcast to staff dashboards when a booking changes
type BookingEvent struct {
	ID            string           `json:"id"`
	BookingID     string           `json:"booking_id"`
	BookingCode   string           `json:"booking_code"`
	EventType     BookingEventType `json:"event_type"`
	Status        BookingStatus    `json:"status"`
	AssignedStaff *string          `json:"assigned_staff,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}
