package providers

import (
	"context"

	"github.com/luluspa/spa-booking-backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to booking events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.BookingEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.BookingEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelBookingUpdates is the channel for all booking updates
	EventChannelBookingUpdates = "booking:updates"

	// EventChannelStaffPrefix is the prefix for staff-scoped channels
	EventChannelStaffPrefix = "staff:"
)

// GetStaffChannel returns the channel name for a specific staff member
func GetStaffChannel(staffID string) string {
	return EventChannelStaffPrefix + staffID
}
