package clock

import (
	"time"

	"github.com/luluspa/spa-booking-backend/internal/domain/providers"
)

// SystemClock implements the Clock interface with the wall clock
type SystemClock struct{}

// NewSystemClock creates a new system clock
func NewSystemClock() providers.Clock {
	return SystemClock{}
}

// Now returns the current wall-clock time
func (SystemClock) Now() time.Time {
	return time.Now()
}
