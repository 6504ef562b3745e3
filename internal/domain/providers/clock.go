package providers

import "time"

// Clock supplies the current time. It is injected so that validation and
// checkout-deadline logic are deterministic in tests.
type Clock interface {
	Now() time.Time
}
