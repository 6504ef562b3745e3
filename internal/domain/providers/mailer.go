package providers

import "context"

// Mailer sends customer-facing mail. Delivery failures are logged by the
// caller and never fail a booking operation.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
