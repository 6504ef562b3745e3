package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/luluspa/spa-booking-backend/internal/domain/entities"
	"github.com/luluspa/spa-booking-backend/internal/domain/providers"
)

// NotificationService renders and sends customer-facing booking mail
type NotificationService struct {
	mailer providers.Mailer
}

// NewNotificationService creates a new notification service
func NewNotificationService(mailer providers.Mailer) *NotificationService {
	return &NotificationService{mailer: mailer}
}

const confirmationTemplate = `
<p>Hi {{customer_name}},</p>
<p>Your booking <strong>{{booking_code}}</strong> is confirmed.</p>
<ul>
  <li>Service: {{service_name}}</li>
  <li>Date: {{booking_date}} at {{start_time}}</li>
  <li>Total: {{total_price}}</li>
</ul>
<p>See you at the spa!</p>
`

const cancellationTemplate = `
<p>Hi {{customer_name}},</p>
<p>Your booking <strong>{{booking_code}}</strong> ({{service_name}} on {{booking_date}} at {{start_time}}) has been cancelled.</p>
`

// SendBookingConfirmation sends a booking confirmation email
func (n *NotificationService) SendBookingConfirmation(ctx context.Context, booking *entities.Booking) error {
	subject := fmt.Sprintf("Booking confirmed: %s", booking.BookingCode)
	body := n.renderTemplate(confirmationTemplate, booking)
	return n.mailer.Send(ctx, booking.CustomerEmail, subject, body)
}

// SendCancellationNotice sends a cancellation notice email
func (n *NotificationService) SendCancellationNotice(ctx context.Context, booking *entities.Booking) error {
	subject := fmt.Sprintf("Booking cancelled: %s", booking.BookingCode)
	body := n.renderTemplate(cancellationTemplate, booking)
	return n.mailer.Send(ctx, booking.CustomerEmail, subject, body)
}

// renderTemplate replaces placeholders in template
func (n *NotificationService) renderTemplate(template string, booking *entities.Booking) string {
	replacements := map[string]string{
		"{{customer_name}}": booking.CustomerName,
		"{{booking_code}}":  booking.BookingCode,
		"{{service_name}}":  booking.ServiceName,
		"{{booking_date}}":  booking.BookingDate,
		"{{start_time}}":    booking.StartTime,
		"{{total_price}}":   fmt.Sprintf("%d %s", booking.TotalPrice, booking.Currency),
	}

	result := template
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}
