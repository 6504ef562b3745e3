package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/luluspa/spa-booking-backend/internal/domain/entities"
	"github.com/luluspa/spa-booking-backend/internal/domain/providers"
	"github.com/luluspa/spa-booking-backend/internal/domain/repositories"
	"github.com/luluspa/spa-booking-backend/internal/infrastructure/observability"
	apperrors "github.com/luluspa/spa-booking-backend/pkg/errors"
)

// CheckoutTimerService owns the time-boxed checkout window. Starting a
// checkout stamps a payment deadline on a pending booking; a background
// sweep auto-cancels bookings whose deadline has passed without payment.
// The versioned save makes the expiry exactly-once even with concurrent
// sweeps or a racing manual cancellation.
type CheckoutTimerService struct {
	repo          repositories.BookingRepository
	eventBus      providers.EventBus
	clock         providers.Clock
	window        time.Duration
	sweepInterval time.Duration
	metrics       *observability.Metrics
	sweepGroup    singleflight.Group
}

// NewCheckoutTimerService creates a new checkout timer service
func NewCheckoutTimerService(
	repo repositories.BookingRepository,
	eventBus providers.EventBus,
	clock providers.Clock,
	window time.Duration,
	sweepInterval time.Duration,
	metrics *observability.Metrics,
) *CheckoutTimerService {
	return &CheckoutTimerService{
		repo:          repo,
		eventBus:      eventBus,
		clock:         clock,
		window:        window,
		sweepInterval: sweepInterval,
		metrics:       metrics,
	}
}

// StartCheckout opens the payment window on a pending booking. The booking
// is auto-cancelled if the window elapses without payment confirmation.
// A non-positive window falls back to the configured default.
func (s *CheckoutTimerService) StartCheckout(ctx context.Context, id string, actor entities.Actor, window time.Duration) (*entities.Booking, error) {
	ctx, span := observability.StartSpan(ctx, "CheckoutTimerService.StartCheckout")
	defer span.End()

	if !actor.IsAdmin() && actor.Role != entities.RoleCustomer {
		return nil, apperrors.NewForbiddenError("only the customer or an admin may start checkout")
	}
	if window <= 0 {
		window = s.window
	}

	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != entities.BookingStatusPending {
		return nil, apperrors.NewInvalidTransitionError(string(booking.Status), string(entities.BookingStatusPending))
	}

	now := s.clock.Now()
	deadline := now.Add(window)
	expected := booking.Version
	booking.CheckoutDeadline = &deadline
	booking.UpdatedAt = now

	if err := s.repo.Update(ctx, booking, expected); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	s.publishEvent(ctx, booking, entities.BookingEventCheckoutStarted)
	return booking, nil
}

// ConfirmPayment closes the payment window. The booking stays pending; it
// advances through check-in on the visit day. Confirming with no open
// window is a no-op.
func (s *CheckoutTimerService) ConfirmPayment(ctx context.Context, id string, actor entities.Actor) (*entities.Booking, error) {
	ctx, span := observability.StartSpan(ctx, "CheckoutTimerService.ConfirmPayment")
	defer span.End()

	if !actor.IsAdmin() && actor.Role != entities.RoleCustomer {
		return nil, apperrors.NewForbiddenError("only the customer or an admin may confirm payment")
	}

	booking, err := s.CancelCheckout(ctx, id)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	s.publishEvent(ctx, booking, entities.BookingEventPaymentConfirmed)
	return booking, nil
}

// CancelCheckout clears the payment deadline without touching booking
// state. Idempotent: a booking with no open window is returned as-is.
func (s *CheckoutTimerService) CancelCheckout(ctx context.Context, id string) (*entities.Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.CheckoutDeadline == nil {
		return booking, nil
	}

	expected := booking.Version
	booking.CheckoutDeadline = nil
	booking.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, booking, expected); err != nil {
		return nil, err
	}
	return booking, nil
}

// Sweep cancels every pending booking whose checkout deadline has passed
// and returns how many were cancelled. Concurrent sweeps collapse into one
// via singleflight; a booking that was paid or cancelled between the list
// and the save loses the version check and is skipped.
func (s *CheckoutTimerService) Sweep(ctx context.Context) (int, error) {
	result, err, _ := s.sweepGroup.Do("sweep", func() (interface{}, error) {
		return s.sweep(ctx)
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

func (s *CheckoutTimerService) sweep(ctx context.Context) (int, error) {
	ctx, span := observability.StartSpan(ctx, "CheckoutTimerService.Sweep")
	defer span.End()

	now := s.clock.Now()
	due, err := s.repo.ListDueCheckouts(ctx, now)
	if err != nil {
		observability.RecordError(span, err)
		return 0, err
	}

	logger := observability.LoggerFromContext(ctx)
	cancelled := 0
	for _, booking := range due {
		expected := booking.Version
		if err := booking.Transition(entities.BookingStatusCancelled, entities.SchedulerActor, now); err != nil {
			// Status moved after the list query; nothing to expire
			logger.Debug().
				Err(err).
				Str("booking_id", booking.ID).
				Msg("skipping expired checkout, booking no longer pending")
			continue
		}

		if err := s.repo.Update(ctx, booking, expected); err != nil {
			if apperrors.IsType(err, apperrors.ErrorTypeConflict) || apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
				// Lost the race to a payment, manual cancel or another sweeper
				logger.Debug().
					Err(err).
					Str("booking_id", booking.ID).
					Msg("skipping expired checkout, lost version race")
				continue
			}
			observability.RecordError(span, err)
			return cancelled, err
		}

		cancelled++
		if s.metrics != nil {
			s.metrics.CheckoutExpirations.Add(ctx, 1)
		}
		logger.Info().
			Str("booking_id", booking.ID).
			Str("booking_code", booking.BookingCode).
			Msg("checkout window expired, booking cancelled")

		s.publishEvent(ctx, booking, entities.BookingEventCancelled)
	}

	return cancelled, nil
}

// Run drives the sweep on a fixed interval until ctx is cancelled
func (s *CheckoutTimerService) Run(ctx context.Context) {
	logger := observability.GetLogger()
	logger.Info().
		Dur("interval", s.sweepInterval).
		Dur("window", s.window).
		Msg("checkout sweeper started")

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("checkout sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				logger.Error().Err(err).Msg("checkout sweep failed")
			}
		}
	}
}

func (s *CheckoutTimerService) publishEvent(ctx context.Context, booking *entities.Booking, eventType entities.BookingEventType) {
	event := &entities.BookingEvent{
		ID:            uuid.New().String(),
		BookingID:     booking.ID,
		BookingCode:   booking.BookingCode,
		EventType:     eventType,
		Status:        booking.Status,
		AssignedStaff: booking.AssignedStaff,
		Timestamp:     s.clock.Now(),
	}

	channels := []string{providers.EventChannelBookingUpdates}
	if booking.AssignedStaff != nil {
		channels = append(channels, providers.GetStaffChannel(*booking.AssignedStaff))
	}

	for _, channel := range channels {
		if err := s.eventBus.Publish(ctx, channel, event); err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("channel", channel).
				Str("booking_id", booking.ID).
				Msg("failed to publish booking event")
		}
	}
}
