package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/luluspa/spa-booking-backend/internal/domain/entities"
	"github.com/luluspa/spa-booking-backend/internal/domain/providers"
	"github.com/luluspa/spa-booking-backend/internal/domain/repositories"
	"github.com/luluspa/spa-booking-backend/internal/infrastructure/observability"
	apperrors "github.com/luluspa/spa-booking-backend/pkg/errors"
)

// BookingService orchestrates the booking lifecycle: creation against the
// catalog snapshot, staff assignment, status transitions and staff-scoped
// listing. Transition and authorization rules live on the entity; this
// service wires them to persistence, events and notifications.
type BookingService struct {
	repo          repositories.BookingRepository
	serviceRepo   repositories.ServiceRepository
	voucherRepo   repositories.VoucherRepository
	eventBus      providers.EventBus
	notifications *NotificationService
	clock         providers.Clock
	metrics       *observability.Metrics
}

// NewBookingService creates a new booking service
func NewBookingService(
	repo repositories.BookingRepository,
	serviceRepo repositories.ServiceRepository,
	voucherRepo repositories.VoucherRepository,
	eventBus providers.EventBus,
	notifications *NotificationService,
	clock providers.Clock,
	metrics *observability.Metrics,
) *BookingService {
	return &BookingService{
		repo:          repo,
		serviceRepo:   serviceRepo,
		voucherRepo:   voucherRepo,
		eventBus:      eventBus,
		notifications: notifications,
		clock:         clock,
		metrics:       metrics,
	}
}

// CreateBooking validates the creation input against the live catalog,
// applies any voucher discount and persists a pending booking. The service
// name, category and discounted price are snapshotted onto the booking.
func (s *BookingService) CreateBooking(ctx context.Context, in entities.CreateBookingInput) (*entities.Booking, error) {
	ctx, span := observability.StartSpan(ctx, "BookingService.CreateBooking")
	defer span.End()

	service, err := s.serviceRepo.GetByID(ctx, in.ServiceID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewValidationError("service_id", "unknown service")
		}
		return nil, err
	}
	if !service.IsActive {
		return nil, apperrors.NewValidationError("service_id", "service is not bookable")
	}

	now := s.clock.Now()
	totalPrice := service.Price
	if in.DiscountCode != "" {
		voucher, err := s.voucherRepo.GetByCode(ctx, in.DiscountCode)
		if err != nil {
			if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
				return nil, apperrors.NewValidationError("discount_code", "unknown discount code")
			}
			return nil, err
		}
		if !voucher.Usable(now) {
			return nil, apperrors.NewValidationError("discount_code", "discount code is expired or inactive")
		}
		totalPrice = voucher.Apply(totalPrice)
	}

	booking, err := entities.NewBooking(in, service, totalPrice, now)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.BookingsCreated.Add(ctx, 1)
	}

	s.publishEvent(ctx, booking, entities.BookingEventCreated)

	// Confirmation mail must never fail the booking
	if err := s.notifications.SendBookingConfirmation(ctx, booking); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("booking_id", booking.ID).
			Msg("failed to send booking confirmation")
	}

	return booking, nil
}

// GetBooking retrieves a booking by ID
func (s *BookingService) GetBooking(ctx context.Context, id string) (*entities.Booking, error) {
	return s.repo.GetByID(ctx, id)
}

// AssignStaff sets or changes the staff member responsible for a booking.
// Only admins manage assignments.
func (s *BookingService) AssignStaff(ctx context.Context, id, staffID string, actor entities.Actor) (*entities.Booking, error) {
	ctx, span := observability.StartSpan(ctx, "BookingService.AssignStaff")
	defer span.End()

	if !actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("only an admin may assign staff")
	}

	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	expected := booking.Version
	if err := booking.Assign(staffID, s.clock.Now()); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	if err := s.save(ctx, booking, expected); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	s.publishEvent(ctx, booking, entities.BookingEventAssigned)
	return booking, nil
}

// CheckIn marks the customer as arrived
func (s *BookingService) CheckIn(ctx context.Context, id string, actor entities.Actor) (*entities.Booking, error) {
	return s.transition(ctx, id, entities.BookingStatusCheckedIn, actor, entities.BookingEventCheckedIn)
}

// Complete finishes the visit, stamping the end time
func (s *BookingService) Complete(ctx context.Context, id string, actor entities.Actor) (*entities.Booking, error) {
	return s.transition(ctx, id, entities.BookingStatusCompleted, actor, entities.BookingEventCompleted)
}

// Cancel cancels the booking
func (s *BookingService) Cancel(ctx context.Context, id string, actor entities.Actor) (*entities.Booking, error) {
	booking, err := s.transition(ctx, id, entities.BookingStatusCancelled, actor, entities.BookingEventCancelled)
	if err != nil {
		return nil, err
	}

	if err := s.notifications.SendCancellationNotice(ctx, booking); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("booking_id", booking.ID).
			Msg("failed to send cancellation notice")
	}

	return booking, nil
}

// ListForStaff retrieves the bookings visible to a staff member, ordered by
// booking date then start time. A therapist may only see their own queue.
func (s *BookingService) ListForStaff(ctx context.Context, staffID string, actor entities.Actor, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	if !actor.IsAdmin() && actor.ID != staffID {
		return nil, apperrors.NewForbiddenError("staff may only list their own bookings")
	}
	return s.repo.ListForStaff(ctx, staffID, filter)
}

func (s *BookingService) transition(ctx context.Context, id string, to entities.BookingStatus, actor entities.Actor, eventType entities.BookingEventType) (*entities.Booking, error) {
	ctx, span := observability.StartSpan(ctx, "BookingService.Transition")
	defer span.End()

	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := booking.Status
	expected := booking.Version
	if err := booking.Transition(to, actor, s.clock.Now()); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	if err := s.save(ctx, booking, expected); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	if s.metrics != nil {
		observability.RecordTransition(ctx, s.metrics, string(from), string(to))
	}

	s.publishEvent(ctx, booking, eventType)
	return booking, nil
}

func (s *BookingService) save(ctx context.Context, booking *entities.Booking, expectedVersion int64) error {
	err := s.repo.Update(ctx, booking, expectedVersion)
	if err != nil && apperrors.IsType(err, apperrors.ErrorTypeConflict) && s.metrics != nil {
		s.metrics.VersionConflicts.Add(ctx, 1)
	}
	return err
}

// publishEvent broadcasts a lifecycle event on the shared channel and, when
// staff is assigned, on that staff member's channel. Publish failures are
// logged and dropped.
func (s *BookingService) publishEvent(ctx context.Context, booking *entities.Booking, eventType entities.BookingEventType) {
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
