package entities_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/luluspa/spa-booking-backend/internal/domain/entities"
	apperrors "github.com/luluspa/spa-booking-backend/pkg/errors"
)

var (
	admin      = entities.Actor{ID: "admin-1", Role: entities.RoleAdmin}
	customer   = entities.Actor{ID: "cust-1", Role: entities.RoleCustomer}
	therapistA = entities.Actor{ID: "therapistA", Role: entities.RoleTherapist}
	therapistB = entities.Actor{ID: "therapistB", Role: entities.RoleTherapist}
)

func pendingBooking(staff *string) *entities.Booking {
	return &entities.Booking{
		ID:            "booking-1",
		BookingCode:   "BOOK123456",
		Status:        entities.BookingStatusPending,
		AssignedStaff: staff,
		Version:       1,
	}
}

func staffID(id string) *string { return &id }

func TestCanTransition_TableIsClosed(t *testing.T) {
	all := []entities.BookingStatus{
		entities.BookingStatusPending,
		entities.BookingStatusCheckedIn,
		entities.BookingStatusCompleted,
		entities.BookingStatusCancelled,
	}
	legal := map[[2]entities.BookingStatus]bool{
		{entities.BookingStatusPending, entities.BookingStatusCheckedIn}:   true,
		{entities.BookingStatusPending, entities.BookingStatusCancelled}:   true,
		{entities.BookingStatusCheckedIn, entities.BookingStatusCompleted}: true,
		{entities.BookingStatusCheckedIn, entities.BookingStatusCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, legal[[2]entities.BookingStatus{from, to}],
				entities.CanTransition(from, to),
				"edge %s -> %s", from, to)
		}
	}
}

func TestTransition_CheckIn(t *testing.T) {
	now := time.Date(2026, 9, 15, 10, 30, 0, 0, time.Local)

	t.Run("assigned staff may check in", func(t *testing.T) {
		b := pendingBooking(staffID("therapistA"))

		err := b.Transition(entities.BookingStatusCheckedIn, therapistA, now)

		assert.NoError(t, err)
		assert.Equal(t, entities.BookingStatusCheckedIn, b.Status)
		assert.Equal(t, entities.BookingActionCheckIn, b.Action)
		assert.Nil(t, b.EndTime)
	})

	t.Run("admin may check in on behalf of staff", func(t *testing.T) {
		b := pendingBooking(staffID("therapistA"))

		assert.NoError(t, b.Transition(entities.BookingStatusCheckedIn, admin, now))
	})

	t.Run("unassigned booking cannot be checked in", func(t *testing.T) {
		b := pendingBooking(nil)

		err := b.Transition(entities.BookingStatusCheckedIn, admin, now)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
		assert.Equal(t, entities.BookingStatusPending, b.Status)
	})

	t.Run("other staff may not check in", func(t *testing.T) {
		b := pendingBooking(staffID("therapistA"))

		err := b.Transition(entities.BookingStatusCheckedIn, therapistB, now)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
		assert.Equal(t, entities.BookingStatusPending, b.Status)
		assert.Equal(t, entities.BookingActionNone, b.Action)
	})

	t.Run("double check-in is an invalid transition", func(t *testing.T) {
		b := pendingBooking(staffID("therapistA"))
		assert.NoError(t, b.Transition(entities.BookingStatusCheckedIn, therapistA, now))

		err := b.Transition(entities.BookingStatusCheckedIn, therapistA, now)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
		appErr := err.(*apperrors.AppError)
		assert.Equal(t, "checked-in", appErr.Details["from"])
		assert.Equal(t, "checked-in", appErr.Details["to"])
	})
}

func TestTransition_Complete(t *testing.T) {
	now := time.Date(2026, 9, 15, 11, 45, 0, 0, time.Local)

	checkedIn := func() *entities.Booking {
		b := pendingBooking(staffID("therapistA"))
		b.Status = entities.BookingStatusCheckedIn
		b.Action = entities.BookingActionCheckIn
		return b
	}

	t.Run("assigned staff completes and stamps end time", func(t *testing.T) {
		b := checkedIn()

		err := b.Transition(entities.BookingStatusCompleted, therapistA, now)

		assert.NoError(t, err)
		assert.Equal(t, entities.BookingStatusCompleted, b.Status)
		assert.Equal(t, entities.BookingActionCheckOut, b.Action)
		if assert.NotNil(t, b.EndTime) {
			assert.Equal(t, now, *b.EndTime)
		}
	})

	t.Run("other staff gets authorization error, state unchanged", func(t *testing.T) {
		b := checkedIn()

		err := b.Transition(entities.BookingStatusCompleted, therapistB, now)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
		assert.Equal(t, entities.BookingStatusCheckedIn, b.Status)
		assert.Nil(t, b.EndTime)
	})

	t.Run("admin may not complete on behalf of staff", func(t *testing.T) {
		b := checkedIn()

		err := b.Transition(entities.BookingStatusCompleted, admin, now)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
	})

	t.Run("pending booking cannot be completed", func(t *testing.T) {
		b := pendingBooking(staffID("therapistA"))

		err := b.Transition(entities.BookingStatusCompleted, therapistA, now)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
	})
}

func TestTransition_Cancel(t *testing.T) {
	now := time.Date(2026, 9, 15, 10, 0, 0, 0, time.Local)

	t.Run("customer cancels pending booking, action untouched", func(t *testing.T) {
		b := pendingBooking(nil)
		deadline := now.Add(-time.Second)
		b.CheckoutDeadline = &deadline

		err := b.Transition(entities.BookingStatusCancelled, customer, now)

		assert.NoError(t, err)
		assert.Equal(t, entities.BookingStatusCancelled, b.Status)
		assert.Equal(t, entities.BookingActionNone, b.Action)
		assert.Nil(t, b.EndTime)
		assert.Nil(t, b.CheckoutDeadline)
	})

	t.Run("scheduler cancels pending booking", func(t *testing.T) {
		b := pendingBooking(nil)

		assert.NoError(t, b.Transition(entities.BookingStatusCancelled, entities.SchedulerActor, now))
	})

	t.Run("therapist may not cancel pending booking", func(t *testing.T) {
		b := pendingBooking(staffID("therapistA"))

		err := b.Transition(entities.BookingStatusCancelled, therapistA, now)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
	})

	t.Run("only admin cancels checked-in booking", func(t *testing.T) {
		b := pendingBooking(staffID("therapistA"))
		b.Status = entities.BookingStatusCheckedIn

		err := b.Transition(entities.BookingStatusCancelled, customer, now)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))

		err = b.Transition(entities.BookingStatusCancelled, entities.SchedulerActor, now)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))

		assert.NoError(t, b.Transition(entities.BookingStatusCancelled, admin, now))
	})

	t.Run("terminal states reject any transition", func(t *testing.T) {
		for _, terminal := range []entities.BookingStatus{
			entities.BookingStatusCompleted,
			entities.BookingStatusCancelled,
		} {
			b := pendingBooking(staffID("therapistA"))
			b.Status = terminal

			err := b.Transition(entities.BookingStatusCancelled, admin, now)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition), "from %s", terminal)
		}
	})
}

func TestAssign(t *testing.T) {
	now := time.Date(2026, 9, 15, 9, 0, 0, 0, time.Local)

	t.Run("assigns while pending", func(t *testing.T) {
		b := pendingBooking(nil)

		assert.NoError(t, b.Assign("therapistA", now))
		assert.True(t, b.IsAssignedTo("therapistA"))
	})

	t.Run("reassigns while checked in", func(t *testing.T) {
		b := pendingBooking(staffID("therapistA"))
		b.Status = entities.BookingStatusCheckedIn

		assert.NoError(t, b.Assign("therapistB", now))
		assert.True(t, b.IsAssignedTo("therapistB"))
	})

	t.Run("assignment frozen on terminal states", func(t *testing.T) {
		for _, terminal := range []entities.BookingStatus{
			entities.BookingStatusCompleted,
			entities.BookingStatusCancelled,
		} {
			b := pendingBooking(staffID("therapistA"))
			b.Status = terminal

			err := b.Assign("therapistB", now)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeAssignment), "status %s", terminal)
			assert.True(t, b.IsAssignedTo("therapistA"))
		}
	})
}
