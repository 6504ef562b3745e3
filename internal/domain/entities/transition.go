package entities

import (
	"time"

	apperrors "github.com/luluspa/spa-booking-backend/pkg/errors"
)

// legalEdges is the closed transition table for the booking lifecycle.
// Completed and cancelled are terminal.
var legalEdges = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusCheckedIn, BookingStatusCancelled},
	BookingStatusCheckedIn: {BookingStatusCompleted, BookingStatusCancelled},
}

// CanTransition reports whether the edge from → to is in the legal graph
func CanTransition(from, to BookingStatus) bool {
	for _, next := range legalEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition applies the status change to the booking after checking the
// edge and its actor guard. On failure the booking is left unchanged.
//
// Guards:
//   - pending → checked-in: staff must be assigned; actor is that staff
//     member or an admin
//   - pending → cancelled: admin, customer, or the checkout timer
//   - checked-in → completed: the assigned staff member only
//   - checked-in → cancelled: admin only (the customer already occupies a slot)
//
// Entering checked-in records action "checkin"; entering completed records
// action "checkout" and stamps endTime with the transition timestamp. A
// cancellation leaves the action untouched. Any successful transition clears
// the checkout deadline: the booking is no longer awaiting payment.
func (b *Booking) Transition(to BookingStatus, actor Actor, now time.Time) error {
	if !CanTransition(b.Status, to) {
		return apperrors.NewInvalidTransitionError(string(b.Status), string(to))
	}

	switch {
	case b.Status == BookingStatusPending && to == BookingStatusCheckedIn:
		if b.AssignedStaff == nil {
			return apperrors.NewForbiddenError("booking has no assigned staff; check-in requires an assignment")
		}
		if !actor.IsAdmin() && !(actor.Role == RoleTherapist && b.IsAssignedTo(actor.ID)) {
			return apperrors.NewForbiddenError("only the assigned staff member or an admin may check in this booking")
		}

	case b.Status == BookingStatusPending && to == BookingStatusCancelled:
		if !actor.IsAdmin() && actor.Role != RoleCustomer && actor.Role != RoleScheduler {
			return apperrors.NewForbiddenError("only an admin, the customer, or the checkout timer may cancel a pending booking")
		}

	case b.Status == BookingStatusCheckedIn && to == BookingStatusCompleted:
		if !(actor.Role == RoleTherapist && b.IsAssignedTo(actor.ID)) {
			return apperrors.NewForbiddenError("only the assigned staff member may complete this booking")
		}

	case b.Status == BookingStatusCheckedIn && to == BookingStatusCancelled:
		if !actor.IsAdmin() {
			return apperrors.NewForbiddenError("only an admin may cancel a checked-in booking")
		}
	}

	b.Status = to
	switch to {
	case BookingStatusCheckedIn:
		b.Action = BookingActionCheckIn
	case BookingStatusCompleted:
		b.Action = BookingActionCheckOut
		endTime := now
		b.EndTime = &endTime
	}
	b.CheckoutDeadline = nil
	b.UpdatedAt = now

	return nil
}

// Assign sets or changes the responsible staff member. Assignment is frozen
// once the booking reaches a terminal state.
func (b *Booking) Assign(staffID string, now time.Time) error {
	if b.Status != BookingStatusPending && b.Status != BookingStatusCheckedIn {
		return apperrors.NewAssignmentError(string(b.Status))
	}
	b.AssignedStaff = &staffID
	b.UpdatedAt = now
	return nil
}
