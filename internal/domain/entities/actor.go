package entities

// Role identifies what an actor is allowed to do. Roles are supplied by the
// identity collaborator; this package only authorizes against them.
type Role string

const (
	RoleCustomer  Role = "customer"
	RoleTherapist Role = "therapist"
	RoleAdmin     Role = "admin"

	// RoleScheduler is held only by the checkout timer.
	RoleScheduler Role = "scheduler"
)

// Actor is the authenticated identity performing an operation
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// SchedulerActor is the internal actor the checkout timer cancels with
var SchedulerActor = Actor{ID: "checkout-timer", Role: RoleScheduler}

// IsAdmin reports whether the actor holds the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
