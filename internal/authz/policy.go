package authz

import (
	"userbase/internal/models"

	"github.com/google/uuid"
)

// Actor is the authenticated identity performing a request.
type Actor struct {
	ID    uuid.UUID
	Email string
	Name  string
	Role  models.Role
}

// Decision is the outcome of a policy check. Call sites must branch on
// Allowed(); a denial always carries a reason suitable for the client.
type Decision struct {
	allowed bool
	reason  string
}

func Allow() Decision {
	return Decision{allowed: true}
}

func Deny(reason string) Decision {
	return Decision{reason: reason}
}

func (d Decision) Allowed() bool { return d.allowed }

// Reason returns the denial reason, empty for an allowed decision.
func (d Decision) Reason() string { return d.reason }

// CanCreateUser allows only admins to create users directly.
func CanCreateUser(actor Actor) Decision {
	if actor.Role == models.RoleAdmin {
		return Allow()
	}
	return Deny("only administrators can create users")
}

// CanListUsers allows only admins to list all users.
func CanListUsers(actor Actor) Decision {
	if actor.Role == models.RoleAdmin {
		return Allow()
	}
	return Deny("only administrators can list users")
}

// CanViewInactiveReport allows only admins to read the inactivity report.
func CanViewInactiveReport(actor Actor) Decision {
	if actor.Role == models.RoleAdmin {
		return Allow()
	}
	return Deny("only administrators can view the inactive users report")
}

// CanViewUser allows admins to view anyone and users to view themselves.
func CanViewUser(actor Actor, targetID uuid.UUID) Decision {
	if actor.Role == models.RoleAdmin || actor.ID == targetID {
		return Allow()
	}
	return Deny("you do not have permission to view this user")
}

// CanUpdateUser allows admins to update anyone and users to update themselves.
// Role and activation changes are governed separately by CanChangeRole.
func CanUpdateUser(actor Actor, targetID uuid.UUID) Decision {
	if actor.Role == models.RoleAdmin || actor.ID == targetID {
		return Allow()
	}
	return Deny("you do not have permission to update this user")
}

// CanChangeRole allows only admins to change role or activation flags.
// A self-update must never escalate the actor's own role.
func CanChangeRole(actor Actor) Decision {
	if actor.Role == models.RoleAdmin {
		return Allow()
	}
	return Deny("only administrators can change roles or activation status")
}

// CanDeleteUser allows only admins to delete users. Admins may delete any
// account, including their own.
func CanDeleteUser(actor Actor) Decision {
	if actor.Role == models.RoleAdmin {
		return Allow()
	}
	return Deny("only administrators can delete users")
}
