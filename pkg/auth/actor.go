package auth

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is the coarse-grained role carried by every authenticated caller.
type Role string

const (
	RoleStudent       Role = "student"
	RoleInstructor    Role = "instructor"
	RoleAdministrator Role = "administrator"
)

// ParseRole converts a string into a known role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleInstructor, RoleAdministrator:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Actor is the authenticated identity performing an operation. It is passed
// explicitly into every core operation; nothing reads it from ambient state.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// IsAdministrator reports whether the actor holds the administrator role.
func (a Actor) IsAdministrator() bool {
	return a.Role == RoleAdministrator
}

// IsInstructor reports whether the actor holds the instructor role.
func (a Actor) IsInstructor() bool {
	return a.Role == RoleInstructor
}

// IsStudent reports whether the actor holds the student role.
func (a Actor) IsStudent() bool {
	return a.Role == RoleStudent
}
