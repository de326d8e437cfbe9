package domain

import (
	"github.com/skolahq/skola/pkg/auth"
)

// Operation names an action an actor can attempt against a course. The
// policy engine only understands these; anything else is denied outright.
type Operation string

const (
	OpRead          Operation = "read"
	OpUpdate        Operation = "update"
	OpDelete        Operation = "delete"
	OpAddChild      Operation = "addChild"
	OpUpdateChild   Operation = "updateChild"
	OpRemoveChild   Operation = "removeChild"
	OpSubmit        Operation = "submit"
	OpApprove       Operation = "approve"
	OpReject        Operation = "reject"
	OpPublish       Operation = "publish"
	OpEnroll        Operation = "enroll"
	OpReadRoster    Operation = "readRoster"
	OpReadAnalytics Operation = "readAnalytics"
)

// Decision is the outcome of an authorization check. When Allowed is false,
// Reason carries a stable machine-readable code suitable for clients and
// audit logs.
type Decision struct {
	Allowed bool
	Reason  string
}

// Deny reason codes.
const (
	ReasonNotOwner         = "not-owner"
	ReasonNotPublished     = "not-published"
	ReasonRoleForbidden    = "role-forbidden"
	ReasonUnknownOperation = "unknown-operation"
)

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

var knownOperations = map[Operation]bool{
	OpRead: true, OpUpdate: true, OpDelete: true,
	OpAddChild: true, OpUpdateChild: true, OpRemoveChild: true,
	OpSubmit: true, OpApprove: true, OpReject: true, OpPublish: true,
	OpEnroll: true, OpReadRoster: true, OpReadAnalytics: true,
}

// Decide is the pure authorization function: given who is acting, what they
// want to do, and the course they want to do it to, it yields an
// allow-or-deny decision with a reason code. It consults nothing but its
// arguments, so identical inputs always produce identical decisions.
//
// Unknown operations are denied before any role shortcut applies, so a typo
// in an operation name can never silently grant an administrator access.
func Decide(actor auth.Actor, op Operation, course *Course) Decision {
	if !knownOperations[op] {
		return deny(ReasonUnknownOperation)
	}
	if actor.IsAdministrator() {
		return allow()
	}

	owner := course != nil && actor.ID == course.InstructorID && actor.IsInstructor()

	switch op {
	case OpRead:
		if owner {
			return allow()
		}
		if course != nil && course.State == StatePublished {
			return allow()
		}
		return deny(ReasonNotPublished)

	case OpUpdate, OpDelete, OpAddChild, OpUpdateChild, OpRemoveChild, OpSubmit:
		if owner {
			return allow()
		}
		if actor.IsInstructor() {
			return deny(ReasonNotOwner)
		}
		return deny(ReasonRoleForbidden)

	case OpApprove, OpReject, OpPublish:
		return deny(ReasonRoleForbidden)

	case OpEnroll:
		if actor.IsStudent() {
			return allow()
		}
		return deny(ReasonRoleForbidden)

	case OpReadRoster, OpReadAnalytics:
		if owner {
			return allow()
		}
		if actor.IsInstructor() {
			return deny(ReasonNotOwner)
		}
		return deny(ReasonRoleForbidden)
	}

	return deny(ReasonUnknownOperation)
}
