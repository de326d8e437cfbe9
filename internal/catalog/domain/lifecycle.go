package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/skolahq/skola/pkg/errors"
)

// Lifecycle verbs. Every transition goes through one of these; there is no
// generic setState.
const (
	VerbSubmit  = "submit"
	VerbApprove = "approve"
	VerbReject  = "reject"
	VerbPublish = "publish"
)

// transitions maps each verb to the states it may fire from. Resubmission is
// the rejected -> submitted edge; everything else has a single source state.
var transitions = map[string][]State{
	VerbSubmit:  {StateDraft, StateRejected},
	VerbApprove: {StateSubmitted},
	VerbReject:  {StateSubmitted},
	VerbPublish: {StateApproved},
}

// CanTransition reports whether the verb may fire from the given state. It
// checks state only, not prerequisites.
func CanTransition(verb string, from State) bool {
	for _, s := range transitions[verb] {
		if s == from {
			return true
		}
	}
	return false
}

// Submit moves the course into moderation. A rejected course may be
// resubmitted; its prior rejection reason is cleared so reviewers see a clean
// slate. Submission requires at least one video and completed listing
// metadata.
func (c *Course) Submit() error {
	if !CanTransition(VerbSubmit, c.State) {
		return pkgerrors.IllegalTransition(VerbSubmit, string(c.State))
	}
	if len(c.Videos) == 0 {
		return pkgerrors.MissingPrerequisite("videos", "course must have at least one video before submission")
	}
	if strings.TrimSpace(c.Description) == "" {
		return pkgerrors.MissingPrerequisite("description", "course description is required before submission")
	}
	if strings.TrimSpace(c.Thumbnail) == "" {
		return pkgerrors.MissingPrerequisite("thumbnail", "course thumbnail is required before submission")
	}

	now := time.Now()
	c.State = StateSubmitted
	c.SubmittedAt = &now
	c.RejectionReason = ""
	c.Touch()
	return nil
}

// Approve records the reviewer's approval.
func (c *Course) Approve(reviewerID uuid.UUID) error {
	if !CanTransition(VerbApprove, c.State) {
		return pkgerrors.IllegalTransition(VerbApprove, string(c.State))
	}
	if reviewerID == uuid.Nil {
		return pkgerrors.Invalid("reviewer id is required")
	}

	now := time.Now()
	c.State = StateApproved
	c.ApprovedAt = &now
	c.ApprovedBy = &reviewerID
	c.RejectionReason = ""
	c.Touch()
	return nil
}

// Reject sends the course back to its instructor with a mandatory reason.
func (c *Course) Reject(reason string) error {
	if !CanTransition(VerbReject, c.State) {
		return pkgerrors.IllegalTransition(VerbReject, string(c.State))
	}
	if strings.TrimSpace(reason) == "" {
		return pkgerrors.Invalid("rejection reason is required")
	}

	c.State = StateRejected
	c.RejectionReason = reason
	c.ApprovedAt = nil
	c.ApprovedBy = nil
	c.Touch()
	return nil
}

// Publish makes an approved course publicly visible. Publication is terminal;
// there is no unpublish.
func (c *Course) Publish() error {
	if !CanTransition(VerbPublish, c.State) {
		return pkgerrors.IllegalTransition(VerbPublish, string(c.State))
	}

	c.State = StatePublished
	c.IsPublished = true
	c.Touch()
	return nil
}

// Transition dispatches a lifecycle verb by name. reviewerID is used by
// approve, reason by reject; the others ignore both.
func (c *Course) Transition(verb string, reviewerID uuid.UUID, reason string) error {
	switch verb {
	case VerbSubmit:
		return c.Submit()
	case VerbApprove:
		return c.Approve(reviewerID)
	case VerbReject:
		return c.Reject(reason)
	case VerbPublish:
		return c.Publish()
	default:
		return pkgerrors.IllegalTransition(verb, string(c.State))
	}
}
