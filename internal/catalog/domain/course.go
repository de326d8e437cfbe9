package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/skolahq/skola/pkg/errors"
)

// State is the lifecycle state of a course. A course is in exactly one
// state at any time.
type State string

const (
	StateDraft     State = "draft"
	StateSubmitted State = "submitted"
	StateApproved  State = "approved"
	StateRejected  State = "rejected"
	StatePublished State = "published"
)

// States returns every lifecycle state, in workflow order.
func States() []State {
	return []State{StateDraft, StateSubmitted, StateApproved, StateRejected, StatePublished}
}

// ActivityType enumerates the graded activity kinds.
type ActivityType string

const (
	ActivityQuiz       ActivityType = "quiz"
	ActivityAssignment ActivityType = "assignment"
	ActivityDiscussion ActivityType = "discussion"
	ActivityProject    ActivityType = "project"
)

// ParseActivityType converts a string into a known activity type.
func ParseActivityType(s string) (ActivityType, error) {
	switch ActivityType(s) {
	case ActivityQuiz, ActivityAssignment, ActivityDiscussion, ActivityProject:
		return ActivityType(s), nil
	default:
		return "", pkgerrors.Invalid("unknown activity type " + s)
	}
}

// Video is an ordered content unit embedded in a course. Videos live and die
// with their course; they are never independently persisted from the
// caller's perspective.
type Video struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Duration   int       `json:"duration"` // seconds
	Order      int       `json:"order"`    // 1-based, dense, unique within the course
	IsPreview  bool      `json:"is_preview"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Activity is an ordered graded activity embedded in a course.
type Activity struct {
	ID           uuid.UUID    `json:"id"`
	Title        string       `json:"title"`
	Type         ActivityType `json:"type"`
	Instructions string       `json:"instructions"`
	MaxScore     int          `json:"max_score"`
	Deadline     *time.Time   `json:"deadline,omitempty"`
	Order        int          `json:"order"` // 1-based, dense, unique within the course
	CreatedAt    time.Time    `json:"created_at"`
}

// Course is the central aggregate: the course document together with its
// embedded videos and activities, treated as one unit of consistency.
type Course struct {
	ID           uuid.UUID `json:"id"`
	InstructorID uuid.UUID `json:"instructor_id"` // immutable after creation

	State State `json:"state"`

	// Moderation metadata. RejectionReason is set iff State is rejected;
	// ApprovedAt/ApprovedBy are set iff State is approved or published.
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	ApprovedBy      *uuid.UUID `json:"approved_by,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`

	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Thumbnail          string   `json:"thumbnail"`
	Category           string   `json:"category"`
	Level              string   `json:"level"`
	Price              float64  `json:"price"`
	Duration           int      `json:"duration"` // minutes, advertised total
	Requirements       []string `json:"requirements"`
	LearningObjectives []string `json:"learning_objectives"`

	Videos     []Video    `json:"videos"`
	Activities []Activity `json:"activities"`

	StudentsEnrolled int     `json:"students_enrolled"`
	Rating           float64 `json:"rating"`

	// IsPublished is set once on publish and is thereafter read-only.
	IsPublished bool `json:"is_published"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCourse creates a course in draft for the given instructor.
func NewCourse(instructorID uuid.UUID, title string) (*Course, error) {
	if instructorID == uuid.Nil {
		return nil, pkgerrors.Invalid("instructor id is required")
	}
	if strings.TrimSpace(title) == "" {
		return nil, pkgerrors.Invalid("title is required")
	}

	now := time.Now()
	return &Course{
		ID:           uuid.New(),
		InstructorID: instructorID,
		State:        StateDraft,
		Title:        title,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ContentMutable reports whether a course in the given state accepts edits
// to its content fields and child collections. This is the single source of
// truth shared by the lifecycle engine and the aggregate mutator.
func ContentMutable(state State) bool {
	return state == StateDraft || state == StateRejected
}

// IsContentMutable reports whether this course currently accepts content
// edits.
func (c *Course) IsContentMutable() bool {
	return ContentMutable(c.State)
}

// Validate checks the aggregate's structural invariants: moderation metadata
// consistent with state, and dense 1-based ordering of both child
// collections.
func (c *Course) Validate() error {
	if c.InstructorID == uuid.Nil {
		return pkgerrors.Invalid("course has no instructor")
	}

	rejected := c.State == StateRejected
	if (c.RejectionReason != "") != rejected {
		return pkgerrors.Invalid("rejection reason must be set exactly when the course is rejected")
	}

	approvedOrLater := c.State == StateApproved || c.State == StatePublished
	if (c.ApprovedAt != nil) != approvedOrLater || (c.ApprovedBy != nil) != approvedOrLater {
		return pkgerrors.Invalid("approval marks must be set exactly when the course is approved or published")
	}

	if c.IsPublished != (c.State == StatePublished) {
		return pkgerrors.Invalid("published flag inconsistent with state")
	}

	if err := validateDenseOrder(videoOrders(c.Videos)); err != nil {
		return err
	}
	return validateDenseOrder(activityOrders(c.Activities))
}

func videoOrders(videos []Video) []int {
	orders := make([]int, len(videos))
	for i, v := range videos {
		orders[i] = v.Order
	}
	return orders
}

func activityOrders(activities []Activity) []int {
	orders := make([]int, len(activities))
	for i, a := range activities {
		orders[i] = a.Order
	}
	return orders
}

// validateDenseOrder checks that orders are exactly 1..N with no duplicates
// or gaps.
func validateDenseOrder(orders []int) error {
	seen := make(map[int]bool, len(orders))
	for _, o := range orders {
		if o < 1 || o > len(orders) {
			return pkgerrors.Invalid("child order out of range")
		}
		if seen[o] {
			return pkgerrors.Invalid("duplicate child order")
		}
		seen[o] = true
	}
	return nil
}

// Touch bumps the update timestamp.
func (c *Course) Touch() {
	c.UpdatedAt = time.Now()
}
