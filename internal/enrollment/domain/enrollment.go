package domain

import (
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/skolahq/skola/pkg/errors"
)

// Status is the lifecycle status of an enrollment.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDropped   Status = "dropped"
)

// Enrollment ties a student to a course. At most one active enrollment may
// exist per (student, course) pair; completed and dropped enrollments are
// kept as history.
type Enrollment struct {
	ID        uuid.UUID `json:"id"`
	StudentID uuid.UUID `json:"student_id"`
	CourseID  uuid.UUID `json:"course_id"`

	Status   Status `json:"status"`
	Progress int    `json:"progress"` // percent, 0..100

	EnrolledAt  time.Time  `json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DroppedAt   *time.Time `json:"dropped_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewEnrollment creates an active enrollment with zero progress.
func NewEnrollment(studentID, courseID uuid.UUID) (*Enrollment, error) {
	if studentID == uuid.Nil {
		return nil, pkgerrors.Invalid("student id is required")
	}
	if courseID == uuid.Nil {
		return nil, pkgerrors.Invalid("course id is required")
	}

	now := time.Now()
	return &Enrollment{
		ID:         uuid.New(),
		StudentID:  studentID,
		CourseID:   courseID,
		Status:     StatusActive,
		Progress:   0,
		EnrolledAt: now,
		UpdatedAt:  now,
	}, nil
}

// IsActive reports whether the enrollment counts toward the course's
// enrollment total.
func (e *Enrollment) IsActive() bool {
	return e.Status == StatusActive
}

// UpdateProgress records the student's progress. Reaching 100 percent
// completes the enrollment. Progress never moves backwards.
func (e *Enrollment) UpdateProgress(percent int) error {
	if e.Status != StatusActive {
		return pkgerrors.IllegalTransition("progress", string(e.Status))
	}
	if percent < 0 || percent > 100 {
		return pkgerrors.Invalid("progress must be between 0 and 100")
	}
	if percent < e.Progress {
		return pkgerrors.Invalid("progress cannot decrease")
	}

	e.Progress = percent
	if percent == 100 {
		now := time.Now()
		e.Status = StatusCompleted
		e.CompletedAt = &now
	}
	e.UpdatedAt = time.Now()
	return nil
}

// Drop cancels an active enrollment.
func (e *Enrollment) Drop() error {
	if e.Status != StatusActive {
		return pkgerrors.IllegalTransition("drop", string(e.Status))
	}
	now := time.Now()
	e.Status = StatusDropped
	e.DroppedAt = &now
	e.UpdatedAt = now
	return nil
}
