package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/skolahq/skola/internal/enrollment/domain"
)

// Enrollment is the persistence model for an enrollment. On postgres a
// partial unique index over (student_id, course_id) WHERE status = 'active'
// backs the one-active-enrollment rule; see the migration set.
type Enrollment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index:idx_enrollments_student"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;index:idx_enrollments_course"`

	Status   string `gorm:"not null;index;default:active"`
	Progress int    `gorm:"not null;default:0"`

	EnrolledAt  time.Time `gorm:"not null"`
	CompletedAt *time.Time
	DroppedAt   *time.Time
	UpdatedAt   time.Time
}

func toModel(e *domain.Enrollment) *Enrollment {
	return &Enrollment{
		ID:          e.ID,
		StudentID:   e.StudentID,
		CourseID:    e.CourseID,
		Status:      string(e.Status),
		Progress:    e.Progress,
		EnrolledAt:  e.EnrolledAt,
		CompletedAt: e.CompletedAt,
		DroppedAt:   e.DroppedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toDomain(m *Enrollment) *domain.Enrollment {
	return &domain.Enrollment{
		ID:          m.ID,
		StudentID:   m.StudentID,
		CourseID:    m.CourseID,
		Status:      domain.Status(m.Status),
		Progress:    m.Progress,
		EnrolledAt:  m.EnrolledAt,
		CompletedAt: m.CompletedAt,
		DroppedAt:   m.DroppedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
