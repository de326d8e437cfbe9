package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/skolahq/skola/internal/enrollment/domain"
)

// EnrollmentRepository persists enrollments.
type EnrollmentRepository interface {
	// Create stores a new enrollment. Creating a second active enrollment
	// for the same (student, course) pair yields a Conflict error.
	Create(ctx context.Context, enrollment *domain.Enrollment) error

	// Get loads an enrollment by id.
	Get(ctx context.Context, id uuid.UUID) (*domain.Enrollment, error)

	// FindActive returns the active enrollment for the pair, or NotFound.
	FindActive(ctx context.Context, studentID, courseID uuid.UUID) (*domain.Enrollment, error)

	// Update persists changes to an existing enrollment.
	Update(ctx context.Context, enrollment *domain.Enrollment) error

	// UpdateAndRelease persists an enrollment leaving the active state and
	// decrements the course's enrollment counter in the same transaction.
	UpdateAndRelease(ctx context.Context, enrollment *domain.Enrollment) error

	// ListByCourse returns a page of a course's enrollments plus the
	// unpaged total, newest first.
	ListByCourse(ctx context.Context, courseID uuid.UUID, limit, offset int) ([]*domain.Enrollment, int64, error)

	// CountActiveByCourse returns the number of active enrollments for
	// the course.
	CountActiveByCourse(ctx context.Context, courseID uuid.UUID) (int64, error)
}
