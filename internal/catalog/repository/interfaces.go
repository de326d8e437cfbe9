package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/skolahq/skola/internal/catalog/domain"
)

// CourseCacheKey is the cache key for a course aggregate. Every writer that
// changes a course row, the enrollment counter included, must invalidate it.
func CourseCacheKey(id uuid.UUID) string {
	return "course:" + id.String()
}

// ListFilter narrows a course listing. Zero values mean "no constraint".
type ListFilter struct {
	InstructorID  uuid.UUID
	State         domain.State
	Category      string
	PublishedOnly bool
	Limit         int
	Offset        int
}

// CourseRepository persists course aggregates. Save is conditional on the
// version the caller loaded; a stale version yields a Conflict error and
// leaves the stored aggregate untouched.
type CourseRepository interface {
	// Create stores a brand-new aggregate.
	Create(ctx context.Context, course *domain.Course) error

	// Get loads the full aggregate, children included.
	Get(ctx context.Context, id uuid.UUID) (*domain.Course, error)

	// Save replaces the stored aggregate iff its version still equals
	// expectedVersion, bumping the version by one on success.
	Save(ctx context.Context, course *domain.Course, expectedVersion int) error

	// Delete removes the aggregate and its children.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns matching aggregates plus the unpaged total.
	List(ctx context.Context, filter ListFilter) ([]*domain.Course, int64, error)

	// AdjustEnrollmentCount atomically adds delta to the denormalized
	// enrollment counter, flooring the result at zero.
	AdjustEnrollmentCount(ctx context.Context, id uuid.UUID, delta int) error
}
