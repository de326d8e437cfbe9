package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skolahq/skola/internal/enrollment/domain"
	pkgerrors "github.com/skolahq/skola/pkg/errors"
	"github.com/skolahq/skola/pkg/interfaces"
)

// GormEnrollmentRepository is the gorm-backed EnrollmentRepository.
type GormEnrollmentRepository struct {
	db     *gorm.DB
	logger interfaces.Logger
}

// NewGormEnrollmentRepository creates a new enrollment repository.
func NewGormEnrollmentRepository(db *gorm.DB, logger interfaces.Logger) *GormEnrollmentRepository {
	return &GormEnrollmentRepository{db: db, logger: logger}
}

// Create stores a new enrollment. The transaction re-checks for an existing
// active enrollment before inserting; on postgres the partial unique index is
// the final arbiter and turns a racing insert into a duplicate-key error.
func (r *GormEnrollmentRepository) Create(ctx context.Context, enrollment *domain.Enrollment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&Enrollment{}).
			Where("student_id = ? AND course_id = ? AND status = ?",
				enrollment.StudentID, enrollment.CourseID, string(domain.StatusActive)).
			Count(&count).Error
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to check existing enrollment", err)
		}
		if count > 0 {
			return pkgerrors.Conflict("already-enrolled", "student already has an active enrollment")
		}

		if err := tx.Create(toModel(enrollment)).Error; err != nil {
			if pkgerrors.IsDuplicateError(err) {
				return pkgerrors.Conflict("already-enrolled", "student already has an active enrollment")
			}
			return pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to create enrollment", err)
		}
		return nil
	})
}

// Get loads an enrollment by id.
func (r *GormEnrollmentRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Enrollment, error) {
	var model Enrollment
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("enrollment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to get enrollment", err)
	}
	return toDomain(&model), nil
}

// FindActive returns the active enrollment for the pair.
func (r *GormEnrollmentRepository) FindActive(ctx context.Context, studentID, courseID uuid.UUID) (*domain.Enrollment, error) {
	var model Enrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ? AND status = ?",
			studentID, courseID, string(domain.StatusActive)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("no active enrollment")
		}
		return nil, pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to find enrollment", err)
	}
	return toDomain(&model), nil
}

func enrollmentUpdates(enrollment *domain.Enrollment) map[string]interface{} {
	return map[string]interface{}{
		"status":       string(enrollment.Status),
		"progress":     enrollment.Progress,
		"completed_at": enrollment.CompletedAt,
		"dropped_at":   enrollment.DroppedAt,
		"updated_at":   enrollment.UpdatedAt,
	}
}

// Update persists changes to an existing enrollment.
func (r *GormEnrollmentRepository) Update(ctx context.Context, enrollment *domain.Enrollment) error {
	res := r.db.WithContext(ctx).Model(&Enrollment{}).
		Where("id = ?", enrollment.ID).
		Updates(enrollmentUpdates(enrollment))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to update enrollment", res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.NotFound("enrollment not found")
	}
	return nil
}

// UpdateAndRelease persists an enrollment leaving the active state and
// releases its seat from the course's counter in the same transaction, so
// the counter and the active rows cannot drift apart. The decrement floors
// at zero.
func (r *GormEnrollmentRepository) UpdateAndRelease(ctx context.Context, enrollment *domain.Enrollment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Enrollment{}).
			Where("id = ?", enrollment.ID).
			Updates(enrollmentUpdates(enrollment))
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to update enrollment", res.Error)
		}
		if res.RowsAffected == 0 {
			return pkgerrors.NotFound("enrollment not found")
		}

		res = tx.Exec(`
			UPDATE courses
			SET students_enrolled = CASE
				WHEN students_enrolled - 1 < 0 THEN 0
				ELSE students_enrolled - 1
			END
			WHERE id = ?`, enrollment.CourseID)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to release enrollment counter", res.Error)
		}
		if res.RowsAffected == 0 {
			return pkgerrors.NotFound("course not found")
		}
		return nil
	})
}

// ListByCourse returns a page of a course's enrollments, newest first.
func (r *GormEnrollmentRepository) ListByCourse(ctx context.Context, courseID uuid.UUID, limit, offset int) ([]*domain.Enrollment, int64, error) {
	query := r.db.WithContext(ctx).Model(&Enrollment{}).Where("course_id = ?", courseID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to count enrollments", err)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var models []Enrollment
	if err := query.Order("enrolled_at DESC").Find(&models).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to list enrollments", err)
	}

	enrollments := make([]*domain.Enrollment, len(models))
	for i := range models {
		enrollments[i] = toDomain(&models[i])
	}
	return enrollments, total, nil
}

// CountActiveByCourse returns the number of active enrollments.
func (r *GormEnrollmentRepository) CountActiveByCourse(ctx context.Context, courseID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Enrollment{}).
		Where("course_id = ? AND status = ?", courseID, string(domain.StatusActive)).
		Count(&count).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to count active enrollments", err)
	}
	return count, nil
}
