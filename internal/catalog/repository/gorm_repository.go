package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skolahq/skola/internal/catalog/domain"
	pkgerrors "github.com/skolahq/skola/pkg/errors"
	"github.com/skolahq/skola/pkg/interfaces"
)

// GormCourseRepository is the gorm-backed CourseRepository.
type GormCourseRepository struct {
	db     *gorm.DB
	logger interfaces.Logger
}

// NewGormCourseRepository creates a new course repository.
func NewGormCourseRepository(db *gorm.DB, logger interfaces.Logger) *GormCourseRepository {
	return &GormCourseRepository{db: db, logger: logger}
}

// Create stores a new aggregate, children included.
func (r *GormCourseRepository) Create(ctx context.Context, course *domain.Course) error {
	model := toModel(course)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if pkgerrors.IsDuplicateError(err) {
			return pkgerrors.Conflict("duplicate-course", "course already exists")
		}
		return pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to create course", err)
	}
	return nil
}

// Get loads the full aggregate with both child collections in display order.
func (r *GormCourseRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	var model Course
	err := r.db.WithContext(ctx).
		Preload("Videos", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Activities", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("course not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to get course", err)
	}
	return toDomain(&model), nil
}

// Save replaces the stored aggregate, conditioned on the version the caller
// loaded. The root row update carries the version guard; child rows are
// replaced wholesale inside the same transaction, so a lost race never leaves
// a half-written aggregate behind.
func (r *GormCourseRepository) Save(ctx context.Context, course *domain.Course, expectedVersion int) error {
	model := toModel(course)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Course{}).
			Where("id = ? AND version = ?", course.ID, expectedVersion).
			Updates(map[string]interface{}{
				"instructor_id":       model.InstructorID,
				"state":               model.State,
				"submitted_at":        model.SubmittedAt,
				"approved_at":         model.ApprovedAt,
				"approved_by":         model.ApprovedBy,
				"rejection_reason":    model.RejectionReason,
				"title":               model.Title,
				"description":         model.Description,
				"thumbnail":           model.Thumbnail,
				"category":            model.Category,
				"level":               model.Level,
				"price":               model.Price,
				"duration":            model.Duration,
				"requirements":        model.Requirements,
				"learning_objectives": model.LearningObjectives,
				"rating":              model.Rating,
				"is_published":        model.IsPublished,
				"version":             expectedVersion + 1,
				"updated_at":          model.UpdatedAt,
			})
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to update course", res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&Course{}).Where("id = ?", course.ID).Count(&count).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to check course existence", err)
			}
			if count == 0 {
				return pkgerrors.NotFound("course not found")
			}
			return pkgerrors.Conflict("stale-version", "course was modified concurrently")
		}

		if err := tx.Where("course_id = ?", course.ID).Delete(&Video{}).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to replace videos", err)
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&Activity{}).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to replace activities", err)
		}
		if len(model.Videos) > 0 {
			if err := tx.Create(&model.Videos).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to insert videos", err)
			}
		}
		if len(model.Activities) > 0 {
			if err := tx.Create(&model.Activities).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to insert activities", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	course.Version = expectedVersion + 1
	return nil
}

// Delete removes the aggregate and its children.
func (r *GormCourseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", id).Delete(&Video{}).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to delete videos", err)
		}
		if err := tx.Where("course_id = ?", id).Delete(&Activity{}).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to delete activities", err)
		}

		res := tx.Delete(&Course{}, "id = ?", id)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to delete course", res.Error)
		}
		if res.RowsAffected == 0 {
			return pkgerrors.NotFound("course not found")
		}
		return nil
	})
}

// List returns matching aggregates plus the unpaged total count.
func (r *GormCourseRepository) List(ctx context.Context, filter ListFilter) ([]*domain.Course, int64, error) {
	query := r.db.WithContext(ctx).Model(&Course{})

	if filter.InstructorID != uuid.Nil {
		query = query.Where("instructor_id = ?", filter.InstructorID)
	}
	if filter.State != "" {
		query = query.Where("state = ?", string(filter.State))
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to count courses", err)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var models []Course
	err := query.
		Preload("Videos", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Activities", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to list courses", err)
	}

	courses := make([]*domain.Course, len(models))
	for i := range models {
		courses[i] = toDomain(&models[i])
	}
	return courses, total, nil
}

// AdjustEnrollmentCount atomically shifts the denormalized counter, never
// letting it drop below zero. The CASE expression is portable across postgres
// and sqlite.
func (r *GormCourseRepository) AdjustEnrollmentCount(ctx context.Context, id uuid.UUID, delta int) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE courses
		SET students_enrolled = CASE
			WHEN students_enrolled + ? < 0 THEN 0
			ELSE students_enrolled + ?
		END
		WHERE id = ?`, delta, delta, id)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to adjust enrollment count", res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.NotFound("course not found")
	}
	return nil
}
