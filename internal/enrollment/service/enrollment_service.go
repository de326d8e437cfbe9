package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	catalogdomain "github.com/skolahq/skola/internal/catalog/domain"
	catalogrepo "github.com/skolahq/skola/internal/catalog/repository"
	"github.com/skolahq/skola/internal/enrollment/domain"
	"github.com/skolahq/skola/internal/enrollment/repository"
	"github.com/skolahq/skola/pkg/auth"
	"github.com/skolahq/skola/pkg/config"
	pkgerrors "github.com/skolahq/skola/pkg/errors"
	"github.com/skolahq/skola/pkg/interfaces"
	"github.com/skolahq/skola/pkg/pagination"
)

// EnrollmentService implements enrollment use cases. It leans on the catalog
// for authorization decisions and keeps the course's denormalized enrollment
// counter in step with the active enrollments it manages.
type EnrollmentService struct {
	enrollments repository.EnrollmentRepository
	courses     catalogrepo.CourseRepository
	cache       interfaces.Cache
	eventBus    interfaces.EventBus
	encoder     *pagination.CursorEncoder
	logger      interfaces.Logger
	pagination  config.PaginationConfig
}

// NewEnrollmentService creates a new enrollment service.
func NewEnrollmentService(
	enrollments repository.EnrollmentRepository,
	courses catalogrepo.CourseRepository,
	cache interfaces.Cache,
	eventBus interfaces.EventBus,
	encoder *pagination.CursorEncoder,
	logger interfaces.Logger,
	cfg *config.BaseConfig,
) *EnrollmentService {
	return &EnrollmentService{
		enrollments: enrollments,
		courses:     courses,
		cache:       cache,
		eventBus:    eventBus,
		encoder:     encoder,
		logger:      logger,
		pagination:  cfg.Pagination,
	}
}

// adjustCounter moves the course's denormalized enrollment counter and drops
// the cached aggregate so readers see the new total.
func (s *EnrollmentService) adjustCounter(ctx context.Context, courseID uuid.UUID, delta int) error {
	if err := s.courses.AdjustEnrollmentCount(ctx, courseID, delta); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, catalogrepo.CourseCacheKey(courseID))
	return nil
}

// Roster is one page of a course's enrollments.
type Roster struct {
	Enrollments   []*domain.Enrollment `json:"enrollments"`
	TotalCount    int64                `json:"total_count"`
	NextPageToken string               `json:"next_page_token,omitempty"`
}

func authorize(actor auth.Actor, op catalogdomain.Operation, course *catalogdomain.Course) error {
	decision := catalogdomain.Decide(actor, op, course)
	if decision.Allowed {
		return nil
	}
	return pkgerrors.Forbidden(decision.Reason, fmt.Sprintf("operation %s denied", op))
}

// Enroll enrolls the acting student in a published course. The course's
// enrollment counter moves in the same call; a failed counter update rolls
// the enrollment back so the two never drift.
func (s *EnrollmentService) Enroll(ctx context.Context, actor auth.Actor, courseID uuid.UUID) (*domain.Enrollment, error) {
	course, err := s.courses.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, catalogdomain.OpEnroll, course); err != nil {
		return nil, err
	}
	if !course.IsPublished {
		return nil, pkgerrors.Forbidden(catalogdomain.ReasonNotPublished, "course is not open for enrollment")
	}

	enrollment, err := domain.NewEnrollment(actor.ID, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		return nil, err
	}

	if err := s.adjustCounter(ctx, courseID, 1); err != nil {
		s.logger.Error("failed to bump enrollment counter, rolling enrollment back",
			interfaces.String("enrollment_id", enrollment.ID.String()),
			interfaces.Error(err))
		if dropErr := enrollment.Drop(); dropErr == nil {
			_ = s.enrollments.Update(ctx, enrollment)
		}
		return nil, err
	}

	s.logger.Info("student enrolled",
		interfaces.String("student_id", actor.ID.String()),
		interfaces.String("course_id", courseID.String()))
	s.eventBus.PublishAsync(ctx, domain.EnrollmentCreatedEvent(enrollment))
	return enrollment, nil
}

// Cancel drops a student's active enrollment and releases their seat in the
// counter. The enrolled student cancels for themselves; the course owner and
// administrators may cancel on a student's behalf.
func (s *EnrollmentService) Cancel(ctx context.Context, actor auth.Actor, courseID, studentID uuid.UUID) error {
	if studentID == uuid.Nil {
		studentID = actor.ID
	}
	if actor.ID != studentID && !actor.IsAdministrator() {
		course, err := s.courses.Get(ctx, courseID)
		if err != nil {
			return err
		}
		if !actor.IsInstructor() || actor.ID != course.InstructorID {
			return pkgerrors.Forbidden(catalogdomain.ReasonNotOwner,
				"only the student, the course owner, or an administrator may cancel an enrollment")
		}
	}

	enrollment, err := s.enrollments.FindActive(ctx, studentID, courseID)
	if err != nil {
		return err
	}

	if err := enrollment.Drop(); err != nil {
		return err
	}
	if err := s.enrollments.UpdateAndRelease(ctx, enrollment); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, catalogrepo.CourseCacheKey(courseID))

	s.eventBus.PublishAsync(ctx, domain.EnrollmentDroppedEvent(enrollment))
	return nil
}

// UpdateProgress records the acting student's progress in the course.
// Hitting 100 percent completes the enrollment, which stops counting toward
// the course's active total.
func (s *EnrollmentService) UpdateProgress(ctx context.Context, actor auth.Actor, courseID uuid.UUID, percent int) (*domain.Enrollment, error) {
	enrollment, err := s.enrollments.FindActive(ctx, actor.ID, courseID)
	if err != nil {
		return nil, err
	}

	if err := enrollment.UpdateProgress(percent); err != nil {
		return nil, err
	}

	if enrollment.Status == domain.StatusCompleted {
		if err := s.enrollments.UpdateAndRelease(ctx, enrollment); err != nil {
			return nil, err
		}
		_ = s.cache.Delete(ctx, catalogrepo.CourseCacheKey(courseID))
		s.eventBus.PublishAsync(ctx, domain.EnrollmentCompletedEvent(enrollment))
		return enrollment, nil
	}

	if err := s.enrollments.Update(ctx, enrollment); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// GetOwn returns the acting student's active enrollment in the course.
func (s *EnrollmentService) GetOwn(ctx context.Context, actor auth.Actor, courseID uuid.UUID) (*domain.Enrollment, error) {
	return s.enrollments.FindActive(ctx, actor.ID, courseID)
}

// ListRoster returns a page of the course's enrollments, history included.
// Only the course owner and administrators may see it.
func (s *EnrollmentService) ListRoster(ctx context.Context, actor auth.Actor, courseID uuid.UUID, pageSize int, pageToken string) (*Roster, error) {
	course, err := s.courses.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, catalogdomain.OpReadRoster, course); err != nil {
		return nil, err
	}

	if pageSize <= 0 {
		pageSize = s.pagination.DefaultPageSize
	}
	if pageSize > s.pagination.MaxPageSize {
		pageSize = s.pagination.MaxPageSize
	}

	offset, err := pagination.CalculateOffset(s.encoder, pageToken, 0)
	if err != nil {
		return nil, pkgerrors.Invalid(err.Error())
	}

	enrollments, total, err := s.enrollments.ListByCourse(ctx, courseID, pageSize, offset)
	if err != nil {
		return nil, err
	}

	next, err := pagination.GenerateNextPageToken(s.encoder, offset, pageSize, int(total))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to generate page token", err)
	}

	return &Roster{Enrollments: enrollments, TotalCount: total, NextPageToken: next}, nil
}
