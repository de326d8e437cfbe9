package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/skolahq/skola/internal/catalog/domain"
	"github.com/skolahq/skola/internal/catalog/repository"
	"github.com/skolahq/skola/pkg/auth"
	"github.com/skolahq/skola/pkg/config"
	pkgerrors "github.com/skolahq/skola/pkg/errors"
	"github.com/skolahq/skola/pkg/interfaces"
	"github.com/skolahq/skola/pkg/pagination"
)

// CourseService implements the course catalog use cases: authoring, the
// moderation workflow, and read-side queries. Every operation takes the
// acting user explicitly and consults the policy engine before touching the
// aggregate.
type CourseService struct {
	repo     repository.CourseRepository
	cache    interfaces.Cache
	eventBus interfaces.EventBus
	media    interfaces.MediaStore
	encoder  *pagination.CursorEncoder
	logger   interfaces.Logger

	settings   config.CatalogSettings
	pagination config.PaginationConfig
}

// NewCourseService creates a new course service.
func NewCourseService(
	repo repository.CourseRepository,
	cache interfaces.Cache,
	eventBus interfaces.EventBus,
	media interfaces.MediaStore,
	encoder *pagination.CursorEncoder,
	logger interfaces.Logger,
	cfg *config.CatalogConfig,
) *CourseService {
	return &CourseService{
		repo:       repo,
		cache:      cache,
		eventBus:   eventBus,
		media:      media,
		encoder:    encoder,
		logger:     logger,
		settings:   cfg.Catalog,
		pagination: cfg.Pagination,
	}
}

// CreateCourseInput carries the attributes for a new course. InstructorID is
// only honored for administrators creating a course on an instructor's
// behalf; everyone else creates for themselves.
type CreateCourseInput struct {
	Title        string
	InstructorID uuid.UUID
}

// CourseList is one page of a course listing.
type CourseList struct {
	Courses       []*domain.Course `json:"courses"`
	TotalCount    int64            `json:"total_count"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

// ListQuery narrows and pages a course listing.
type ListQuery struct {
	InstructorID uuid.UUID
	State        domain.State
	Category     string
	PageSize     int
	PageToken    string
}

// CourseAnalytics is the owner-facing summary of a course's performance.
type CourseAnalytics struct {
	CourseID           uuid.UUID `json:"course_id"`
	StudentsEnrolled   int       `json:"students_enrolled"`
	Rating             float64   `json:"rating"`
	VideoCount         int       `json:"video_count"`
	ActivityCount      int       `json:"activity_count"`
	TotalVideoDuration int       `json:"total_video_duration"` // seconds
}

// authorize maps a policy denial onto the error taxonomy.
func authorize(actor auth.Actor, op domain.Operation, course *domain.Course) error {
	decision := domain.Decide(actor, op, course)
	if decision.Allowed {
		return nil
	}
	return pkgerrors.Forbidden(decision.Reason, fmt.Sprintf("operation %s denied", op))
}

// CreateCourse creates a draft course. Instructors author for themselves;
// administrators may create on behalf of an instructor, and the result still
// starts in draft.
func (s *CourseService) CreateCourse(ctx context.Context, actor auth.Actor, input CreateCourseInput) (*domain.Course, error) {
	instructorID := actor.ID
	switch {
	case actor.IsAdministrator():
		if input.InstructorID != uuid.Nil {
			instructorID = input.InstructorID
		}
	case actor.IsInstructor():
		if input.InstructorID != uuid.Nil && input.InstructorID != actor.ID {
			return nil, pkgerrors.Forbidden(domain.ReasonNotOwner, "instructors create courses for themselves")
		}
	default:
		return nil, pkgerrors.Forbidden(domain.ReasonRoleForbidden, "only instructors create courses")
	}

	course, err := domain.NewCourse(instructorID, input.Title)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, err
	}

	s.logger.Info("course created",
		interfaces.String("course_id", course.ID.String()),
		interfaces.String("instructor_id", instructorID.String()))
	s.eventBus.PublishAsync(ctx, domain.CourseCreatedEvent(course))
	return course, nil
}

// GetCourse loads a course the actor is allowed to see. Published courses
// are served from cache when possible.
func (s *CourseService) GetCourse(ctx context.Context, actor auth.Actor, id uuid.UUID) (*domain.Course, error) {
	if cached, err := s.cache.Get(ctx, repository.CourseCacheKey(id)); err == nil {
		if course, ok := cached.(*domain.Course); ok {
			if err := authorize(actor, domain.OpRead, course); err != nil {
				return nil, err
			}
			return course, nil
		}
	}

	course, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, domain.OpRead, course); err != nil {
		return nil, err
	}

	// Only the immutable-ish published form is worth caching; drafts churn.
	if course.IsPublished {
		_ = s.cache.Set(ctx, repository.CourseCacheKey(id), course, s.settings.CourseCacheTTL)
	}
	return course, nil
}

// ListCourses returns a page of courses. Students and anonymous roles only
// ever see the published catalog; instructors additionally see their own
// courses in any state; administrators see everything.
func (s *CourseService) ListCourses(ctx context.Context, actor auth.Actor, query ListQuery) (*CourseList, error) {
	filter := repository.ListFilter{
		InstructorID: query.InstructorID,
		State:        query.State,
		Category:     query.Category,
	}

	switch {
	case actor.IsAdministrator():
		// No visibility constraint.
	case actor.IsInstructor() && query.InstructorID == actor.ID:
		// Own courses, all states.
	default:
		filter.PublishedOnly = true
		filter.State = ""
	}

	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = s.pagination.DefaultPageSize
	}
	if pageSize > s.pagination.MaxPageSize {
		pageSize = s.pagination.MaxPageSize
	}

	offset, err := pagination.CalculateOffset(s.encoder, query.PageToken, 0)
	if err != nil {
		return nil, pkgerrors.Invalid(err.Error())
	}
	filter.Limit = pageSize
	filter.Offset = offset

	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	next, err := pagination.GenerateNextPageToken(s.encoder, offset, pageSize, int(total))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to generate page token", err)
	}

	return &CourseList{Courses: courses, TotalCount: total, NextPageToken: next}, nil
}

// mutate loads the aggregate, authorizes the operation, applies fn, and
// saves conditioned on the loaded version. A concurrent writer surfaces as a
// Conflict, never as silently merged state.
func (s *CourseService) mutate(ctx context.Context, actor auth.Actor, op domain.Operation, id uuid.UUID, fn func(*domain.Course) error) (*domain.Course, error) {
	course, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, op, course); err != nil {
		return nil, err
	}

	loadedVersion := course.Version
	if err := fn(course); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, course, loadedVersion); err != nil {
		return nil, err
	}

	_ = s.cache.Delete(ctx, repository.CourseCacheKey(id))
	return course, nil
}

// UpdateCourse merges a listing patch into the course.
func (s *CourseService) UpdateCourse(ctx context.Context, actor auth.Actor, id uuid.UUID, patch domain.CoursePatch) (*domain.Course, error) {
	return s.mutate(ctx, actor, domain.OpUpdate, id, func(c *domain.Course) error {
		return c.Apply(patch)
	})
}

// DeleteCourse removes a course. Instructors may only delete drafts;
// administrators may delete a course in any state.
func (s *CourseService) DeleteCourse(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	course, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(actor, domain.OpDelete, course); err != nil {
		return err
	}
	if !actor.IsAdministrator() && course.State != domain.StateDraft {
		return pkgerrors.Forbidden("not-draft", "only draft courses can be deleted by their instructor")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, repository.CourseCacheKey(id))

	s.logger.Info("course deleted",
		interfaces.String("course_id", id.String()),
		interfaces.String("actor_id", actor.ID.String()))
	return nil
}

// AddVideo appends or inserts a video into the course.
func (s *CourseService) AddVideo(ctx context.Context, actor auth.Actor, courseID uuid.UUID, draft domain.VideoDraft) (*domain.Video, error) {
	var video *domain.Video
	_, err := s.mutate(ctx, actor, domain.OpAddChild, courseID, func(c *domain.Course) error {
		if len(c.Videos) >= s.settings.MaxVideosPerCourse {
			return pkgerrors.Invalid("course has reached the maximum number of videos")
		}
		v, err := c.AddVideo(draft)
		if err != nil {
			return err
		}
		video = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return video, nil
}

// UpdateVideo merges a patch over a video.
func (s *CourseService) UpdateVideo(ctx context.Context, actor auth.Actor, courseID, videoID uuid.UUID, patch domain.VideoPatch) (*domain.Video, error) {
	var video *domain.Video
	_, err := s.mutate(ctx, actor, domain.OpUpdateChild, courseID, func(c *domain.Course) error {
		v, err := c.UpdateVideo(videoID, patch)
		if err != nil {
			return err
		}
		video = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return video, nil
}

// RemoveVideo removes a video from the course.
func (s *CourseService) RemoveVideo(ctx context.Context, actor auth.Actor, courseID, videoID uuid.UUID) error {
	_, err := s.mutate(ctx, actor, domain.OpRemoveChild, courseID, func(c *domain.Course) error {
		return c.RemoveVideo(videoID)
	})
	return err
}

// AddActivity appends or inserts an activity into the course.
func (s *CourseService) AddActivity(ctx context.Context, actor auth.Actor, courseID uuid.UUID, draft domain.ActivityDraft) (*domain.Activity, error) {
	var activity *domain.Activity
	_, err := s.mutate(ctx, actor, domain.OpAddChild, courseID, func(c *domain.Course) error {
		if len(c.Activities) >= s.settings.MaxActivitiesPerCourse {
			return pkgerrors.Invalid("course has reached the maximum number of activities")
		}
		a, err := c.AddActivity(draft)
		if err != nil {
			return err
		}
		activity = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activity, nil
}

// UpdateActivity merges a patch over an activity.
func (s *CourseService) UpdateActivity(ctx context.Context, actor auth.Actor, courseID, activityID uuid.UUID, patch domain.ActivityPatch) (*domain.Activity, error) {
	var activity *domain.Activity
	_, err := s.mutate(ctx, actor, domain.OpUpdateChild, courseID, func(c *domain.Course) error {
		a, err := c.UpdateActivity(activityID, patch)
		if err != nil {
			return err
		}
		activity = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activity, nil
}

// RemoveActivity removes an activity from the course.
func (s *CourseService) RemoveActivity(ctx context.Context, actor auth.Actor, courseID, activityID uuid.UUID) error {
	_, err := s.mutate(ctx, actor, domain.OpRemoveChild, courseID, func(c *domain.Course) error {
		return c.RemoveActivity(activityID)
	})
	return err
}

// SubmitForApproval sends the course into moderation.
func (s *CourseService) SubmitForApproval(ctx context.Context, actor auth.Actor, id uuid.UUID) (*domain.Course, error) {
	course, err := s.mutate(ctx, actor, domain.OpSubmit, id, func(c *domain.Course) error {
		return c.Transition(domain.VerbSubmit, uuid.Nil, "")
	})
	if err != nil {
		return nil, err
	}
	s.eventBus.PublishAsync(ctx, domain.CourseSubmittedEvent(course))
	return course, nil
}

// ApproveCourse records the reviewer's approval.
func (s *CourseService) ApproveCourse(ctx context.Context, actor auth.Actor, id uuid.UUID) (*domain.Course, error) {
	course, err := s.mutate(ctx, actor, domain.OpApprove, id, func(c *domain.Course) error {
		return c.Transition(domain.VerbApprove, actor.ID, "")
	})
	if err != nil {
		return nil, err
	}
	s.eventBus.PublishAsync(ctx, domain.CourseApprovedEvent(course))
	return course, nil
}

// RejectCourse sends the course back to its instructor with a reason.
func (s *CourseService) RejectCourse(ctx context.Context, actor auth.Actor, id uuid.UUID, reason string) (*domain.Course, error) {
	course, err := s.mutate(ctx, actor, domain.OpReject, id, func(c *domain.Course) error {
		return c.Transition(domain.VerbReject, uuid.Nil, reason)
	})
	if err != nil {
		return nil, err
	}
	s.eventBus.PublishAsync(ctx, domain.CourseRejectedEvent(course))
	return course, nil
}

// PublishCourse makes an approved course publicly visible.
func (s *CourseService) PublishCourse(ctx context.Context, actor auth.Actor, id uuid.UUID) (*domain.Course, error) {
	course, err := s.mutate(ctx, actor, domain.OpPublish, id, func(c *domain.Course) error {
		return c.Transition(domain.VerbPublish, uuid.Nil, "")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("course published",
		interfaces.String("course_id", course.ID.String()),
		interfaces.String("title", course.Title))
	s.eventBus.PublishAsync(ctx, domain.CoursePublishedEvent(course))
	return course, nil
}

// GetAnalytics returns the owner-facing performance summary.
func (s *CourseService) GetAnalytics(ctx context.Context, actor auth.Actor, id uuid.UUID) (*CourseAnalytics, error) {
	course, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, domain.OpReadAnalytics, course); err != nil {
		return nil, err
	}

	totalDuration := 0
	for _, v := range course.Videos {
		totalDuration += v.Duration
	}

	return &CourseAnalytics{
		CourseID:           course.ID,
		StudentsEnrolled:   course.StudentsEnrolled,
		Rating:             course.Rating,
		VideoCount:         len(course.Videos),
		ActivityCount:      len(course.Activities),
		TotalVideoDuration: totalDuration,
	}, nil
}

// VideoUploadURL hands the course owner a presigned URL to upload a video
// file directly to object storage.
func (s *CourseService) VideoUploadURL(ctx context.Context, actor auth.Actor, courseID uuid.UUID, filename, contentType string) (string, error) {
	course, err := s.repo.Get(ctx, courseID)
	if err != nil {
		return "", err
	}
	if err := authorize(actor, domain.OpAddChild, course); err != nil {
		return "", err
	}
	if !course.IsContentMutable() {
		return "", pkgerrors.IllegalTransition("edit", string(course.State))
	}
	if filename == "" {
		return "", pkgerrors.Invalid("filename is required")
	}

	key := fmt.Sprintf("courses/%s/videos/%s-%s", courseID, uuid.New(), filename)
	url, err := s.media.PresignUpload(ctx, key, contentType)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.ErrorTypeInternal, "failed to presign upload", err)
	}
	return url, nil
}
