package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	catalogrepo "github.com/skolahq/skola/internal/catalog/repository"
	"github.com/skolahq/skola/internal/enrollment/domain"
	"github.com/skolahq/skola/internal/enrollment/repository"
	"github.com/skolahq/skola/internal/enrollment/service"
	"github.com/skolahq/skola/pkg/auth"
	"github.com/skolahq/skola/pkg/config"
	pkgerrors "github.com/skolahq/skola/pkg/errors"
	"github.com/skolahq/skola/pkg/events"
	"github.com/skolahq/skola/pkg/logger"
	"github.com/skolahq/skola/pkg/pagination"
	"github.com/skolahq/skola/pkg/utils"
	"github.com/skolahq/skola/test/testutil"
)

type EnrollmentServiceSuite struct {
	suite.Suite
	svc        *service.EnrollmentService
	courses    *catalogrepo.GormCourseRepository
	db         *gorm.DB
	bus        *events.InMemoryEventBus
	ctx        context.Context
	student    auth.Actor
	instructor auth.Actor
}

func (s *EnrollmentServiceSuite) SetupTest() {
	db := testutil.SetupTestDB(s.T())
	log := logger.NewNoop()

	s.db = db
	s.courses = catalogrepo.NewGormCourseRepository(db, log)
	s.bus = events.NewInMemoryEventBus(log)

	encoder, err := pagination.NewCursorEncoder("test-secret")
	s.Require().NoError(err)

	enrollments := repository.NewGormEnrollmentRepository(db, log)
	s.svc = service.NewEnrollmentService(
		enrollments, s.courses, utils.NewInMemoryCache(), s.bus, encoder, log, config.GetDefaults())

	s.ctx = context.Background()
	s.student = testutil.NewStudent()
	s.instructor = testutil.NewInstructor()
}

func (s *EnrollmentServiceSuite) TearDownTest() {
	s.Require().NoError(s.bus.Stop())
}

func TestEnrollmentServiceSuite(t *testing.T) {
	suite.Run(t, new(EnrollmentServiceSuite))
}

func (s *EnrollmentServiceSuite) publishedCourse() uuid.UUID {
	course := testutil.CreateTestCourse(s.T(), s.instructor.ID)
	testutil.PublishTestCourse(s.T(), course, testutil.NewAdministrator().ID)
	s.Require().NoError(s.courses.Create(s.ctx, course))
	return course.ID
}

func (s *EnrollmentServiceSuite) draftCourse() uuid.UUID {
	course := testutil.CreateTestCourse(s.T(), s.instructor.ID)
	s.Require().NoError(s.courses.Create(s.ctx, course))
	return course.ID
}

func (s *EnrollmentServiceSuite) studentsEnrolled(courseID uuid.UUID) int {
	got, err := s.courses.Get(s.ctx, courseID)
	s.Require().NoError(err)
	return got.StudentsEnrolled
}

func (s *EnrollmentServiceSuite) TestEnroll() {
	courseID := s.publishedCourse()

	enrollment, err := s.svc.Enroll(s.ctx, s.student, courseID)
	s.Require().NoError(err)
	s.Equal(domain.StatusActive, enrollment.Status)
	s.Equal(1, s.studentsEnrolled(courseID))
}

func (s *EnrollmentServiceSuite) TestEnroll_DuplicateConflicts() {
	courseID := s.publishedCourse()
	_, err := s.svc.Enroll(s.ctx, s.student, courseID)
	s.Require().NoError(err)

	_, err = s.svc.Enroll(s.ctx, s.student, courseID)
	s.True(pkgerrors.IsConflict(err))
	s.Equal("already-enrolled", pkgerrors.Reason(err))
	s.Equal(1, s.studentsEnrolled(courseID), "failed enroll must not move the counter")
}

func (s *EnrollmentServiceSuite) TestEnroll_UnpublishedForbidden() {
	courseID := s.draftCourse()

	_, err := s.svc.Enroll(s.ctx, s.student, courseID)
	s.True(pkgerrors.IsForbidden(err))
	s.Equal("not-published", pkgerrors.Reason(err))
}

func (s *EnrollmentServiceSuite) TestEnroll_InstructorForbidden() {
	courseID := s.publishedCourse()

	_, err := s.svc.Enroll(s.ctx, s.instructor, courseID)
	s.True(pkgerrors.IsForbidden(err))
	s.Equal("role-forbidden", pkgerrors.Reason(err))
}

func (s *EnrollmentServiceSuite) TestCancelReleasesSeat() {
	courseID := s.publishedCourse()
	_, err := s.svc.Enroll(s.ctx, s.student, courseID)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Cancel(s.ctx, s.student, courseID, uuid.Nil))
	s.Equal(0, s.studentsEnrolled(courseID))

	// No active enrollment left to cancel.
	s.True(pkgerrors.IsNotFound(s.svc.Cancel(s.ctx, s.student, courseID, uuid.Nil)))

	// The student may re-enroll after dropping.
	_, err = s.svc.Enroll(s.ctx, s.student, courseID)
	s.Require().NoError(err)
	s.Equal(1, s.studentsEnrolled(courseID))
}

func (s *EnrollmentServiceSuite) TestCancel_OnBehalf() {
	courseID := s.publishedCourse()
	_, err := s.svc.Enroll(s.ctx, s.student, courseID)
	s.Require().NoError(err)

	// A stranger cannot cancel another student's enrollment.
	err = s.svc.Cancel(s.ctx, testutil.NewInstructor(), courseID, s.student.ID)
	s.True(pkgerrors.IsForbidden(err))
	s.Equal("not-owner", pkgerrors.Reason(err))

	err = s.svc.Cancel(s.ctx, testutil.NewStudent(), courseID, s.student.ID)
	s.True(pkgerrors.IsForbidden(err))

	// The owning instructor can.
	s.Require().NoError(s.svc.Cancel(s.ctx, s.instructor, courseID, s.student.ID))
	s.Equal(0, s.studentsEnrolled(courseID))

	// So can an administrator.
	_, err = s.svc.Enroll(s.ctx, s.student, courseID)
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Cancel(s.ctx, testutil.NewAdministrator(), courseID, s.student.ID))
	s.Equal(0, s.studentsEnrolled(courseID))
}

func (s *EnrollmentServiceSuite) TestCancel_CounterFailureRollsBack() {
	courseID := s.publishedCourse()
	_, err := s.svc.Enroll(s.ctx, s.student, courseID)
	s.Require().NoError(err)

	// Make the counter decrement fail; the drop must not commit without it.
	s.Require().NoError(s.db.Exec("ALTER TABLE courses RENAME TO courses_hidden").Error)
	err = s.svc.Cancel(s.ctx, s.student, courseID, uuid.Nil)
	s.Require().Error(err)
	s.Require().NoError(s.db.Exec("ALTER TABLE courses_hidden RENAME TO courses").Error)

	s.Equal(1, s.studentsEnrolled(courseID), "failed cancel must not move the counter")

	// The enrollment is still active, so the cancel can simply be retried.
	s.Require().NoError(s.svc.Cancel(s.ctx, s.student, courseID, uuid.Nil))
	s.Equal(0, s.studentsEnrolled(courseID))
}

func (s *EnrollmentServiceSuite) TestUpdateProgress_CounterFailureRollsBack() {
	courseID := s.publishedCourse()
	_, err := s.svc.Enroll(s.ctx, s.student, courseID)
	s.Require().NoError(err)

	s.Require().NoError(s.db.Exec("ALTER TABLE courses RENAME TO courses_hidden").Error)
	_, err = s.svc.UpdateProgress(s.ctx, s.student, courseID, 100)
	s.Require().Error(err)
	s.Require().NoError(s.db.Exec("ALTER TABLE courses_hidden RENAME TO courses").Error)

	// The completion did not commit either; the seat is still held.
	s.Equal(1, s.studentsEnrolled(courseID))

	enrollment, err := s.svc.UpdateProgress(s.ctx, s.student, courseID, 100)
	s.Require().NoError(err)
	s.Equal(domain.StatusCompleted, enrollment.Status)
	s.Equal(0, s.studentsEnrolled(courseID))
}

func (s *EnrollmentServiceSuite) TestUpdateProgress() {
	courseID := s.publishedCourse()
	_, err := s.svc.Enroll(s.ctx, s.student, courseID)
	s.Require().NoError(err)

	enrollment, err := s.svc.UpdateProgress(s.ctx, s.student, courseID, 60)
	s.Require().NoError(err)
	s.Equal(60, enrollment.Progress)
	s.Equal(1, s.studentsEnrolled(courseID))

	enrollment, err = s.svc.UpdateProgress(s.ctx, s.student, courseID, 100)
	s.Require().NoError(err)
	s.Equal(domain.StatusCompleted, enrollment.Status)
	s.Equal(0, s.studentsEnrolled(courseID), "completion releases the active seat")
}

func (s *EnrollmentServiceSuite) TestUpdateProgress_NotEnrolled() {
	courseID := s.publishedCourse()
	_, err := s.svc.UpdateProgress(s.ctx, s.student, courseID, 10)
	s.True(pkgerrors.IsNotFound(err))
}

func (s *EnrollmentServiceSuite) TestListRoster_Access() {
	courseID := s.publishedCourse()
	for i := 0; i < 3; i++ {
		_, err := s.svc.Enroll(s.ctx, testutil.NewStudent(), courseID)
		s.Require().NoError(err)
	}

	roster, err := s.svc.ListRoster(s.ctx, s.instructor, courseID, 10, "")
	s.Require().NoError(err)
	s.Equal(int64(3), roster.TotalCount)

	_, err = s.svc.ListRoster(s.ctx, testutil.NewInstructor(), courseID, 10, "")
	s.True(pkgerrors.IsForbidden(err))
	s.Equal("not-owner", pkgerrors.Reason(err))

	_, err = s.svc.ListRoster(s.ctx, s.student, courseID, 10, "")
	s.True(pkgerrors.IsForbidden(err))

	_, err = s.svc.ListRoster(s.ctx, testutil.NewAdministrator(), courseID, 10, "")
	s.Require().NoError(err)
}
