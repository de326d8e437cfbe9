package repository_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/skolahq/skola/internal/catalog/domain"
	"github.com/skolahq/skola/internal/catalog/repository"
	pkgerrors "github.com/skolahq/skola/pkg/errors"
	"github.com/skolahq/skola/pkg/logger"
	"github.com/skolahq/skola/test/testutil"
)

type CourseRepositorySuite struct {
	suite.Suite
	repo *repository.GormCourseRepository
	ctx  context.Context
}

func (s *CourseRepositorySuite) SetupTest() {
	db := testutil.SetupTestDB(s.T())
	s.repo = repository.NewGormCourseRepository(db, logger.NewNoop())
	s.ctx = context.Background()
}

func TestCourseRepositorySuite(t *testing.T) {
	suite.Run(t, new(CourseRepositorySuite))
}

func (s *CourseRepositorySuite) TestCreateAndGetRoundTrip() {
	course := testutil.CreateTestCourse(s.T(), uuid.New())
	course.Requirements = []string{"a laptop", "curiosity"}
	_, err := course.AddActivity(domain.ActivityDraft{Title: "Quiz", Type: domain.ActivityQuiz, MaxScore: 10})
	s.Require().NoError(err)

	s.Require().NoError(s.repo.Create(s.ctx, course))

	got, err := s.repo.Get(s.ctx, course.ID)
	s.Require().NoError(err)
	s.Equal(course.Title, got.Title)
	s.Equal(course.InstructorID, got.InstructorID)
	s.Equal(domain.StateDraft, got.State)
	s.Equal([]string{"a laptop", "curiosity"}, got.Requirements)
	s.Require().Len(got.Videos, 1)
	s.Equal(1, got.Videos[0].Order)
	s.Require().Len(got.Activities, 1)
	s.Equal(domain.ActivityQuiz, got.Activities[0].Type)
	s.Equal(1, got.Version)
}

func (s *CourseRepositorySuite) TestGetMissing() {
	_, err := s.repo.Get(s.ctx, uuid.New())
	s.True(pkgerrors.IsNotFound(err))
}

func (s *CourseRepositorySuite) TestSaveBumpsVersion() {
	course := testutil.CreateTestCourse(s.T(), uuid.New())
	s.Require().NoError(s.repo.Create(s.ctx, course))

	course.Title = "Renamed"
	_, err := course.AddVideo(domain.VideoDraft{Title: "Second"})
	s.Require().NoError(err)

	s.Require().NoError(s.repo.Save(s.ctx, course, 1))
	s.Equal(2, course.Version)

	got, err := s.repo.Get(s.ctx, course.ID)
	s.Require().NoError(err)
	s.Equal("Renamed", got.Title)
	s.Equal(2, got.Version)
	s.Len(got.Videos, 2)
}

func (s *CourseRepositorySuite) TestSaveStaleVersionConflicts() {
	course := testutil.CreateTestCourse(s.T(), uuid.New())
	s.Require().NoError(s.repo.Create(s.ctx, course))

	first, err := s.repo.Get(s.ctx, course.ID)
	s.Require().NoError(err)
	second, err := s.repo.Get(s.ctx, course.ID)
	s.Require().NoError(err)

	first.Title = "Winner"
	s.Require().NoError(s.repo.Save(s.ctx, first, first.Version))

	second.Title = "Loser"
	err = s.repo.Save(s.ctx, second, second.Version)
	s.True(pkgerrors.IsConflict(err))
	s.Equal("stale-version", pkgerrors.Reason(err))

	got, err := s.repo.Get(s.ctx, course.ID)
	s.Require().NoError(err)
	s.Equal("Winner", got.Title, "losing write must not change the aggregate")
	s.Equal(2, got.Version)
}

func (s *CourseRepositorySuite) TestSaveMissingCourse() {
	course := testutil.CreateTestCourse(s.T(), uuid.New())
	err := s.repo.Save(s.ctx, course, 1)
	s.True(pkgerrors.IsNotFound(err))
}

func (s *CourseRepositorySuite) TestDeleteRemovesChildren() {
	course := testutil.CreateTestCourse(s.T(), uuid.New())
	s.Require().NoError(s.repo.Create(s.ctx, course))

	s.Require().NoError(s.repo.Delete(s.ctx, course.ID))

	_, err := s.repo.Get(s.ctx, course.ID)
	s.True(pkgerrors.IsNotFound(err))

	s.True(pkgerrors.IsNotFound(s.repo.Delete(s.ctx, course.ID)))
}

func (s *CourseRepositorySuite) TestListFilters() {
	instructor := uuid.New()
	mine := testutil.CreateTestCourse(s.T(), instructor)
	s.Require().NoError(s.repo.Create(s.ctx, mine))

	published := testutil.CreateTestCourse(s.T(), uuid.New())
	testutil.PublishTestCourse(s.T(), published, uuid.New())
	s.Require().NoError(s.repo.Create(s.ctx, published))

	courses, total, err := s.repo.List(s.ctx, repository.ListFilter{InstructorID: instructor})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(courses, 1)
	s.Equal(mine.ID, courses[0].ID)

	courses, total, err = s.repo.List(s.ctx, repository.ListFilter{PublishedOnly: true})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(courses, 1)
	s.Equal(published.ID, courses[0].ID)

	_, total, err = s.repo.List(s.ctx, repository.ListFilter{})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
}

func (s *CourseRepositorySuite) TestAdjustEnrollmentCount() {
	course := testutil.CreateTestCourse(s.T(), uuid.New())
	s.Require().NoError(s.repo.Create(s.ctx, course))

	s.Require().NoError(s.repo.AdjustEnrollmentCount(s.ctx, course.ID, 1))
	s.Require().NoError(s.repo.AdjustEnrollmentCount(s.ctx, course.ID, 1))

	got, err := s.repo.Get(s.ctx, course.ID)
	s.Require().NoError(err)
	s.Equal(2, got.StudentsEnrolled)

	// Decrementing past zero floors at zero instead of going negative.
	s.Require().NoError(s.repo.AdjustEnrollmentCount(s.ctx, course.ID, -5))
	got, err = s.repo.Get(s.ctx, course.ID)
	s.Require().NoError(err)
	s.Equal(0, got.StudentsEnrolled)

	s.True(pkgerrors.IsNotFound(s.repo.AdjustEnrollmentCount(s.ctx, uuid.New(), 1)))
}
