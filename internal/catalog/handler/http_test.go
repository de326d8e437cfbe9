package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"

	"github.com/skolahq/skola/internal/catalog/handler"
	"github.com/skolahq/skola/internal/catalog/repository"
	"github.com/skolahq/skola/internal/catalog/service"
	"github.com/skolahq/skola/pkg/auth"
	"github.com/skolahq/skola/pkg/config"
	"github.com/skolahq/skola/pkg/events"
	"github.com/skolahq/skola/pkg/logger"
	"github.com/skolahq/skola/pkg/middleware"
	"github.com/skolahq/skola/pkg/pagination"
	"github.com/skolahq/skola/pkg/utils"
	"github.com/skolahq/skola/test/testutil"
)

type stubMediaStore struct{}

func (s *stubMediaStore) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	return "https://media.test/upload/" + key, nil
}

func (s *stubMediaStore) PresignDownload(ctx context.Context, key string) (string, error) {
	return "https://media.test/download/" + key, nil
}

type CourseAPISuite struct {
	suite.Suite
	app        *echo.Echo
	bus        *events.InMemoryEventBus
	student    auth.Actor
	instructor auth.Actor
	admin      auth.Actor
}

func (s *CourseAPISuite) SetupTest() {
	db := testutil.SetupTestDB(s.T())
	log := logger.NewNoop()

	repo := repository.NewGormCourseRepository(db, log)
	s.bus = events.NewInMemoryEventBus(log)

	encoder, err := pagination.NewCursorEncoder(testutil.TestJWTSecret)
	s.Require().NoError(err)

	cfg := config.GetDefaultCatalogConfig()
	svc := service.NewCourseService(repo, utils.NewInMemoryCache(), s.bus, &stubMediaStore{}, encoder, log, cfg)

	s.app = echo.New()
	s.app.HTTPErrorHandler = middleware.HTTPErrorHandler(log)

	verifier := auth.NewTokenVerifier(testutil.TestJWTSecret, testutil.TestJWTIssuer)
	handler.RegisterCourseAPI(s.app.Group("/v1"), middleware.RequireAuth(verifier), svc)

	s.student = testutil.NewStudent()
	s.instructor = testutil.NewInstructor()
	s.admin = testutil.NewAdministrator()
}

func (s *CourseAPISuite) TearDownTest() {
	s.Require().NoError(s.bus.Stop())
}

func TestCourseAPISuite(t *testing.T) {
	suite.Run(t, new(CourseAPISuite))
}

// do performs a request as the given actor and decodes the JSON response.
func (s *CourseAPISuite) do(actor *auth.Actor, method, path, body string) (int, map[string]interface{}) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if actor != nil {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+testutil.SignToken(s.T(), *actor))
	}

	rec := httptest.NewRecorder()
	s.app.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec.Code, decoded
}

func (s *CourseAPISuite) createCourse() string {
	status, body := s.do(&s.instructor, http.MethodPost, "/v1/courses", `{"title":"HTTP Course"}`)
	s.Require().Equal(http.StatusCreated, status)
	return body["id"].(string)
}

func (s *CourseAPISuite) TestUnauthenticated() {
	status, body := s.do(nil, http.MethodGet, "/v1/courses", "")
	s.Equal(http.StatusUnauthorized, status)
	s.Equal("UNAUTHORIZED", body["code"])
}

func (s *CourseAPISuite) TestBadToken() {
	req := httptest.NewRequest(http.MethodGet, "/v1/courses", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-token")
	rec := httptest.NewRecorder()
	s.app.ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *CourseAPISuite) TestCreateCourse() {
	status, body := s.do(&s.instructor, http.MethodPost, "/v1/courses", `{"title":"HTTP Course"}`)
	s.Equal(http.StatusCreated, status)
	s.Equal("draft", body["state"])
	s.Equal(s.instructor.ID.String(), body["instructor_id"])
}

func (s *CourseAPISuite) TestCreateCourse_StudentForbidden() {
	status, body := s.do(&s.student, http.MethodPost, "/v1/courses", `{"title":"Nope"}`)
	s.Equal(http.StatusForbidden, status)
	s.Equal("role-forbidden", body["reason"])
}

func (s *CourseAPISuite) TestRetrieve_UnknownCourse() {
	status, body := s.do(&s.instructor, http.MethodGet, "/v1/courses/2b1f8f45-0a35-4d40-90cb-7d0060eb7a86", "")
	s.Equal(http.StatusNotFound, status)
	s.Equal("NOT_FOUND", body["code"])
}

func (s *CourseAPISuite) TestRetrieve_BadID() {
	status, _ := s.do(&s.instructor, http.MethodGet, "/v1/courses/not-a-uuid", "")
	s.Equal(http.StatusBadRequest, status)
}

func (s *CourseAPISuite) TestSubmitWithoutVideo() {
	id := s.createCourse()

	status, body := s.do(&s.instructor, http.MethodPost, "/v1/courses/"+id+"/submit", "")
	s.Equal(http.StatusUnprocessableEntity, status)
	s.Equal("MISSING_PREREQUISITE", body["code"])
}

func (s *CourseAPISuite) TestModerationFlow() {
	id := s.createCourse()

	status, _ := s.do(&s.instructor, http.MethodPatch, "/v1/courses/"+id,
		`{"description":"A thorough course.","thumbnail":"https://cdn.test/c.png"}`)
	s.Require().Equal(http.StatusOK, status)

	status, _ = s.do(&s.instructor, http.MethodPost, "/v1/courses/"+id+"/videos",
		`{"title":"Intro","url":"https://cdn.test/intro.mp4","duration":300}`)
	s.Require().Equal(http.StatusCreated, status)

	status, body := s.do(&s.instructor, http.MethodPost, "/v1/courses/"+id+"/submit", "")
	s.Require().Equal(http.StatusOK, status)
	s.Equal("submitted", body["state"])

	// Only administrators moderate.
	status, body = s.do(&s.instructor, http.MethodPost, "/v1/courses/"+id+"/approve", "")
	s.Equal(http.StatusForbidden, status)
	s.Equal("role-forbidden", body["reason"])

	status, body = s.do(&s.admin, http.MethodPost, "/v1/courses/"+id+"/approve", "")
	s.Require().Equal(http.StatusOK, status)
	s.Equal("approved", body["state"])

	status, body = s.do(&s.admin, http.MethodPost, "/v1/courses/"+id+"/publish", "")
	s.Require().Equal(http.StatusOK, status)
	s.Equal("published", body["state"])

	// Students see the course once it is published.
	status, body = s.do(&s.student, http.MethodGet, "/v1/courses/"+id, "")
	s.Equal(http.StatusOK, status)
	s.Equal(true, body["is_published"])

	// Published content is locked.
	status, body = s.do(&s.instructor, http.MethodPost, "/v1/courses/"+id+"/videos",
		`{"title":"Late addition"}`)
	s.Equal(http.StatusUnprocessableEntity, status)
	s.Equal("ILLEGAL_TRANSITION", body["code"])
}

func (s *CourseAPISuite) TestModerationRoutesAdminOnly() {
	id := s.createCourse()

	for _, verb := range []string{"approve", "reject", "publish"} {
		status, body := s.do(&s.student, http.MethodPost, "/v1/courses/"+id+"/"+verb, "")
		s.Equal(http.StatusForbidden, status)
		s.Equal("role-forbidden", body["reason"])
	}
}

func (s *CourseAPISuite) TestReject() {
	id := s.createCourse()

	status, _ := s.do(&s.instructor, http.MethodPatch, "/v1/courses/"+id,
		`{"description":"desc","thumbnail":"https://cdn.test/c.png"}`)
	s.Require().Equal(http.StatusOK, status)
	status, _ = s.do(&s.instructor, http.MethodPost, "/v1/courses/"+id+"/videos", `{"title":"Intro"}`)
	s.Require().Equal(http.StatusCreated, status)
	status, _ = s.do(&s.instructor, http.MethodPost, "/v1/courses/"+id+"/submit", "")
	s.Require().Equal(http.StatusOK, status)

	status, body := s.do(&s.admin, http.MethodPost, "/v1/courses/"+id+"/reject",
		`{"reason":"thin content"}`)
	s.Require().Equal(http.StatusOK, status)
	s.Equal("rejected", body["state"])
	s.Equal("thin content", body["rejection_reason"])
}

func (s *CourseAPISuite) TestVideoUploadURL() {
	id := s.createCourse()

	status, body := s.do(&s.instructor, http.MethodPost, "/v1/courses/"+id+"/videos/upload-url",
		`{"filename":"lecture.mp4","content_type":"video/mp4"}`)
	s.Require().Equal(http.StatusOK, status)
	s.Contains(body["url"], "https://media.test/upload/courses/"+id+"/videos/")
}

func (s *CourseAPISuite) TestForeignInstructorHidden() {
	id := s.createCourse()
	other := testutil.NewInstructor()

	status, body := s.do(&other, http.MethodGet, "/v1/courses/"+id, "")
	s.Equal(http.StatusForbidden, status)
	s.Equal("not-owner", body["reason"])
}
