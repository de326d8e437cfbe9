package testutil

import (
	"testing"

	"github.com/google/uuid"

	"github.com/skolahq/skola/internal/catalog/domain"
	"github.com/skolahq/skola/pkg/auth"
)

// NewInstructor returns an instructor actor with a fresh id.
func NewInstructor() auth.Actor {
	return auth.Actor{ID: uuid.New(), Role: auth.RoleInstructor}
}

// NewStudent returns a student actor with a fresh id.
func NewStudent() auth.Actor {
	return auth.Actor{ID: uuid.New(), Role: auth.RoleStudent}
}

// NewAdministrator returns an administrator actor with a fresh id.
func NewAdministrator() auth.Actor {
	return auth.Actor{ID: uuid.New(), Role: auth.RoleAdministrator}
}

// CreateTestCourse builds a draft course ready for submission: one video and
// full listing metadata.
func CreateTestCourse(t *testing.T, instructorID uuid.UUID) *domain.Course {
	t.Helper()

	course, err := domain.NewCourse(instructorID, "Test Course")
	if err != nil {
		t.Fatalf("failed to create course: %v", err)
	}
	course.Description = "A course used in tests."
	course.Thumbnail = "https://cdn.test/thumb.png"
	course.Category = "engineering"
	course.Level = "beginner"
	course.Price = 49.90

	if _, err := course.AddVideo(domain.VideoDraft{
		Title:    "Introduction",
		URL:      "https://cdn.test/intro.mp4",
		Duration: 600,
	}); err != nil {
		t.Fatalf("failed to add video: %v", err)
	}

	return course
}

// PublishTestCourse walks a draft course through the full moderation flow.
func PublishTestCourse(t *testing.T, course *domain.Course, reviewerID uuid.UUID) {
	t.Helper()

	if err := course.Submit(); err != nil {
		t.Fatalf("failed to submit course: %v", err)
	}
	if err := course.Approve(reviewerID); err != nil {
		t.Fatalf("failed to approve course: %v", err)
	}
	if err := course.Publish(); err != nil {
		t.Fatalf("failed to publish course: %v", err)
	}
}
