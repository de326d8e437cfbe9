package domain

import (
	"github.com/skolahq/skola/pkg/events"
)

// Event types emitted by the catalog context.
const (
	EventCourseCreated   = "course.created"
	EventCourseSubmitted = "course.submitted"
	EventCourseApproved  = "course.approved"
	EventCourseRejected  = "course.rejected"
	EventCoursePublished = "course.published"
)

// CourseCreatedEvent signals that a new draft course exists.
func CourseCreatedEvent(c *Course) *events.BaseEvent {
	return events.NewAggregateEvent(EventCourseCreated, c.ID.String(), map[string]interface{}{
		"instructor_id": c.InstructorID.String(),
		"title":         c.Title,
	})
}

// CourseSubmittedEvent signals that a course entered moderation.
func CourseSubmittedEvent(c *Course) *events.BaseEvent {
	return events.NewAggregateEvent(EventCourseSubmitted, c.ID.String(), map[string]interface{}{
		"instructor_id": c.InstructorID.String(),
		"title":         c.Title,
	})
}

// CourseApprovedEvent signals that a reviewer approved the course.
func CourseApprovedEvent(c *Course) *events.BaseEvent {
	data := map[string]interface{}{
		"instructor_id": c.InstructorID.String(),
	}
	if c.ApprovedBy != nil {
		data["approved_by"] = c.ApprovedBy.String()
	}
	return events.NewAggregateEvent(EventCourseApproved, c.ID.String(), data)
}

// CourseRejectedEvent signals that a reviewer rejected the course, carrying
// the reason for the instructor.
func CourseRejectedEvent(c *Course) *events.BaseEvent {
	return events.NewAggregateEvent(EventCourseRejected, c.ID.String(), map[string]interface{}{
		"instructor_id": c.InstructorID.String(),
		"reason":        c.RejectionReason,
	})
}

// CoursePublishedEvent signals that the course is live in the catalog.
func CoursePublishedEvent(c *Course) *events.BaseEvent {
	return events.NewAggregateEvent(EventCoursePublished, c.ID.String(), map[string]interface{}{
		"instructor_id": c.InstructorID.String(),
		"title":         c.Title,
		"category":      c.Category,
		"price":         c.Price,
	})
}
