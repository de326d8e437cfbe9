package domain

import (
	"github.com/skolahq/skola/pkg/events"
)

// Event types emitted by the enrollment context.
const (
	EventEnrollmentCreated   = "enrollment.created"
	EventEnrollmentDropped   = "enrollment.dropped"
	EventEnrollmentCompleted = "enrollment.completed"
)

// EnrollmentCreatedEvent signals a new active enrollment.
func EnrollmentCreatedEvent(e *Enrollment) *events.BaseEvent {
	return events.NewAggregateEvent(EventEnrollmentCreated, e.ID.String(), map[string]interface{}{
		"student_id": e.StudentID.String(),
		"course_id":  e.CourseID.String(),
	})
}

// EnrollmentDroppedEvent signals a cancelled enrollment.
func EnrollmentDroppedEvent(e *Enrollment) *events.BaseEvent {
	return events.NewAggregateEvent(EventEnrollmentDropped, e.ID.String(), map[string]interface{}{
		"student_id": e.StudentID.String(),
		"course_id":  e.CourseID.String(),
	})
}

// EnrollmentCompletedEvent signals a student finished the course.
func EnrollmentCompletedEvent(e *Enrollment) *events.BaseEvent {
	return events.NewAggregateEvent(EventEnrollmentCompleted, e.ID.String(), map[string]interface{}{
		"student_id": e.StudentID.String(),
		"course_id":  e.CourseID.String(),
	})
}
