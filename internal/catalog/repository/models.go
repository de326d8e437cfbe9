package repository

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skolahq/skola/internal/catalog/domain"
)

// StringSlice stores a string list as a JSON text column, portable across
// postgres and sqlite.
type StringSlice []string

// Value implements driver.Valuer.
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// Course is the persistence model for the course aggregate root.
type Course struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	InstructorID uuid.UUID `gorm:"type:uuid;not null;index"`

	State           string `gorm:"not null;index;default:draft"`
	SubmittedAt     *time.Time
	ApprovedAt      *time.Time
	ApprovedBy      *uuid.UUID `gorm:"type:uuid"`
	RejectionReason string

	Title              string `gorm:"not null"`
	Description        string `gorm:"type:text"`
	Thumbnail          string
	Category           string `gorm:"index"`
	Level              string
	Price              float64
	Duration           int
	Requirements       StringSlice `gorm:"type:text"`
	LearningObjectives StringSlice `gorm:"type:text"`

	StudentsEnrolled int     `gorm:"not null;default:0"`
	Rating           float64 `gorm:"not null;default:0"`
	IsPublished      bool    `gorm:"not null;default:false;index"`

	Version   int `gorm:"not null;default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Videos     []Video    `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Activities []Activity `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

// Video is the persistence model for an embedded course video. "position" is
// used instead of "order" to stay clear of the SQL keyword.
type Video struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CourseID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Title      string    `gorm:"not null"`
	URL        string
	Duration   int
	Position   int  `gorm:"column:position;not null"`
	IsPreview  bool `gorm:"not null;default:false"`
	UploadedAt time.Time
}

// Activity is the persistence model for an embedded course activity.
type Activity struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	CourseID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Title        string    `gorm:"not null"`
	Type         string    `gorm:"not null"`
	Instructions string    `gorm:"type:text"`
	MaxScore     int
	Deadline     *time.Time
	Position     int `gorm:"column:position;not null"`
	CreatedAt    time.Time
}

func toModel(c *domain.Course) *Course {
	model := &Course{
		ID:                 c.ID,
		InstructorID:       c.InstructorID,
		State:              string(c.State),
		SubmittedAt:        c.SubmittedAt,
		ApprovedAt:         c.ApprovedAt,
		ApprovedBy:         c.ApprovedBy,
		RejectionReason:    c.RejectionReason,
		Title:              c.Title,
		Description:        c.Description,
		Thumbnail:          c.Thumbnail,
		Category:           c.Category,
		Level:              c.Level,
		Price:              c.Price,
		Duration:           c.Duration,
		Requirements:       StringSlice(c.Requirements),
		LearningObjectives: StringSlice(c.LearningObjectives),
		StudentsEnrolled:   c.StudentsEnrolled,
		Rating:             c.Rating,
		IsPublished:        c.IsPublished,
		Version:            c.Version,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}

	for _, v := range c.Videos {
		model.Videos = append(model.Videos, Video{
			ID:         v.ID,
			CourseID:   c.ID,
			Title:      v.Title,
			URL:        v.URL,
			Duration:   v.Duration,
			Position:   v.Order,
			IsPreview:  v.IsPreview,
			UploadedAt: v.UploadedAt,
		})
	}
	for _, a := range c.Activities {
		model.Activities = append(model.Activities, Activity{
			ID:           a.ID,
			CourseID:     c.ID,
			Title:        a.Title,
			Type:         string(a.Type),
			Instructions: a.Instructions,
			MaxScore:     a.MaxScore,
			Deadline:     a.Deadline,
			Position:     a.Order,
			CreatedAt:    a.CreatedAt,
		})
	}

	return model
}

func toDomain(m *Course) *domain.Course {
	course := &domain.Course{
		ID:                 m.ID,
		InstructorID:       m.InstructorID,
		State:              domain.State(m.State),
		SubmittedAt:        m.SubmittedAt,
		ApprovedAt:         m.ApprovedAt,
		ApprovedBy:         m.ApprovedBy,
		RejectionReason:    m.RejectionReason,
		Title:              m.Title,
		Description:        m.Description,
		Thumbnail:          m.Thumbnail,
		Category:           m.Category,
		Level:              m.Level,
		Price:              m.Price,
		Duration:           m.Duration,
		Requirements:       []string(m.Requirements),
		LearningObjectives: []string(m.LearningObjectives),
		StudentsEnrolled:   m.StudentsEnrolled,
		Rating:             m.Rating,
		IsPublished:        m.IsPublished,
		Version:            m.Version,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}

	for _, v := range m.Videos {
		course.Videos = append(course.Videos, domain.Video{
			ID:         v.ID,
			Title:      v.Title,
			URL:        v.URL,
			Duration:   v.Duration,
			Order:      v.Position,
			IsPreview:  v.IsPreview,
			UploadedAt: v.UploadedAt,
		})
	}
	for _, a := range m.Activities {
		course.Activities = append(course.Activities, domain.Activity{
			ID:           a.ID,
			Title:        a.Title,
			Type:         domain.ActivityType(a.Type),
			Instructions: a.Instructions,
			MaxScore:     a.MaxScore,
			Deadline:     a.Deadline,
			Order:        a.Position,
			CreatedAt:    a.CreatedAt,
		})
	}

	return course
}
