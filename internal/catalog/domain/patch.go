package domain

import (
	"strings"

	pkgerrors "github.com/skolahq/skola/pkg/errors"
)

// CoursePatch is a merge-patch over the course's own listing fields. Nil
// fields are left unchanged. Lifecycle state, moderation metadata, the
// enrollment counter and the published flag are deliberately absent: those
// only move through their dedicated operations.
type CoursePatch struct {
	Title              *string   `json:"title"`
	Description        *string   `json:"description"`
	Thumbnail          *string   `json:"thumbnail"`
	Category           *string   `json:"category"`
	Level              *string   `json:"level"`
	Price              *float64  `json:"price"`
	Duration           *int      `json:"duration"`
	Requirements       *[]string `json:"requirements"`
	LearningObjectives *[]string `json:"learning_objectives"`
}

// Apply merges the patch into the course. Only content-mutable states accept
// it.
func (c *Course) Apply(patch CoursePatch) error {
	if err := c.requireMutable("edit"); err != nil {
		return err
	}

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return pkgerrors.Invalid("title must not be empty")
		}
		c.Title = *patch.Title
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Thumbnail != nil {
		c.Thumbnail = *patch.Thumbnail
	}
	if patch.Category != nil {
		c.Category = *patch.Category
	}
	if patch.Level != nil {
		c.Level = *patch.Level
	}
	if patch.Price != nil {
		if *patch.Price < 0 {
			return pkgerrors.Invalid("price must not be negative")
		}
		c.Price = *patch.Price
	}
	if patch.Duration != nil {
		if *patch.Duration < 0 {
			return pkgerrors.Invalid("duration must not be negative")
		}
		c.Duration = *patch.Duration
	}
	if patch.Requirements != nil {
		c.Requirements = *patch.Requirements
	}
	if patch.LearningObjectives != nil {
		c.LearningObjectives = *patch.LearningObjectives
	}

	c.Touch()
	return nil
}
