package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/skolahq/skola/pkg/errors"
)

// VideoDraft carries the caller-supplied attributes for a new video. Order 0
// means "append".
type VideoDraft struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Duration  int    `json:"duration"`
	Order     int    `json:"order"`
	IsPreview bool   `json:"is_preview"`
}

// VideoPatch is a merge-patch over an existing video: nil fields are left
// unchanged.
type VideoPatch struct {
	Title     *string `json:"title"`
	URL       *string `json:"url"`
	Duration  *int    `json:"duration"`
	Order     *int    `json:"order"`
	IsPreview *bool   `json:"is_preview"`
}

// ActivityDraft carries the caller-supplied attributes for a new activity.
type ActivityDraft struct {
	Title        string       `json:"title"`
	Type         ActivityType `json:"type"`
	Instructions string       `json:"instructions"`
	MaxScore     int          `json:"max_score"`
	Deadline     *time.Time   `json:"deadline"`
	Order        int          `json:"order"`
}

// ActivityPatch is a merge-patch over an existing activity.
type ActivityPatch struct {
	Title        *string       `json:"title"`
	Type         *ActivityType `json:"type"`
	Instructions *string       `json:"instructions"`
	MaxScore     *int          `json:"max_score"`
	Deadline     *time.Time    `json:"deadline"`
	Order        *int          `json:"order"`
}

// requireMutable refuses child mutations unless the course is in a
// content-mutable state. Must agree with the authorization policy and the
// lifecycle engine; TestContentEditAgreement asserts it does.
func (c *Course) requireMutable(verb string) error {
	if !c.IsContentMutable() {
		return pkgerrors.IllegalTransition(verb, string(c.State))
	}
	return nil
}

// AddVideo appends or inserts a video, keeping orders dense and 1-based.
func (c *Course) AddVideo(draft VideoDraft) (*Video, error) {
	if err := c.requireMutable("edit"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(draft.Title) == "" {
		return nil, pkgerrors.Invalid("video title is required")
	}
	if draft.Duration < 0 {
		return nil, pkgerrors.Invalid("video duration must not be negative")
	}
	order, err := resolveOrder(draft.Order, len(c.Videos))
	if err != nil {
		return nil, err
	}

	for i := range c.Videos {
		if c.Videos[i].Order >= order {
			c.Videos[i].Order++
		}
	}

	video := Video{
		ID:         uuid.New(),
		Title:      draft.Title,
		URL:        draft.URL,
		Duration:   draft.Duration,
		Order:      order,
		IsPreview:  draft.IsPreview,
		UploadedAt: time.Now(),
	}
	c.Videos = append(c.Videos, video)
	c.sortVideos()
	c.Touch()
	return &video, nil
}

// UpdateVideo merges the patch over the video with the given id. Omitted
// fields are preserved unchanged, never nulled.
func (c *Course) UpdateVideo(id uuid.UUID, patch VideoPatch) (*Video, error) {
	if err := c.requireMutable("edit"); err != nil {
		return nil, err
	}

	idx := -1
	for i := range c.Videos {
		if c.Videos[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, pkgerrors.NotFound("video not found in course")
	}

	video := &c.Videos[idx]
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, pkgerrors.Invalid("video title must not be empty")
		}
		video.Title = *patch.Title
	}
	if patch.URL != nil {
		video.URL = *patch.URL
	}
	if patch.Duration != nil {
		if *patch.Duration < 0 {
			return nil, pkgerrors.Invalid("video duration must not be negative")
		}
		video.Duration = *patch.Duration
	}
	if patch.IsPreview != nil {
		video.IsPreview = *patch.IsPreview
	}
	if patch.Order != nil {
		if err := c.moveVideo(idx, *patch.Order); err != nil {
			return nil, err
		}
		// moveVideo re-sorts; find the video again by id.
		for i := range c.Videos {
			if c.Videos[i].ID == id {
				video = &c.Videos[i]
				break
			}
		}
	}

	c.Touch()
	result := *video
	return &result, nil
}

// RemoveVideo removes the video with the given id and re-indexes the
// remaining videos to 1..N.
func (c *Course) RemoveVideo(id uuid.UUID) error {
	if err := c.requireMutable("edit"); err != nil {
		return err
	}

	idx := -1
	for i := range c.Videos {
		if c.Videos[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return pkgerrors.NotFound("video not found in course")
	}

	c.Videos = append(c.Videos[:idx], c.Videos[idx+1:]...)
	c.sortVideos()
	c.reindexVideos()
	c.Touch()
	return nil
}

// AddActivity appends or inserts an activity, keeping orders dense.
func (c *Course) AddActivity(draft ActivityDraft) (*Activity, error) {
	if err := c.requireMutable("edit"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(draft.Title) == "" {
		return nil, pkgerrors.Invalid("activity title is required")
	}
	if _, err := ParseActivityType(string(draft.Type)); err != nil {
		return nil, err
	}
	if draft.MaxScore < 0 {
		return nil, pkgerrors.Invalid("activity max score must not be negative")
	}
	order, err := resolveOrder(draft.Order, len(c.Activities))
	if err != nil {
		return nil, err
	}

	for i := range c.Activities {
		if c.Activities[i].Order >= order {
			c.Activities[i].Order++
		}
	}

	activity := Activity{
		ID:           uuid.New(),
		Title:        draft.Title,
		Type:         draft.Type,
		Instructions: draft.Instructions,
		MaxScore:     draft.MaxScore,
		Deadline:     draft.Deadline,
		Order:        order,
		CreatedAt:    time.Now(),
	}
	c.Activities = append(c.Activities, activity)
	c.sortActivities()
	c.Touch()
	return &activity, nil
}

// UpdateActivity merges the patch over the activity with the given id.
func (c *Course) UpdateActivity(id uuid.UUID, patch ActivityPatch) (*Activity, error) {
	if err := c.requireMutable("edit"); err != nil {
		return nil, err
	}

	idx := -1
	for i := range c.Activities {
		if c.Activities[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, pkgerrors.NotFound("activity not found in course")
	}

	activity := &c.Activities[idx]
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, pkgerrors.Invalid("activity title must not be empty")
		}
		activity.Title = *patch.Title
	}
	if patch.Type != nil {
		if _, err := ParseActivityType(string(*patch.Type)); err != nil {
			return nil, err
		}
		activity.Type = *patch.Type
	}
	if patch.Instructions != nil {
		activity.Instructions = *patch.Instructions
	}
	if patch.MaxScore != nil {
		if *patch.MaxScore < 0 {
			return nil, pkgerrors.Invalid("activity max score must not be negative")
		}
		activity.MaxScore = *patch.MaxScore
	}
	if patch.Deadline != nil {
		activity.Deadline = patch.Deadline
	}
	if patch.Order != nil {
		if err := c.moveActivity(idx, *patch.Order); err != nil {
			return nil, err
		}
		for i := range c.Activities {
			if c.Activities[i].ID == id {
				activity = &c.Activities[i]
				break
			}
		}
	}

	c.Touch()
	result := *activity
	return &result, nil
}

// RemoveActivity removes the activity with the given id and re-indexes.
func (c *Course) RemoveActivity(id uuid.UUID) error {
	if err := c.requireMutable("edit"); err != nil {
		return err
	}

	idx := -1
	for i := range c.Activities {
		if c.Activities[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return pkgerrors.NotFound("activity not found in course")
	}

	c.Activities = append(c.Activities[:idx], c.Activities[idx+1:]...)
	c.sortActivities()
	c.reindexActivities()
	c.Touch()
	return nil
}

// resolveOrder validates a caller-supplied order against the current
// collection length. Zero means append; anything past the end is clamped to
// the append position.
func resolveOrder(requested, length int) (int, error) {
	if requested < 0 {
		return 0, pkgerrors.Invalid("order must not be negative")
	}
	if requested == 0 || requested > length+1 {
		return length + 1, nil
	}
	return requested, nil
}

func (c *Course) moveVideo(idx, requested int) error {
	target, err := resolveOrder(requested, len(c.Videos)-1)
	if err != nil {
		return err
	}

	current := c.Videos[idx].Order
	if target == current {
		return nil
	}

	for i := range c.Videos {
		switch {
		case i == idx:
			continue
		case c.Videos[i].Order > current && c.Videos[i].Order <= target:
			c.Videos[i].Order--
		case c.Videos[i].Order < current && c.Videos[i].Order >= target:
			c.Videos[i].Order++
		}
	}
	c.Videos[idx].Order = target
	c.sortVideos()
	return nil
}

func (c *Course) moveActivity(idx, requested int) error {
	target, err := resolveOrder(requested, len(c.Activities)-1)
	if err != nil {
		return err
	}

	current := c.Activities[idx].Order
	if target == current {
		return nil
	}

	for i := range c.Activities {
		switch {
		case i == idx:
			continue
		case c.Activities[i].Order > current && c.Activities[i].Order <= target:
			c.Activities[i].Order--
		case c.Activities[i].Order < current && c.Activities[i].Order >= target:
			c.Activities[i].Order++
		}
	}
	c.Activities[idx].Order = target
	c.sortActivities()
	return nil
}

func (c *Course) sortVideos() {
	sort.SliceStable(c.Videos, func(i, j int) bool {
		return c.Videos[i].Order < c.Videos[j].Order
	})
}

func (c *Course) sortActivities() {
	sort.SliceStable(c.Activities, func(i, j int) bool {
		return c.Activities[i].Order < c.Activities[j].Order
	})
}

func (c *Course) reindexVideos() {
	for i := range c.Videos {
		c.Videos[i].Order = i + 1
	}
}

func (c *Course) reindexActivities() {
	for i := range c.Activities {
		c.Activities[i].Order = i + 1
	}
}
