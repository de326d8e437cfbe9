package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skolahq/skola/internal/catalog/domain"
	pkgerrors "github.com/skolahq/skola/pkg/errors"
)

func draftCourse(t *testing.T) *domain.Course {
	t.Helper()
	course, err := domain.NewCourse(uuid.New(), "Test Course")
	require.NoError(t, err)
	return course
}

func videoTitles(c *domain.Course) []string {
	titles := make([]string, len(c.Videos))
	for i, v := range c.Videos {
		titles[i] = v.Title
	}
	return titles
}

func TestAddVideo_AppendKeepsDenseOrder(t *testing.T) {
	course := draftCourse(t)

	for _, title := range []string{"one", "two", "three"} {
		_, err := course.AddVideo(domain.VideoDraft{Title: title})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"one", "two", "three"}, videoTitles(course))
	for i, v := range course.Videos {
		assert.Equal(t, i+1, v.Order)
	}
	assert.NoError(t, course.Validate())
}

func TestAddVideo_InsertShiftsSuffix(t *testing.T) {
	course := draftCourse(t)
	for _, title := range []string{"one", "two", "three"} {
		_, err := course.AddVideo(domain.VideoDraft{Title: title})
		require.NoError(t, err)
	}

	inserted, err := course.AddVideo(domain.VideoDraft{Title: "intro", Order: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted.Order)

	assert.Equal(t, []string{"intro", "one", "two", "three"}, videoTitles(course))
	assert.NoError(t, course.Validate())
}

func TestAddVideo_OrderPastEndAppends(t *testing.T) {
	course := draftCourse(t)
	_, err := course.AddVideo(domain.VideoDraft{Title: "one"})
	require.NoError(t, err)

	v, err := course.AddVideo(domain.VideoDraft{Title: "two", Order: 99})
	require.NoError(t, err)
	assert.Equal(t, 2, v.Order)
	assert.NoError(t, course.Validate())
}

func TestAddVideo_NegativeOrderRejected(t *testing.T) {
	course := draftCourse(t)
	_, err := course.AddVideo(domain.VideoDraft{Title: "one", Order: -1})
	assert.True(t, pkgerrors.IsInvalid(err))
	assert.Empty(t, course.Videos)
}

func TestRemoveVideo_ClosesGap(t *testing.T) {
	course := draftCourse(t)
	var ids []uuid.UUID
	for _, title := range []string{"one", "two", "three"} {
		v, err := course.AddVideo(domain.VideoDraft{Title: title})
		require.NoError(t, err)
		ids = append(ids, v.ID)
	}

	require.NoError(t, course.RemoveVideo(ids[1]))

	assert.Equal(t, []string{"one", "three"}, videoTitles(course))
	assert.Equal(t, 1, course.Videos[0].Order)
	assert.Equal(t, 2, course.Videos[1].Order)
	assert.NoError(t, course.Validate())
}

func TestRemoveVideo_Unknown(t *testing.T) {
	course := draftCourse(t)
	err := course.RemoveVideo(uuid.New())
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestUpdateVideo_MergePatchPreservesOmittedFields(t *testing.T) {
	course := draftCourse(t)
	v, err := course.AddVideo(domain.VideoDraft{Title: "original", URL: "https://cdn/x.mp4", Duration: 120})
	require.NoError(t, err)

	title := "renamed"
	updated, err := course.UpdateVideo(v.ID, domain.VideoPatch{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, "https://cdn/x.mp4", updated.URL)
	assert.Equal(t, 120, updated.Duration)
}

func TestUpdateVideo_EmptyTitleRejected(t *testing.T) {
	course := draftCourse(t)
	v, err := course.AddVideo(domain.VideoDraft{Title: "keep me"})
	require.NoError(t, err)

	empty := "   "
	_, err = course.UpdateVideo(v.ID, domain.VideoPatch{Title: &empty})
	assert.True(t, pkgerrors.IsInvalid(err))
	assert.Equal(t, "keep me", course.Videos[0].Title)
}

func TestUpdateVideo_ReorderMovesWithinList(t *testing.T) {
	course := draftCourse(t)
	var ids []uuid.UUID
	for _, title := range []string{"one", "two", "three", "four"} {
		v, err := course.AddVideo(domain.VideoDraft{Title: title})
		require.NoError(t, err)
		ids = append(ids, v.ID)
	}

	// Move "four" to the front.
	first := 1
	moved, err := course.UpdateVideo(ids[3], domain.VideoPatch{Order: &first})
	require.NoError(t, err)
	assert.Equal(t, 1, moved.Order)
	assert.Equal(t, []string{"four", "one", "two", "three"}, videoTitles(course))

	// Move "one" (now at 2) to the end.
	last := 4
	_, err = course.UpdateVideo(ids[0], domain.VideoPatch{Order: &last})
	require.NoError(t, err)
	assert.Equal(t, []string{"four", "two", "three", "one"}, videoTitles(course))
	assert.NoError(t, course.Validate())
}

func TestActivityLifecycleMirrorsVideos(t *testing.T) {
	course := draftCourse(t)

	quiz, err := course.AddActivity(domain.ActivityDraft{Title: "Quiz 1", Type: domain.ActivityQuiz, MaxScore: 10})
	require.NoError(t, err)
	assignment, err := course.AddActivity(domain.ActivityDraft{Title: "Essay", Type: domain.ActivityAssignment, MaxScore: 100})
	require.NoError(t, err)

	assert.Equal(t, 1, quiz.Order)
	assert.Equal(t, 2, assignment.Order)

	score := 50
	updated, err := course.UpdateActivity(assignment.ID, domain.ActivityPatch{MaxScore: &score})
	require.NoError(t, err)
	assert.Equal(t, 50, updated.MaxScore)
	assert.Equal(t, "Essay", updated.Title)

	require.NoError(t, course.RemoveActivity(quiz.ID))
	assert.Len(t, course.Activities, 1)
	assert.Equal(t, 1, course.Activities[0].Order)
	assert.NoError(t, course.Validate())
}

func TestAddActivity_UnknownTypeRejected(t *testing.T) {
	course := draftCourse(t)
	_, err := course.AddActivity(domain.ActivityDraft{Title: "bad", Type: "exam"})
	assert.True(t, pkgerrors.IsInvalid(err))
}

func TestChildMutations_RefusedOutsideMutableStates(t *testing.T) {
	for _, state := range domain.States() {
		course := draftCourse(t)
		v, err := course.AddVideo(domain.VideoDraft{Title: "seed"})
		require.NoError(t, err)
		course.State = state

		_, addErr := course.AddVideo(domain.VideoDraft{Title: "late"})
		title := "late rename"
		_, updErr := course.UpdateVideo(v.ID, domain.VideoPatch{Title: &title})
		remErr := course.RemoveVideo(v.ID)

		if domain.ContentMutable(state) {
			assert.NoError(t, addErr, "state %s", state)
			assert.NoError(t, updErr, "state %s", state)
			assert.NoError(t, remErr, "state %s", state)
		} else {
			assert.True(t, pkgerrors.IsIllegalTransition(addErr), "state %s", state)
			assert.True(t, pkgerrors.IsIllegalTransition(updErr), "state %s", state)
			assert.True(t, pkgerrors.IsIllegalTransition(remErr), "state %s", state)
		}
	}
}

func TestRejectedCourseAcceptsContentEdits(t *testing.T) {
	course := submittableCourse(t)
	require.NoError(t, course.Submit())
	require.NoError(t, course.Reject("too short"))

	_, err := course.AddVideo(domain.VideoDraft{Title: "extra material"})
	require.NoError(t, err)
	assert.Len(t, course.Videos, 2)
}
