package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skolahq/skola/internal/catalog/domain"
	"github.com/skolahq/skola/pkg/auth"
)

func courseInState(t *testing.T, state domain.State) *domain.Course {
	t.Helper()
	course, err := domain.NewCourse(uuid.New(), "Policy Course")
	require.NoError(t, err)
	course.State = state
	course.IsPublished = state == domain.StatePublished
	return course
}

func TestDecide_AdminAllowedEverywhere(t *testing.T) {
	admin := auth.Actor{ID: uuid.New(), Role: auth.RoleAdministrator}
	ops := []domain.Operation{
		domain.OpRead, domain.OpUpdate, domain.OpDelete,
		domain.OpAddChild, domain.OpUpdateChild, domain.OpRemoveChild,
		domain.OpSubmit, domain.OpApprove, domain.OpReject, domain.OpPublish,
		domain.OpEnroll, domain.OpReadRoster, domain.OpReadAnalytics,
	}

	for _, state := range domain.States() {
		course := courseInState(t, state)
		for _, op := range ops {
			d := domain.Decide(admin, op, course)
			assert.True(t, d.Allowed, "admin should be allowed op %s in state %s", op, state)
		}
	}
}

func TestDecide_UnknownOperationDeniedEvenForAdmin(t *testing.T) {
	course := courseInState(t, domain.StatePublished)
	for _, actor := range []auth.Actor{
		{ID: uuid.New(), Role: auth.RoleAdministrator},
		{ID: course.InstructorID, Role: auth.RoleInstructor},
		{ID: uuid.New(), Role: auth.RoleStudent},
	} {
		d := domain.Decide(actor, domain.Operation("transmogrify"), course)
		assert.False(t, d.Allowed)
		assert.Equal(t, domain.ReasonUnknownOperation, d.Reason)
	}
}

func TestDecide_ReadVisibility(t *testing.T) {
	for _, state := range domain.States() {
		course := courseInState(t, state)
		owner := auth.Actor{ID: course.InstructorID, Role: auth.RoleInstructor}
		otherInstructor := auth.Actor{ID: uuid.New(), Role: auth.RoleInstructor}
		student := auth.Actor{ID: uuid.New(), Role: auth.RoleStudent}

		assert.True(t, domain.Decide(owner, domain.OpRead, course).Allowed,
			"owner reads own course in state %s", state)

		wantPublic := state == domain.StatePublished
		for _, actor := range []auth.Actor{otherInstructor, student} {
			d := domain.Decide(actor, domain.OpRead, course)
			assert.Equal(t, wantPublic, d.Allowed, "actor %s state %s", actor.Role, state)
			if !d.Allowed {
				assert.Equal(t, domain.ReasonNotPublished, d.Reason)
			}
		}
	}
}

func TestDecide_OwnerOnlyMutations(t *testing.T) {
	course := courseInState(t, domain.StateDraft)
	owner := auth.Actor{ID: course.InstructorID, Role: auth.RoleInstructor}
	otherInstructor := auth.Actor{ID: uuid.New(), Role: auth.RoleInstructor}
	student := auth.Actor{ID: uuid.New(), Role: auth.RoleStudent}

	ops := []domain.Operation{
		domain.OpUpdate, domain.OpDelete,
		domain.OpAddChild, domain.OpUpdateChild, domain.OpRemoveChild,
		domain.OpSubmit,
	}

	for _, op := range ops {
		assert.True(t, domain.Decide(owner, op, course).Allowed, "op %s", op)

		d := domain.Decide(otherInstructor, op, course)
		assert.False(t, d.Allowed, "op %s", op)
		assert.Equal(t, domain.ReasonNotOwner, d.Reason, "op %s", op)

		d = domain.Decide(student, op, course)
		assert.False(t, d.Allowed, "op %s", op)
		assert.Equal(t, domain.ReasonRoleForbidden, d.Reason, "op %s", op)
	}
}

func TestDecide_ModerationIsAdminOnly(t *testing.T) {
	course := courseInState(t, domain.StateSubmitted)
	owner := auth.Actor{ID: course.InstructorID, Role: auth.RoleInstructor}
	student := auth.Actor{ID: uuid.New(), Role: auth.RoleStudent}

	for _, op := range []domain.Operation{domain.OpApprove, domain.OpReject, domain.OpPublish} {
		for _, actor := range []auth.Actor{owner, student} {
			d := domain.Decide(actor, op, course)
			assert.False(t, d.Allowed, "op %s actor %s", op, actor.Role)
			assert.Equal(t, domain.ReasonRoleForbidden, d.Reason)
		}
	}
}

func TestDecide_EnrollIsStudentOnly(t *testing.T) {
	course := courseInState(t, domain.StatePublished)
	student := auth.Actor{ID: uuid.New(), Role: auth.RoleStudent}
	instructor := auth.Actor{ID: uuid.New(), Role: auth.RoleInstructor}

	assert.True(t, domain.Decide(student, domain.OpEnroll, course).Allowed)

	d := domain.Decide(instructor, domain.OpEnroll, course)
	assert.False(t, d.Allowed)
	assert.Equal(t, domain.ReasonRoleForbidden, d.Reason)
}

func TestDecide_RosterAndAnalytics(t *testing.T) {
	course := courseInState(t, domain.StatePublished)
	owner := auth.Actor{ID: course.InstructorID, Role: auth.RoleInstructor}
	otherInstructor := auth.Actor{ID: uuid.New(), Role: auth.RoleInstructor}
	student := auth.Actor{ID: uuid.New(), Role: auth.RoleStudent}

	for _, op := range []domain.Operation{domain.OpReadRoster, domain.OpReadAnalytics} {
		assert.True(t, domain.Decide(owner, op, course).Allowed)

		d := domain.Decide(otherInstructor, op, course)
		assert.False(t, d.Allowed)
		assert.Equal(t, domain.ReasonNotOwner, d.Reason)

		d = domain.Decide(student, op, course)
		assert.False(t, d.Allowed)
		assert.Equal(t, domain.ReasonRoleForbidden, d.Reason)
	}
}

func TestDecide_IsPure(t *testing.T) {
	course := courseInState(t, domain.StateDraft)
	actor := auth.Actor{ID: uuid.New(), Role: auth.RoleStudent}

	first := domain.Decide(actor, domain.OpUpdate, course)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, domain.Decide(actor, domain.OpUpdate, course))
	}
}

// Content-edit permission, lifecycle mutability, and the mutator itself must
// agree for every state: the policy can only ever allow an owner edit that
// the mutator would also accept, because both consult ContentMutable.
func TestContentEditAgreement(t *testing.T) {
	for _, state := range domain.States() {
		course := courseInState(t, state)
		owner := auth.Actor{ID: course.InstructorID, Role: auth.RoleInstructor}

		// The policy itself is state-independent for owner edits; the
		// mutator is the state gate. An allowed decision followed by a
		// mutator call must succeed exactly when ContentMutable says so.
		d := domain.Decide(owner, domain.OpAddChild, course)
		require.True(t, d.Allowed, "owner addChild decision in state %s", state)

		_, err := course.AddVideo(domain.VideoDraft{Title: "probe"})
		if domain.ContentMutable(state) {
			assert.NoError(t, err, "state %s", state)
		} else {
			assert.Error(t, err, "state %s", state)
		}
	}
}
