package access

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/job-board/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allActions = []Action{
	ActionUserRegister, ActionUserLogin, ActionUserRead, ActionUserUpdate,
	ActionUserChangePassword, ActionUserDeactivate,
	ActionJobRead, ActionJobList, ActionJobListOwn, ActionJobCreate, ActionJobUpdate, ActionJobDelete,
	ActionApplicationSubmit, ActionApplicationListOwn, ActionApplicationRead,
	ActionApplicationListByJob, ActionApplicationUpdateStatus, ActionApplicationWithdraw,
}

func TestCan_RoleOnlyActions(t *testing.T) {
	tests := []struct {
		action    Action
		anonymous bool
		company   bool
		applicant bool
	}{
		{ActionUserRegister, true, true, true},
		{ActionUserLogin, true, true, true},
		{ActionUserRead, false, true, true},
		{ActionJobRead, true, true, true},
		{ActionJobList, true, true, true},
		{ActionJobListOwn, false, true, false},
		{ActionJobCreate, false, true, false},
		{ActionApplicationSubmit, false, false, true},
		{ActionApplicationListOwn, false, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.anonymous, Can(Anonymous, tt.action, Resource{}), "anonymous")
			assert.Equal(t, tt.company, Can(Actor{ID: uuid.New(), Role: types.RoleCompany}, tt.action, Resource{}), "company")
			assert.Equal(t, tt.applicant, Can(Actor{ID: uuid.New(), Role: types.RoleApplicant}, tt.action, Resource{}), "applicant")
		})
	}
}

func TestCan_JobOwnership(t *testing.T) {
	owner := Actor{ID: uuid.New(), Role: types.RoleCompany}
	otherCompany := Actor{ID: uuid.New(), Role: types.RoleCompany}
	applicant := Actor{ID: uuid.New(), Role: types.RoleApplicant}
	job := Resource{JobOwnerID: owner.ID}

	for _, action := range []Action{ActionJobUpdate, ActionJobDelete, ActionApplicationListByJob, ActionApplicationUpdateStatus} {
		t.Run(string(action), func(t *testing.T) {
			assert.True(t, Can(owner, action, job))
			assert.False(t, Can(otherCompany, action, job))
			assert.False(t, Can(applicant, action, job))
			assert.False(t, Can(Anonymous, action, job))
		})
	}
}

func TestCan_ApplicantOwnsApplication(t *testing.T) {
	jobOwner := Actor{ID: uuid.New(), Role: types.RoleCompany}
	applicant := Actor{ID: uuid.New(), Role: types.RoleApplicant}
	otherApplicant := Actor{ID: uuid.New(), Role: types.RoleApplicant}
	app := Resource{JobOwnerID: jobOwner.ID, ApplicantID: applicant.ID}

	assert.True(t, Can(applicant, ActionApplicationRead, app))
	assert.True(t, Can(jobOwner, ActionApplicationRead, app))
	assert.False(t, Can(otherApplicant, ActionApplicationRead, app))

	assert.True(t, Can(applicant, ActionApplicationWithdraw, app))
	assert.False(t, Can(jobOwner, ActionApplicationWithdraw, app))
	assert.False(t, Can(otherApplicant, ActionApplicationWithdraw, app))

	// An applicant cannot move their own application through the workflow.
	assert.False(t, Can(applicant, ActionApplicationUpdateStatus, app))
}

func TestCan_SelfService(t *testing.T) {
	me := Actor{ID: uuid.New(), Role: types.RoleApplicant}
	someoneElse := uuid.New()

	for _, action := range []Action{ActionUserUpdate, ActionUserChangePassword, ActionUserDeactivate} {
		assert.True(t, Can(me, action, Resource{UserID: me.ID}), action)
		assert.False(t, Can(me, action, Resource{UserID: someoneElse}), action)
		assert.False(t, Can(Anonymous, action, Resource{UserID: uuid.Nil}), action)
	}
}

func TestCan_NilIDsNeverOwn(t *testing.T) {
	actor := Actor{ID: uuid.Nil, Role: types.RoleCompany}
	assert.False(t, Can(actor, ActionJobUpdate, Resource{JobOwnerID: uuid.Nil}))
}

func TestCan_UnknownRoleDeniedEverything(t *testing.T) {
	actor := Actor{ID: uuid.New(), Role: types.Role("admin")}
	for _, action := range allActions {
		assert.False(t, Can(actor, action, Resource{UserID: actor.ID, JobOwnerID: actor.ID, ApplicantID: actor.ID}), action)
	}
}

func TestCheck_ReturnsForbidden(t *testing.T) {
	actor := Actor{ID: uuid.New(), Role: types.RoleApplicant}

	err := Check(actor, ActionJobCreate, Resource{})
	require.Error(t, err)
	var forbidden *ErrForbidden
	require.True(t, errors.As(err, &forbidden))
	assert.Equal(t, ActionJobCreate, forbidden.Action)
	assert.Equal(t, "role applicant is not permitted to perform job.create", err.Error())

	assert.NoError(t, Check(actor, ActionApplicationSubmit, Resource{}))
}

func TestCheckRole(t *testing.T) {
	company := Actor{ID: uuid.New(), Role: types.RoleCompany}
	applicant := Actor{ID: uuid.New(), Role: types.RoleApplicant}

	// Ownership is not evaluated here; the company may attempt an update.
	assert.NoError(t, CheckRole(company, ActionJobUpdate))
	assert.Error(t, CheckRole(applicant, ActionJobUpdate))
	assert.Error(t, CheckRole(Anonymous, ActionApplicationSubmit))
}
