// Package access decides which actor may perform which action on which resource.
//
// Permissions live in a single table keyed by (role, action). Each entry names the kind
// of grant: unconditional, or conditional on the actor owning the resource in one of a
// few well-defined ways. Anything not listed is denied.
package access

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/job-board/internal/types"
)

// Action is an operation an actor may attempt.
type Action string

// Actions covered by the permission table.
const (
	ActionUserRegister       Action = "user.register"
	ActionUserLogin          Action = "user.login"
	ActionUserRead           Action = "user.read"
	ActionUserUpdate         Action = "user.update"
	ActionUserChangePassword Action = "user.change_password"
	ActionUserDeactivate     Action = "user.deactivate"

	ActionJobRead    Action = "job.read"
	ActionJobList    Action = "job.list"
	ActionJobListOwn Action = "job.list_own"
	ActionJobCreate  Action = "job.create"
	ActionJobUpdate  Action = "job.update"
	ActionJobDelete  Action = "job.delete"

	ActionApplicationSubmit       Action = "application.submit"
	ActionApplicationListOwn      Action = "application.list_own"
	ActionApplicationRead         Action = "application.read"
	ActionApplicationListByJob    Action = "application.list_by_job"
	ActionApplicationUpdateStatus Action = "application.update_status"
	ActionApplicationWithdraw     Action = "application.withdraw"
)

// grant is the condition under which an entry allows an action.
type grant int

const (
	// allow grants the action unconditionally.
	allow grant = iota + 1
	// self requires the actor to be the target user.
	self
	// jobOwner requires the actor to have created the job in question.
	jobOwner
	// applicationOwner requires the actor to be the applicant of the application in question.
	applicationOwner
)

type key struct {
	role   types.Role
	action Action
}

var table = map[key]grant{
	{types.RoleAnonymous, ActionUserRegister}: allow,
	{types.RoleCompany, ActionUserRegister}:   allow,
	{types.RoleApplicant, ActionUserRegister}: allow,
	{types.RoleAnonymous, ActionUserLogin}:    allow,
	{types.RoleCompany, ActionUserLogin}:      allow,
	{types.RoleApplicant, ActionUserLogin}:    allow,

	{types.RoleCompany, ActionUserRead}:             allow,
	{types.RoleApplicant, ActionUserRead}:           allow,
	{types.RoleCompany, ActionUserUpdate}:           self,
	{types.RoleApplicant, ActionUserUpdate}:         self,
	{types.RoleCompany, ActionUserChangePassword}:   self,
	{types.RoleApplicant, ActionUserChangePassword}: self,
	{types.RoleCompany, ActionUserDeactivate}:       self,
	{types.RoleApplicant, ActionUserDeactivate}:     self,

	{types.RoleAnonymous, ActionJobRead}: allow,
	{types.RoleCompany, ActionJobRead}:   allow,
	{types.RoleApplicant, ActionJobRead}: allow,
	{types.RoleAnonymous, ActionJobList}: allow,
	{types.RoleCompany, ActionJobList}:   allow,
	{types.RoleApplicant, ActionJobList}: allow,
	{types.RoleCompany, ActionJobListOwn}: allow,
	{types.RoleCompany, ActionJobCreate}:  allow,
	{types.RoleCompany, ActionJobUpdate}:  jobOwner,
	{types.RoleCompany, ActionJobDelete}:  jobOwner,

	{types.RoleApplicant, ActionApplicationSubmit}:     allow,
	{types.RoleApplicant, ActionApplicationListOwn}:    allow,
	{types.RoleApplicant, ActionApplicationRead}:       applicationOwner,
	{types.RoleCompany, ActionApplicationRead}:         jobOwner,
	{types.RoleCompany, ActionApplicationListByJob}:    jobOwner,
	{types.RoleCompany, ActionApplicationUpdateStatus}: jobOwner,
	{types.RoleApplicant, ActionApplicationWithdraw}:   applicationOwner,
}

// Actor is whoever is making the request.
type Actor struct {
	ID   uuid.UUID
	Role types.Role
}

// Anonymous is the actor used for requests without a valid token.
var Anonymous = Actor{Role: types.RoleAnonymous}

// Resource carries the ownership facts a decision may depend on. Zero fields mean the
// fact is unknown or not applicable.
type Resource struct {
	UserID      uuid.UUID // target user for self-service actions
	JobOwnerID  uuid.UUID // created_by of the job involved
	ApplicantID uuid.UUID // applicant_id of the application involved
}

// ErrForbidden is returned when the table denies an action.
type ErrForbidden struct {
	Role   types.Role
	Action Action
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("role %s is not permitted to perform %s", e.Role, e.Action)
}

// Can reports whether actor may perform action on res.
func Can(actor Actor, action Action, res Resource) bool {
	g, ok := table[key{actor.Role, action}]
	if !ok {
		return false
	}
	switch g {
	case allow:
		return true
	case self:
		return matches(actor.ID, res.UserID)
	case jobOwner:
		return matches(actor.ID, res.JobOwnerID)
	case applicationOwner:
		return matches(actor.ID, res.ApplicantID)
	}
	return false
}

// Check is Can returning *ErrForbidden on denial.
func Check(actor Actor, action Action, res Resource) error {
	if !Can(actor, action, res) {
		return &ErrForbidden{Role: actor.Role, Action: action}
	}
	return nil
}

// RoleMayAttempt reports whether the role has any entry for the action at all. Services
// use it to reject an actor before loading a resource whose ownership would be checked.
func RoleMayAttempt(role types.Role, action Action) bool {
	_, ok := table[key{role, action}]
	return ok
}

// CheckRole is RoleMayAttempt returning *ErrForbidden on denial.
func CheckRole(actor Actor, action Action) error {
	if !RoleMayAttempt(actor.Role, action) {
		return &ErrForbidden{Role: actor.Role, Action: action}
	}
	return nil
}

func matches(actorID, ownerID uuid.UUID) bool {
	return actorID != uuid.Nil && actorID == ownerID
}
