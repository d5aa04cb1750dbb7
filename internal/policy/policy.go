// Package policy decides whether an actor may perform a task mutation.
//
// Every function here is pure: it looks only at the actor, the task as read at
// the start of the request and the requested change. Callers must evaluate the
// policy before applying any field to the task.
package policy

import (
	"github.com/yukikurage/team-task-tracker/internal/constants"
	apierrors "github.com/yukikurage/team-task-tracker/internal/errors"
	"github.com/yukikurage/team-task-tracker/internal/models"
)

var (
	ErrAdminOnly         = apierrors.New(apierrors.ErrForbidden, "only an admin can perform this action")
	ErrNotAssignee       = apierrors.New(apierrors.ErrForbidden, "only the assigned user or an admin can change this task")
	ErrNotReviewer       = apierrors.New(apierrors.ErrForbidden, "only a team lead or admin can approve or reject a task")
	ErrAlreadyCompleted  = apierrors.New(apierrors.ErrForbidden, "task is already completed")
	ErrInvalidTransition = apierrors.New(apierrors.ErrForbidden, "status transition is not allowed")
)

// Actor is the authenticated user issuing a request.
type Actor struct {
	ID   uint64
	Role models.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// IsReviewer reports whether the actor may approve or reject completed work.
func (a Actor) IsReviewer() bool {
	return a.Role == models.RoleTeamLead || a.Role == models.RoleAdmin
}

// Rules holds the configurable parts of the workflow.
type Rules struct {
	// AllowRecompleteRejected lets a rejected task be reopened or completed again.
	AllowRecompleteRejected bool
	// StrictFieldEdits limits non-status field edits to the assignee or an admin.
	StrictFieldEdits bool
}

// DefaultRules matches the permissive behaviour of the existing clients.
func DefaultRules() Rules {
	return Rules{
		AllowRecompleteRejected: true,
		StrictFieldEdits:        false,
	}
}

// Mutation describes what a request wants to change on a task.
type Mutation struct {
	// Status is the requested status, nil when the status is not being changed.
	Status *models.TaskStatus
	// FieldEdits is true when any non-status field is being changed.
	FieldEdits bool
}

// Decision is the outcome of an allowed mutation.
type Decision struct {
	// Status the task ends up in.
	Status models.TaskStatus
	// Completion overrides completion_percentage when non-nil.
	Completion *int
	// Transition is true when Status differs from the task's current status.
	Transition bool
}

type Policy struct {
	rules Rules
}

func New(rules Rules) *Policy {
	return &Policy{rules: rules}
}

func (p *Policy) Rules() Rules {
	return p.rules
}

func (p *Policy) CanCreateTask(actor Actor) error {
	if !actor.IsAdmin() {
		return ErrAdminOnly
	}
	return nil
}

func (p *Policy) CanDeleteTask(actor Actor) error {
	if !actor.IsAdmin() {
		return ErrAdminOnly
	}
	return nil
}

func (p *Policy) CanSetRole(actor Actor) error {
	if !actor.IsAdmin() {
		return ErrAdminOnly
	}
	return nil
}

// AuthorizeUpdate checks a combined field/status update against task.
func (p *Policy) AuthorizeUpdate(actor Actor, task *models.Task, m Mutation) (Decision, error) {
	if m.FieldEdits && p.rules.StrictFieldEdits && !worksOn(actor, task) {
		return Decision{}, ErrNotAssignee
	}

	if m.Status == nil {
		return Decision{Status: task.Status}, nil
	}

	return p.Transition(actor, task, *m.Status)
}

// Transition checks a status change from the task's current status to to.
func (p *Policy) Transition(actor Actor, task *models.Task, to models.TaskStatus) (Decision, error) {
	from := task.Status

	switch to {
	case models.TaskStatusCompleted:
		if from == models.TaskStatusCompleted {
			return Decision{}, ErrAlreadyCompleted
		}
		if from == models.TaskStatusRejected && !p.rules.AllowRecompleteRejected {
			return Decision{}, ErrInvalidTransition
		}
		if !worksOn(actor, task) {
			return Decision{}, ErrNotAssignee
		}
		return Decision{Status: to, Completion: intPtr(constants.CompletionDone), Transition: true}, nil

	case models.TaskStatusApproved, models.TaskStatusRejected:
		// resending the reviewed status leaves the task as it is
		if from == to {
			return Decision{Status: to}, nil
		}
		if from != models.TaskStatusCompleted {
			return Decision{}, ErrInvalidTransition
		}
		if !actor.IsReviewer() {
			return Decision{}, ErrNotReviewer
		}
		d := Decision{Status: to, Transition: true}
		if to == models.TaskStatusRejected {
			d.Completion = intPtr(constants.CompletionRejected)
		}
		return d, nil

	case models.TaskStatusPending, models.TaskStatusInProgress:
		switch from {
		case models.TaskStatusPending, models.TaskStatusInProgress:
		case models.TaskStatusRejected:
			if !p.rules.AllowRecompleteRejected {
				return Decision{}, ErrInvalidTransition
			}
		default:
			return Decision{}, ErrInvalidTransition
		}
		if !worksOn(actor, task) {
			return Decision{}, ErrNotAssignee
		}
		return Decision{Status: to, Transition: from != to}, nil
	}

	return Decision{}, ErrInvalidTransition
}

// worksOn reports whether actor holds completion rights on task.
func worksOn(actor Actor, task *models.Task) bool {
	return actor.IsAdmin() || actor.ID == task.AssignedTo
}

func intPtr(v int) *int {
	return &v
}
