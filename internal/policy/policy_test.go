package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/team-task-tracker/internal/errors"
	"github.com/yukikurage/team-task-tracker/internal/models"
)

const (
	assigneeID = uint64(10)
	otherID    = uint64(20)
	adminID    = uint64(1)
	leadID     = uint64(2)
)

var (
	assignee = Actor{ID: assigneeID, Role: models.RoleEmployee}
	other    = Actor{ID: otherID, Role: models.RoleEmployee}
	admin    = Actor{ID: adminID, Role: models.RoleAdmin}
	lead     = Actor{ID: leadID, Role: models.RoleTeamLead}
)

func taskIn(status models.TaskStatus) *models.Task {
	return &models.Task{ID: 1, Status: status, AssignedTo: assigneeID, CompletionPercentage: 40}
}

func status(s models.TaskStatus) *models.TaskStatus {
	return &s
}

func TestTransition(t *testing.T) {
	p := New(DefaultRules())

	tests := []struct {
		name       string
		actor      Actor
		from       models.TaskStatus
		to         models.TaskStatus
		wantErr    error
		completion *int
	}{
		{"assignee completes pending", assignee, models.TaskStatusPending, models.TaskStatusCompleted, nil, intPtr(100)},
		{"admin completes in progress", admin, models.TaskStatusInProgress, models.TaskStatusCompleted, nil, intPtr(100)},
		{"other employee cannot complete", other, models.TaskStatusPending, models.TaskStatusCompleted, ErrNotAssignee, nil},
		{"team lead not assigned cannot complete", lead, models.TaskStatusPending, models.TaskStatusCompleted, ErrNotAssignee, nil},
		{"already completed", assignee, models.TaskStatusCompleted, models.TaskStatusCompleted, ErrAlreadyCompleted, nil},
		{"approved task can be completed again", assignee, models.TaskStatusApproved, models.TaskStatusCompleted, nil, intPtr(100)},
		{"rejected task can be completed again", assignee, models.TaskStatusRejected, models.TaskStatusCompleted, nil, intPtr(100)},
		{"lead approves completed", lead, models.TaskStatusCompleted, models.TaskStatusApproved, nil, nil},
		{"admin rejects completed", admin, models.TaskStatusCompleted, models.TaskStatusRejected, nil, intPtr(70)},
		{"employee cannot approve", assignee, models.TaskStatusCompleted, models.TaskStatusApproved, ErrNotReviewer, nil},
		{"employee cannot reject", other, models.TaskStatusCompleted, models.TaskStatusRejected, ErrNotReviewer, nil},
		{"cannot approve pending", lead, models.TaskStatusPending, models.TaskStatusApproved, ErrInvalidTransition, nil},
		{"cannot reject approved", admin, models.TaskStatusApproved, models.TaskStatusRejected, ErrInvalidTransition, nil},
		{"approved resent on approved task", other, models.TaskStatusApproved, models.TaskStatusApproved, nil, nil},
		{"rejected resent on rejected task", assignee, models.TaskStatusRejected, models.TaskStatusRejected, nil, nil},
		{"assignee starts work", assignee, models.TaskStatusPending, models.TaskStatusInProgress, nil, nil},
		{"assignee pauses work", assignee, models.TaskStatusInProgress, models.TaskStatusPending, nil, nil},
		{"other cannot start work", other, models.TaskStatusPending, models.TaskStatusInProgress, ErrNotAssignee, nil},
		{"completed cannot go back to pending", admin, models.TaskStatusCompleted, models.TaskStatusPending, ErrInvalidTransition, nil},
		{"rejected can be reopened", assignee, models.TaskStatusRejected, models.TaskStatusInProgress, nil, nil},
		{"unknown status", admin, models.TaskStatusPending, models.TaskStatus("archived"), ErrInvalidTransition, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := p.Transition(tt.actor, taskIn(tt.from), tt.to)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, errors.Is(err, apierrors.ErrForbidden))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, d.Status)
			assert.Equal(t, tt.completion, d.Completion)
		})
	}
}

func TestTransition_RecompleteRejectedDisabled(t *testing.T) {
	p := New(Rules{AllowRecompleteRejected: false})

	_, err := p.Transition(assignee, taskIn(models.TaskStatusRejected), models.TaskStatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = p.Transition(assignee, taskIn(models.TaskStatusRejected), models.TaskStatusInProgress)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransition_SameStatusIsNotATransition(t *testing.T) {
	p := New(DefaultRules())

	d, err := p.Transition(assignee, taskIn(models.TaskStatusPending), models.TaskStatusPending)
	require.NoError(t, err)
	assert.False(t, d.Transition)

	for _, st := range []models.TaskStatus{models.TaskStatusApproved, models.TaskStatusRejected} {
		d, err = p.AuthorizeUpdate(other, taskIn(st), Mutation{Status: status(st), FieldEdits: true})
		require.NoError(t, err, st)
		assert.False(t, d.Transition, st)
		assert.Equal(t, st, d.Status)
		assert.Nil(t, d.Completion)
	}

	_, err = p.Transition(assignee, taskIn(models.TaskStatusCompleted), models.TaskStatusCompleted)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestAuthorizeUpdate_FieldEdits(t *testing.T) {
	task := taskIn(models.TaskStatusPending)

	permissive := New(DefaultRules())
	d, err := permissive.AuthorizeUpdate(other, task, Mutation{FieldEdits: true})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusPending, d.Status)
	assert.Nil(t, d.Completion)

	strict := New(Rules{AllowRecompleteRejected: true, StrictFieldEdits: true})
	_, err = strict.AuthorizeUpdate(other, task, Mutation{FieldEdits: true})
	assert.ErrorIs(t, err, ErrNotAssignee)

	_, err = strict.AuthorizeUpdate(assignee, task, Mutation{FieldEdits: true})
	assert.NoError(t, err)

	_, err = strict.AuthorizeUpdate(admin, task, Mutation{FieldEdits: true})
	assert.NoError(t, err)
}

func TestAuthorizeUpdate_StatusGuardRunsWithFieldEdits(t *testing.T) {
	p := New(DefaultRules())

	_, err := p.AuthorizeUpdate(other, taskIn(models.TaskStatusPending), Mutation{
		Status:     status(models.TaskStatusCompleted),
		FieldEdits: true,
	})
	assert.ErrorIs(t, err, ErrNotAssignee)
}

func TestAdminOnlyOperations(t *testing.T) {
	p := New(DefaultRules())

	for _, actor := range []Actor{assignee, lead} {
		assert.ErrorIs(t, p.CanCreateTask(actor), ErrAdminOnly)
		assert.ErrorIs(t, p.CanDeleteTask(actor), ErrAdminOnly)
		assert.ErrorIs(t, p.CanSetRole(actor), ErrAdminOnly)
	}

	assert.NoError(t, p.CanCreateTask(admin))
	assert.NoError(t, p.CanDeleteTask(admin))
	assert.NoError(t, p.CanSetRole(admin))
}
