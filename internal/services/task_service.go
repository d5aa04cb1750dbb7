package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yukikurage/team-task-tracker/internal/constants"
	apierrors "github.com/yukikurage/team-task-tracker/internal/errors"
	"github.com/yukikurage/team-task-tracker/internal/metrics"
	"github.com/yukikurage/team-task-tracker/internal/models"
	"github.com/yukikurage/team-task-tracker/internal/policy"
	"github.com/yukikurage/team-task-tracker/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound         = apierrors.New(apierrors.ErrNotFound, "task not found")
	ErrRequiredFieldMissing = apierrors.New(apierrors.ErrValidation, "title, description, dueDate and assignedTo are required")
	ErrTitleEmpty           = apierrors.New(apierrors.ErrValidation, "title cannot be empty")
	ErrInvalidStatus        = apierrors.New(apierrors.ErrValidation, "invalid task status")
	ErrInvalidCompletion    = apierrors.New(apierrors.ErrValidation, "completionPercentage must be between 0 and 100")
	ErrInvalidTaskUser      = apierrors.New(apierrors.ErrValidation, "referenced user does not exist")
	ErrNoFieldsToUpdate     = apierrors.New(apierrors.ErrValidation, "no fields to update")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	policy   *policy.Policy
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	pol *policy.Policy,
	rec metrics.Recorder,
	logger *slog.Logger,
) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		policy:   pol,
		metrics:  rec,
		logger:   logger,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title                string
	Description          string
	DueDate              *time.Time
	AssignedTo           uint64
	CreatedBy            *uint64
	Status               *models.TaskStatus
	CompletionPercentage *int
	AttachmentURL        *string
}

// UpdateTaskInput carries the allow-listed task fields. Nil means unchanged.
type UpdateTaskInput struct {
	Title                *string
	Description          *string
	Status               *models.TaskStatus
	CompletionPercentage *int
	DueDate              *time.Time
	AssignedTo           *uint64
	AttachmentURL        *string
}

func (in UpdateTaskInput) hasFieldEdits() bool {
	return in.Title != nil || in.Description != nil || in.CompletionPercentage != nil ||
		in.DueDate != nil || in.AssignedTo != nil || in.AttachmentURL != nil
}

// ListTasks returns every task, optionally filtered by status
func (s *TaskService) ListTasks(ctx context.Context, status *models.TaskStatus) ([]models.Task, error) {
	if status != nil && !status.Valid() {
		return nil, ErrInvalidStatus
	}

	tasks, err := s.taskRepo.List(ctx, repository.TaskFilter{Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// ListTasksForUser returns the tasks assigned to userID
func (s *TaskService) ListTasksForUser(ctx context.Context, userID uint64) ([]models.Task, error) {
	tasks, err := s.taskRepo.List(ctx, repository.TaskFilter{AssignedTo: &userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns a task with its assignee and creator
func (s *TaskService) GetTask(ctx context.Context, taskID uint64) (*models.Task, error) {
	return s.findTask(ctx, taskID, "Assignee", "Creator")
}

// CreateTask validates input and persists a new task. Admin only.
func (s *TaskService) CreateTask(ctx context.Context, actor policy.Actor, input CreateTaskInput) (*models.Task, error) {
	if err := s.policy.CanCreateTask(actor); err != nil {
		s.denied("create_task", actor, 0, err)
		return nil, err
	}

	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Description) == "" ||
		input.DueDate == nil || input.AssignedTo == 0 {
		return nil, ErrRequiredFieldMissing
	}

	task := &models.Task{
		Title:         input.Title,
		Description:   input.Description,
		Status:        models.TaskStatusPending,
		DueDate:       input.DueDate.UTC(),
		AssignedTo:    input.AssignedTo,
		CreatedBy:     actor.ID,
		AttachmentURL: input.AttachmentURL,
	}

	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		task.Status = *input.Status
	}
	if input.CompletionPercentage != nil {
		if !validCompletion(*input.CompletionPercentage) {
			return nil, ErrInvalidCompletion
		}
		task.CompletionPercentage = *input.CompletionPercentage
	}
	if input.CreatedBy != nil {
		task.CreatedBy = *input.CreatedBy
	}

	if err := s.ensureUsersExist(ctx, task.AssignedTo, task.CreatedBy); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.InfoContext(ctx, "task created",
		slog.Uint64("task_id", task.ID),
		slog.Uint64("assigned_to", task.AssignedTo),
		slog.Uint64("actor_id", actor.ID),
	)

	return s.GetTask(ctx, task.ID)
}

// UpdateTask applies an allow-listed update after checking it against the
// policy. The task is written once, together with a history row when the
// status changes.
func (s *TaskService) UpdateTask(ctx context.Context, actor policy.Actor, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	if input.Status == nil && !input.hasFieldEdits() {
		return nil, ErrNoFieldsToUpdate
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, ErrTitleEmpty
	}
	if input.CompletionPercentage != nil && !validCompletion(*input.CompletionPercentage) {
		return nil, ErrInvalidCompletion
	}

	current, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	decision, err := s.policy.AuthorizeUpdate(actor, current, policy.Mutation{
		Status:     input.Status,
		FieldEdits: input.hasFieldEdits(),
	})
	if err != nil {
		s.denied("update_task", actor, taskID, err)
		return nil, err
	}

	if input.AssignedTo != nil {
		if err := s.ensureUsersExist(ctx, *input.AssignedTo); err != nil {
			return nil, err
		}
	}

	next := *current
	if input.Title != nil {
		next.Title = *input.Title
	}
	if input.Description != nil {
		next.Description = *input.Description
	}
	if input.CompletionPercentage != nil {
		next.CompletionPercentage = *input.CompletionPercentage
	}
	if input.DueDate != nil {
		next.DueDate = input.DueDate.UTC()
	}
	if input.AssignedTo != nil {
		next.AssignedTo = *input.AssignedTo
	}
	if input.AttachmentURL != nil {
		if *input.AttachmentURL == "" {
			next.AttachmentURL = nil
		} else {
			next.AttachmentURL = input.AttachmentURL
		}
	}

	next.Status = decision.Status
	if decision.Completion != nil {
		next.CompletionPercentage = *decision.Completion
	}

	var event *models.TaskEvent
	if decision.Transition {
		event = &models.TaskEvent{
			ActorID:              actor.ID,
			FromStatus:           current.Status,
			ToStatus:             next.Status,
			CompletionPercentage: next.CompletionPercentage,
		}
	}

	if err := s.taskRepo.Update(ctx, &next, event); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if event != nil {
		s.metrics.RecordTransition(string(event.FromStatus), string(event.ToStatus))
		s.logger.InfoContext(ctx, "task status changed",
			slog.Uint64("task_id", taskID),
			slog.String("from", string(event.FromStatus)),
			slog.String("to", string(event.ToStatus)),
			slog.Uint64("actor_id", actor.ID),
		)
	}

	return s.GetTask(ctx, taskID)
}

// DeleteTask removes a task and its history. Admin only.
func (s *TaskService) DeleteTask(ctx context.Context, actor policy.Actor, taskID uint64) error {
	if err := s.policy.CanDeleteTask(actor); err != nil {
		s.denied("delete_task", actor, taskID, err)
		return err
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.InfoContext(ctx, "task deleted",
		slog.Uint64("task_id", taskID),
		slog.Uint64("actor_id", actor.ID),
	)
	return nil
}

// TaskHistory returns the status transitions of a task, oldest first
func (s *TaskService) TaskHistory(ctx context.Context, taskID uint64) ([]models.TaskEvent, error) {
	if _, err := s.findTask(ctx, taskID); err != nil {
		return nil, err
	}

	events, err := s.taskRepo.ListEvents(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list task history: %w", err)
	}
	return events, nil
}

func (s *TaskService) findTask(ctx context.Context, taskID uint64, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// ensureUsersExist verifies that every referenced user is in the directory
func (s *TaskService) ensureUsersExist(ctx context.Context, ids ...uint64) error {
	unique := uniqueUint64(ids)

	count, err := s.userRepo.CountByIDs(ctx, unique)
	if err != nil {
		return fmt.Errorf("failed to verify users: %w", err)
	}
	if int(count) != len(unique) {
		return ErrInvalidTaskUser
	}
	return nil
}

func (s *TaskService) denied(operation string, actor policy.Actor, taskID uint64, err error) {
	reason := denialReason(err)
	s.metrics.RecordDenied(operation, reason)
	s.logger.Warn("request denied",
		slog.String("operation", operation),
		slog.String("reason", reason),
		slog.Uint64("actor_id", actor.ID),
		slog.String("role", string(actor.Role)),
		slog.Uint64("task_id", taskID),
	)
}

func denialReason(err error) string {
	switch {
	case errors.Is(err, policy.ErrAdminOnly):
		return "admin_only"
	case errors.Is(err, policy.ErrNotAssignee):
		return "not_assignee"
	case errors.Is(err, policy.ErrNotReviewer):
		return "not_reviewer"
	case errors.Is(err, policy.ErrAlreadyCompleted):
		return "already_completed"
	case errors.Is(err, policy.ErrInvalidTransition):
		return "invalid_transition"
	default:
		return "other"
	}
}

func validCompletion(v int) bool {
	return v >= constants.MinCompletion && v <= constants.MaxCompletion
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
