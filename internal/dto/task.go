package dto

import (
	"time"

	"github.com/yukikurage/team-task-tracker/internal/models"
)

// TaskDTO represents a task in API responses. The user columns are joined
// from the directory when the relation was preloaded.
type TaskDTO struct {
	ID                   uint64            `json:"id"`
	Title                string            `json:"title"`
	Description          string            `json:"description"`
	Status               models.TaskStatus `json:"status"`
	CompletionPercentage int               `json:"completion_percentage"`
	DueDate              time.Time         `json:"due_date"`
	AssignedTo           uint64            `json:"assigned_to"`
	CreatedBy            uint64            `json:"created_by"`
	AttachmentURL        *string           `json:"attachment_url"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
	AssignedUsername     string            `json:"assigned_username,omitempty"`
	AssignedRole         models.Role       `json:"assigned_role,omitempty"`
	CreatorUsername      string            `json:"creator_username,omitempty"`
}

// TaskEventDTO represents one status transition
type TaskEventDTO struct {
	ID                   uint64            `json:"id"`
	TaskID               uint64            `json:"task_id"`
	ActorID              uint64            `json:"actor_id"`
	ActorUsername        string            `json:"actor_username,omitempty"`
	FromStatus           models.TaskStatus `json:"from_status"`
	ToStatus             models.TaskStatus `json:"to_status"`
	CompletionPercentage int               `json:"completion_percentage"`
	CreatedAt            time.Time         `json:"created_at"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:                   task.ID,
		Title:                task.Title,
		Description:          task.Description,
		Status:               task.Status,
		CompletionPercentage: task.CompletionPercentage,
		DueDate:              task.DueDate,
		AssignedTo:           task.AssignedTo,
		CreatedBy:            task.CreatedBy,
		AttachmentURL:        task.AttachmentURL,
		CreatedAt:            task.CreatedAt,
		UpdatedAt:            task.UpdatedAt,
	}

	// Include user columns if preloaded
	if task.Assignee.ID != 0 {
		dto.AssignedUsername = task.Assignee.Username
		dto.AssignedRole = task.Assignee.Role
	}
	if task.Creator.ID != 0 {
		dto.CreatorUsername = task.Creator.Username
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks, never returning nil
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return items
}

func ToTaskEventDTOs(events []models.TaskEvent) []TaskEventDTO {
	items := make([]TaskEventDTO, len(events))
	for i, e := range events {
		items[i] = TaskEventDTO{
			ID:                   e.ID,
			TaskID:               e.TaskID,
			ActorID:              e.ActorID,
			ActorUsername:        e.Actor.Username,
			FromStatus:           e.FromStatus,
			ToStatus:             e.ToStatus,
			CompletionPercentage: e.CompletionPercentage,
			CreatedAt:            e.CreatedAt,
		}
	}
	return items
}

// TaskDraftDTO is an AI generated draft, not yet a task
type TaskDraftDTO struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
}
