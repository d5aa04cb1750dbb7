package repository

import (
	"context"
	"time"

	"github.com/yukikurage/team-task-tracker/internal/models"
	"github.com/yukikurage/team-task-tracker/internal/utils"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with their assignee and creator loaded
	List(ctx context.Context, filter TaskFilter) ([]models.Task, error)

	// Update saves all task columns and, when event is non-nil, records it in the same transaction
	Update(ctx context.Context, task *models.Task, event *models.TaskEvent) error

	// Delete removes a task and its history
	Delete(ctx context.Context, id uint64) error

	// ListEvents returns the status history of a task, oldest first
	ListEvents(ctx context.Context, taskID uint64) ([]models.TaskEvent, error)

	// CountCompletedSince counts tasks per assignee in the given statuses updated at or after since
	CountCompletedSince(ctx context.Context, statuses []models.TaskStatus, since time.Time, limit int) ([]PerformerCount, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	AssignedTo *uint64
	Status     *models.TaskStatus
}

// PerformerCount is one row of the completed-task rollup
type PerformerCount struct {
	UserID         uint64
	Username       string
	TasksCompleted int64
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// ExistsByEmailOrUsername reports whether either identifier is taken
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)

	// List returns every user ordered by ID
	List(ctx context.Context) ([]models.User, error)

	// UpdateRole changes the role of a user
	UpdateRole(ctx context.Context, id uint64, role models.Role) error

	// CountByIDs counts how many of the given user IDs exist
	CountByIDs(ctx context.Context, ids []uint64) (int64, error)
}

// MessageRepository defines the interface for chat message data access
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	FindByID(ctx context.Context, id string) (*models.Message, error)
	Update(ctx context.Context, msg *models.Message) error
	Delete(ctx context.Context, id string) error

	// ListConversation returns messages exchanged between two users, oldest first
	ListConversation(ctx context.Context, userA, userB uint64, params utils.PaginationParams) ([]models.Message, error)
}
