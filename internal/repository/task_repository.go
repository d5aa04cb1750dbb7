package repository

import (
	"context"
	"time"

	"github.com/yukikurage/team-task-tracker/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	var tasks []models.Task

	query := r.db.WithContext(ctx).Model(&models.Task{})

	if filter.AssignedTo != nil {
		query = query.Where("tasks.assigned_to = ?", *filter.AssignedTo)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}

	if err := query.
		Preload("Assignee").
		Preload("Creator").
		Order("tasks.id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}

	return tasks, nil
}

// Update updates a task
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task, event *models.TaskEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(task).Error; err != nil {
			return err
		}

		if event == nil {
			return nil
		}

		event.TaskID = task.ID
		return tx.Omit(clause.Associations).Create(event).Error
	})
}

// Delete removes a task and its events
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskEvent{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Task{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ListEvents returns the status history of a task
func (r *GormTaskRepository) ListEvents(ctx context.Context, taskID uint64) ([]models.TaskEvent, error) {
	var events []models.TaskEvent
	if err := r.db.WithContext(ctx).
		Preload("Actor").
		Where("task_id = ?", taskID).
		Order("created_at ASC, id ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// CountCompletedSince groups matching tasks by assignee, highest count first
func (r *GormTaskRepository) CountCompletedSince(ctx context.Context, statuses []models.TaskStatus, since time.Time, limit int) ([]PerformerCount, error) {
	var rows []PerformerCount

	err := r.db.WithContext(ctx).
		Table("users").
		Select("users.id AS user_id, users.username AS username, COUNT(tasks.id) AS tasks_completed").
		Joins("JOIN tasks ON tasks.assigned_to = users.id").
		Where("tasks.status IN ?", statuses).
		Where("tasks.updated_at >= ?", since).
		Group("users.id, users.username").
		Order("tasks_completed DESC, users.id ASC").
		Limit(limit).
		Scan(&rows).Error

	return rows, err
}
