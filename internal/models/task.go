package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusApproved   TaskStatus = "approved"
	TaskStatusRejected   TaskStatus = "rejected"
)

// Valid reports whether s is a known task status
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted,
		TaskStatusApproved, TaskStatusRejected:
		return true
	}
	return false
}

type Task struct {
	ID                   uint64     `gorm:"primarykey" json:"id"`
	Title                string     `gorm:"type:varchar(255);not null" json:"title"`
	Description          string     `gorm:"type:text;not null" json:"description"`
	Status               TaskStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CompletionPercentage int        `gorm:"not null;default:0" json:"completion_percentage"`
	DueDate              time.Time  `gorm:"not null" json:"due_date"`
	AssignedTo           uint64     `gorm:"not null;index" json:"assigned_to"`
	CreatedBy            uint64     `gorm:"not null;index" json:"created_by"`
	AttachmentURL        *string    `gorm:"type:varchar(1024)" json:"attachment_url"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `gorm:"index" json:"updated_at"`

	// Relations
	Assignee User        `gorm:"foreignKey:AssignedTo" json:"-"`
	Creator  User        `gorm:"foreignKey:CreatedBy" json:"-"`
	Events   []TaskEvent `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
}
