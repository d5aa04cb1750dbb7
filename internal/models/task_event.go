package models

import "time"

// TaskEvent records a single status transition of a task
type TaskEvent struct {
	ID                   uint64     `gorm:"primarykey" json:"id"`
	TaskID               uint64     `gorm:"not null;index" json:"task_id"`
	ActorID              uint64     `gorm:"not null" json:"actor_id"`
	FromStatus           TaskStatus `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus             TaskStatus `gorm:"type:varchar(20);not null" json:"to_status"`
	CompletionPercentage int        `gorm:"not null" json:"completion_percentage"`
	CreatedAt            time.Time  `json:"created_at"`

	Actor User `gorm:"foreignKey:ActorID" json:"-"`
}
