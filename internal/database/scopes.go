package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/team-task-tracker/internal/utils"
)

// Paginate applies offset and limit
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// Conversation matches messages exchanged between two users in either direction, oldest first
func Conversation(userA, userB uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userA, userB, userB, userA).
			Order("created_at ASC, id ASC")
	}
}
