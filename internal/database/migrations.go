package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// AddIndexes adds the composite indexes the read paths rely on
func AddIndexes(db *gorm.DB, log *slog.Logger) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Top performer rollup filters by status and updated_at, then groups by assignee
		{"tasks", "idx_tasks_status_updated_at", "status, updated_at"},
		{"tasks", "idx_tasks_assigned_to_status", "assigned_to, status"},

		// Task history is read per task in order
		{"task_events", "idx_task_events_task_created", "task_id, created_at"},

		// Conversation loading
		{"messages", "idx_messages_pair_created", "sender_id, receiver_id, created_at"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			log.Debug("index already exists, skipping", slog.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index", slog.String("index", idx.name), slog.String("table", idx.table))
	}

	return nil
}
