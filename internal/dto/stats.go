package dto

import "github.com/yukikurage/team-task-tracker/internal/repository"

// PerformerDTO keeps the camelCase keys the dashboard reads
type PerformerDTO struct {
	UserID         uint64 `json:"userId"`
	Username       string `json:"username"`
	TasksCompleted int64  `json:"tasksCompleted"`
}

type TopPerformersResponse struct {
	Weekly  []PerformerDTO `json:"weekly"`
	Monthly []PerformerDTO `json:"monthly"`
}

func ToPerformerDTOs(rows []repository.PerformerCount) []PerformerDTO {
	items := make([]PerformerDTO, len(rows))
	for i, r := range rows {
		items[i] = PerformerDTO{
			UserID:         r.UserID,
			Username:       r.Username,
			TasksCompleted: r.TasksCompleted,
		}
	}
	return items
}
