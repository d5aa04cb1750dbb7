package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yukikurage/team-task-tracker/internal/constants"
	"github.com/yukikurage/team-task-tracker/internal/models"
	"github.com/yukikurage/team-task-tracker/internal/repository"
)

// finishedStatuses count towards the leaderboard.
var finishedStatuses = []models.TaskStatus{models.TaskStatusCompleted, models.TaskStatusApproved}

// TopPerformers holds the weekly and monthly leaderboards.
type TopPerformers struct {
	Weekly  []repository.PerformerCount
	Monthly []repository.PerformerCount
}

// StatsService aggregates completed work per user. Nothing is cached.
type StatsService struct {
	taskRepo repository.TaskRepository
	now      func() time.Time
}

func NewStatsService(taskRepo repository.TaskRepository) *StatsService {
	return &StatsService{taskRepo: taskRepo, now: time.Now}
}

// TopPerformers counts completed or approved tasks per assignee over the
// last 7 and 30 days.
func (s *StatsService) TopPerformers(ctx context.Context) (*TopPerformers, error) {
	now := s.now().UTC()

	weekly, err := s.window(ctx, now, constants.WeeklyWindowDays)
	if err != nil {
		return nil, err
	}
	monthly, err := s.window(ctx, now, constants.MonthlyWindowDays)
	if err != nil {
		return nil, err
	}

	return &TopPerformers{Weekly: weekly, Monthly: monthly}, nil
}

func (s *StatsService) window(ctx context.Context, now time.Time, days int) ([]repository.PerformerCount, error) {
	since := now.Add(-time.Duration(days) * 24 * time.Hour)

	rows, err := s.taskRepo.CountCompletedSince(ctx, finishedStatuses, since, constants.TopPerformerLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %d-day performers: %w", days, err)
	}
	if rows == nil {
		rows = []repository.PerformerCount{}
	}
	return rows, nil
}
