package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/team-task-tracker/internal/constants"
	apierrors "github.com/yukikurage/team-task-tracker/internal/errors"
	"github.com/yukikurage/team-task-tracker/internal/policy"
)

var (
	ErrAIServiceNotConfigured = apierrors.New(apierrors.ErrUnavailable, "AI service is not configured")
	ErrDraftTextRequired      = apierrors.New(apierrors.ErrValidation, "text is required")
	ErrAINoTasksGenerated     = apierrors.New(apierrors.ErrValidation, "AI did not generate any tasks")
	ErrAITooManyTasks         = apierrors.New(apierrors.ErrValidation, fmt.Sprintf("AI generated too many tasks (max %d)", constants.MaxAIGeneratedTasks))
)

type AIService struct {
	client *openai.Client
	now    func() time.Time
}

// GeneratedTask is a task draft. Nothing is persisted until an admin creates it.
type GeneratedTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

func NewAIService(apiKey string) *AIService {
	return NewAIServiceWithConfig(openai.DefaultConfig(apiKey))
}

func NewAIServiceWithConfig(cfg openai.ClientConfig) *AIService {
	return &AIService{
		client: openai.NewClientWithConfig(cfg),
		now:    time.Now,
	}
}

// GenerateTasksFromText analyzes text and extracts tasks using OpenAI GPT
func (s *AIService) GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	currentTime := s.now().UTC().Format(time.RFC3339)
	prompt := fmt.Sprintf(`You extract actionable work items for a team task tracker.

Current time: %s

Text:
%s

Return a JSON array of the tasks you found:
[
  {
    "title": "short task title",
    "description": "what needs to be done",
    "due_date": "deadline in RFC3339, e.g. 2025-10-28T23:59:59Z, or null when none is given"
  }
]

Rules:
- Return [] when the text contains no task
- Convert relative deadlines ("tomorrow", "next week") into absolute dates
- due_date must be an RFC3339 string or null
- Return only JSON, no prose`, currentTime, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var tasks []GeneratedTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	return tasks, nil
}

// DraftService turns free text into task drafts for admins.
type DraftService struct {
	ai     *AIService
	policy *policy.Policy
}

// NewDraftService accepts a nil ai, in which case every call reports the
// service as unavailable.
func NewDraftService(ai *AIService, pol *policy.Policy) *DraftService {
	return &DraftService{ai: ai, policy: pol}
}

// DraftTasks asks the model for drafts and drops the ones without a title.
// Due dates already in the past are cleared.
func (s *DraftService) DraftTasks(ctx context.Context, actor policy.Actor, text string) ([]GeneratedTask, error) {
	if err := s.policy.CanCreateTask(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrDraftTextRequired
	}
	if s.ai == nil {
		return nil, ErrAIServiceNotConfigured
	}

	aiTasks, err := s.ai.GenerateTasksFromText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		return nil, ErrAITooManyTasks
	}

	drafts := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := s.ai.now().Add(-24 * time.Hour)
	for _, t := range aiTasks {
		if strings.TrimSpace(t.Title) == "" {
			continue
		}
		if t.DueDate != nil && t.DueDate.Before(cutoff) {
			t.DueDate = nil
		}
		drafts = append(drafts, t)
	}

	if len(drafts) == 0 {
		return nil, ErrAINoTasksGenerated
	}

	return drafts, nil
}

// stripCodeFence removes a markdown code fence the model sometimes wraps JSON in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
