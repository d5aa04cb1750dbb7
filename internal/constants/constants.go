package constants

// Context and session keys
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUserRole = "user_role"
	ContextKeyUser     = "user"
	ContextKeyTaskID   = "task_id"
	ContextKeyTargetID = "target_user_id"
	SessionCookieName  = "task_session"
)

// Account rules
const (
	MinPasswordLength = 6
)

// Pagination defaults
const (
	MinPageSize     = 1
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Task workflow values
const (
	CompletionDone     = 100
	CompletionRejected = 70
	MinCompletion      = 0
	MaxCompletion      = 100
)

// Stats windows in days
const (
	WeeklyWindowDays  = 7
	MonthlyWindowDays = 30
	TopPerformerLimit = 10
)

// MaxAIGeneratedTasks caps the number of drafts returned from one AI request
const MaxAIGeneratedTasks = 20
