package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/team-task-tracker/internal/auth"
	"github.com/yukikurage/team-task-tracker/internal/chat"
	"github.com/yukikurage/team-task-tracker/internal/constants"
	"github.com/yukikurage/team-task-tracker/internal/metrics"
	"github.com/yukikurage/team-task-tracker/internal/middleware"
	"github.com/yukikurage/team-task-tracker/internal/models"
	"github.com/yukikurage/team-task-tracker/internal/policy"
	"github.com/yukikurage/team-task-tracker/internal/repository"
	"github.com/yukikurage/team-task-tracker/internal/services"
	"github.com/yukikurage/team-task-tracker/internal/testutil"
	"gorm.io/gorm"
)

// apiEnv is a fully wired router backed by an in-memory database.
type apiEnv struct {
	db     *gorm.DB
	router *gin.Engine
	tokens *auth.TokenIssuer
	hub    *chat.Hub
}

func setupAPI(t *testing.T) apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenIssuer("test-secret-key", time.Hour)
	pol := policy.New(policy.DefaultRules())
	hub := chat.NewHub()

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	authService := services.NewAuthService(userRepo, tokens)
	userService := services.NewUserService(userRepo, authService, pol, metrics.Nop{}, logger)
	taskService := services.NewTaskService(taskRepo, userRepo, pol, metrics.Nop{}, logger)
	chatService := services.NewChatService(repository.NewMessageRepository(db), userRepo, hub, metrics.Nop{})

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	RegisterRoutes(r, Handlers{
		Auth:  NewAuthHandler(authService),
		User:  NewUserHandler(userService),
		Task:  NewTaskHandler(taskService, services.NewDraftService(nil, pol)),
		Stats: NewStatsHandler(services.NewStatsService(taskRepo)),
		Chat:  NewChatHandler(chatService),
	}, middleware.RequireAuth(authService), func(c *gin.Context) { c.Next() })

	return apiEnv{db: db, router: r, tokens: tokens, hub: hub}
}

func (env apiEnv) user(t *testing.T, username string, role models.Role) (*models.User, string) {
	t.Helper()

	user := testutil.CreateUser(t, env.db, username, role)
	token, err := env.tokens.Generate(user)
	require.NoError(t, err)
	return user, token
}

func (env apiEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
