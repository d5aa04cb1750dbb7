package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/yukikurage/team-task-tracker/internal/auth"
	"github.com/yukikurage/team-task-tracker/internal/chat"
	"github.com/yukikurage/team-task-tracker/internal/config"
	"github.com/yukikurage/team-task-tracker/internal/constants"
	"github.com/yukikurage/team-task-tracker/internal/handlers"
	"github.com/yukikurage/team-task-tracker/internal/metrics"
	"github.com/yukikurage/team-task-tracker/internal/middleware"
	"github.com/yukikurage/team-task-tracker/internal/policy"
	"github.com/yukikurage/team-task-tracker/internal/repository"
	"github.com/yukikurage/team-task-tracker/internal/services"
	"gorm.io/gorm"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config

	logger  *slog.Logger
	limiter *middleware.RateLimiter
	users   *services.UserService
}

// New wires repositories, services and handlers on top of db.
func New(cfg *config.Config, db *gorm.DB, store sessions.Store, logger *slog.Logger) *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Initialize services
	pol := policy.New(policy.Rules{
		AllowRecompleteRejected: cfg.AllowRecompleteRejected,
		StrictFieldEdits:        cfg.StrictFieldEdits,
	})
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.JWTExpiryHrs)*time.Hour)
	authService := services.NewAuthService(userRepo, tokens)
	userService := services.NewUserService(userRepo, authService, pol, collector, logger)
	taskService := services.NewTaskService(taskRepo, userRepo, pol, collector, logger)
	statsService := services.NewStatsService(taskRepo)
	chatService := services.NewChatService(messageRepo, userRepo, chat.NewHub(), collector)

	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}
	draftService := services.NewDraftService(aiService, pol)

	limiter := middleware.NewRateLimiter(cfg.AuthRatePerMinute, 5*time.Minute)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger, collector))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Team Task Tracker API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler(reg)))

	handlers.RegisterRoutes(r, handlers.Handlers{
		Auth:  handlers.NewAuthHandler(authService),
		User:  handlers.NewUserHandler(userService),
		Task:  handlers.NewTaskHandler(taskService, draftService),
		Stats: handlers.NewStatsHandler(statsService),
		Chat:  handlers.NewChatHandler(chatService),
	}, middleware.RequireAuth(authService), limiter.Middleware())

	return &Server{
		Engine:  r,
		DB:      db,
		Config:  cfg,
		logger:  logger,
		limiter: limiter,
		users:   userService,
	}
}

// NewSessionStore builds the cookie or redis session store selected by SESSION_STORE.
func NewSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.SessionStore {
	case "redis":
		redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
		rs, err := redisStore.NewStore(
			10,        // Redis pool size
			"tcp",     // network type
			redisAddr, // Redis address from config
			"",        // password (empty = no password)
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		store = rs
	case "cookie", "":
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	default:
		return nil, fmt.Errorf("unsupported session store %q", cfg.SessionStore)
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// Bootstrap seeds the configured admin account.
func (s *Server) Bootstrap(ctx context.Context) error {
	_, err := s.users.EnsureAdmin(ctx, services.BootstrapAdmin{
		Username: s.Config.AdminUsername,
		Email:    s.Config.AdminEmail,
		Password: s.Config.AdminPassword,
	})
	return err
}

// Run serves until SIGINT or SIGTERM, then drains requests for up to five seconds.
// Open event streams are cancelled through the base context.
func (s *Server) Run() error {
	baseCtx, cancelStreams := context.WithCancel(context.Background())
	defer cancelStreams()

	srv := &http.Server{
		Addr:              ":" + s.Config.ServerPort,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("port", s.Config.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to listen: %w", err)
	case sig := <-quit:
		s.logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	s.limiter.Stop()
	cancelStreams()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.logger.Info("server exited properly")
	return nil
}
