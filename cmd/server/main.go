package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-task-tracker/internal/config"
	"github.com/yukikurage/team-task-tracker/internal/database"
	"github.com/yukikurage/team-task-tracker/internal/server"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg, logger)
	if err != nil {
		fatal("failed to connect to database", err)
	}

	if err := database.Migrate(db, logger); err != nil {
		fatal("failed to run migrations", err)
	}

	store, err := server.NewSessionStore(cfg)
	if err != nil {
		fatal("failed to create session store", err)
	}

	s := server.New(cfg, db, store, logger)
	if err := s.Bootstrap(context.Background()); err != nil {
		fatal("failed to create bootstrap admin", err)
	}

	if err := s.Run(); err != nil {
		fatal("server stopped", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}
