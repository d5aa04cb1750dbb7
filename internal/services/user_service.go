package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apierrors "github.com/yukikurage/team-task-tracker/internal/errors"
	"github.com/yukikurage/team-task-tracker/internal/metrics"
	"github.com/yukikurage/team-task-tracker/internal/models"
	"github.com/yukikurage/team-task-tracker/internal/policy"
	"github.com/yukikurage/team-task-tracker/internal/repository"
	"gorm.io/gorm"
)

var ErrInvalidRole = apierrors.New(apierrors.ErrValidation, "invalid role")

// UserService manages the user directory.
type UserService struct {
	userRepo repository.UserRepository
	auth     *AuthService
	policy   *policy.Policy
	metrics  metrics.Recorder
	logger   *slog.Logger
}

func NewUserService(
	userRepo repository.UserRepository,
	authService *AuthService,
	pol *policy.Policy,
	rec metrics.Recorder,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		auth:     authService,
		policy:   pol,
		metrics:  rec,
		logger:   logger,
	}
}

// ListUsers returns the whole directory ordered by ID.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// SetUserRole changes the role of userID. Admin only.
func (s *UserService) SetUserRole(ctx context.Context, actor policy.Actor, userID uint64, role models.Role) (*models.User, error) {
	if err := s.policy.CanSetRole(actor); err != nil {
		s.metrics.RecordDenied("set_role", denialReason(err))
		s.logger.WarnContext(ctx, "request denied",
			slog.String("operation", "set_role"),
			slog.Uint64("actor_id", actor.ID),
			slog.Uint64("user_id", userID),
		)
		return nil, err
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.logger.InfoContext(ctx, "user role changed",
		slog.Uint64("user_id", userID),
		slog.String("role", string(role)),
		slog.Uint64("actor_id", actor.ID),
	)

	return s.auth.GetUser(ctx, userID)
}

// BootstrapAdmin describes the admin account seeded at startup.
type BootstrapAdmin struct {
	Username string
	Email    string
	Password string
}

// EnsureAdmin creates the bootstrap admin when neither its email nor its
// username is taken. It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, admin BootstrapAdmin) (bool, error) {
	email := normalizeEmail(admin.Email)

	exists, err := s.userRepo.ExistsByEmailOrUsername(ctx, email, admin.Username)
	if err != nil {
		return false, fmt.Errorf("failed to check bootstrap admin: %w", err)
	}
	if exists {
		return false, nil
	}

	if _, err := s.auth.createUser(ctx, admin.Username, email, admin.Password, models.RoleAdmin); err != nil {
		if errors.Is(err, ErrUserExists) {
			return false, nil
		}
		return false, err
	}

	s.logger.InfoContext(ctx, "bootstrap admin created", slog.String("email", email))
	return true, nil
}
