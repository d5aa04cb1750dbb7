package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/team-task-tracker/internal/auth"
	"github.com/yukikurage/team-task-tracker/internal/constants"
	apierrors "github.com/yukikurage/team-task-tracker/internal/errors"
	"github.com/yukikurage/team-task-tracker/internal/models"
	"github.com/yukikurage/team-task-tracker/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserExists           = apierrors.New(apierrors.ErrConflict, "user already exists")
	ErrInvalidCredentials   = apierrors.New(apierrors.ErrUnauthorized, "invalid email or password")
	ErrRegistrationMissing  = apierrors.New(apierrors.ErrValidation, "username, email and password are required")
	ErrPasswordTooShort     = apierrors.New(apierrors.ErrValidation, fmt.Sprintf("password must be at least %d characters", constants.MinPasswordLength))
	ErrUserNotFound         = apierrors.New(apierrors.ErrNotFound, "user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService handles registration, login and token issuance.
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenIssuer
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  *models.User
	Token string
}

// Register creates a new employee account and issues a token for it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	email := normalizeEmail(input.Email)
	if username == "" || email == "" || input.Password == "" {
		return nil, ErrRegistrationMissing
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	exists, err := s.userRepo.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	user, err := s.createUser(ctx, username, email, input.Password, models.RoleEmployee)
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

// Login verifies credentials and returns the authenticated user with a token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// UserIDFromToken resolves a bearer token to the user it was issued for.
func (s *AuthService) UserIDFromToken(token string) (uint64, error) {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return 0, apierrors.New(apierrors.ErrUnauthorized, "invalid or expired token")
	}
	return id, nil
}

func (s *AuthService) createUser(ctx context.Context, username, email, password string, role models.Role) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
