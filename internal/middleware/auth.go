package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-task-tracker/internal/constants"
	apierrors "github.com/yukikurage/team-task-tracker/internal/errors"
	"github.com/yukikurage/team-task-tracker/internal/models"
	"github.com/yukikurage/team-task-tracker/internal/policy"
)

// Authenticator resolves credentials to users. Implemented by services.AuthService.
type Authenticator interface {
	UserIDFromToken(token string) (uint64, error)
	GetUser(ctx context.Context, id uint64) (*models.User, error)
}

// RequireAuth accepts a bearer token or, failing that, the session cookie.
// The user is reloaded on every request so role changes apply immediately.
func RequireAuth(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := credentialUserID(c, authenticator)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		user, err := authenticator.GetUser(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, apierrors.ErrNotFound) {
				apierrors.Unauthorized(c, "")
			} else {
				apierrors.Respond(c, err)
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyUserRole, user.Role)
		c.Set(constants.ContextKeyUser, user)
		c.Next()
	}
}

func credentialUserID(c *gin.Context, authenticator Authenticator) (uint64, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			return 0, false
		}
		userID, err := authenticator.UserIDFromToken(token)
		if err != nil {
			return 0, false
		}
		return userID, true
	}

	session := sessions.Default(c)
	return toUint64(session.Get(constants.ContextKeyUserID))
}

// RequireRole aborts with 403 unless the authenticated user holds one of roles
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}

		apierrors.Forbidden(c, "insufficient role")
		c.Abort()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUint64(userID)
}

func GetUserRole(c *gin.Context) (models.Role, bool) {
	role, exists := c.Get(constants.ContextKeyUserRole)
	if !exists {
		return "", false
	}
	r, ok := role.(models.Role)
	return r, ok
}

// GetActor returns the authenticated user as a policy actor
func GetActor(c *gin.Context) (policy.Actor, bool) {
	userID, ok := GetUserID(c)
	if !ok {
		return policy.Actor{}, false
	}
	role, ok := GetUserRole(c)
	if !ok {
		return policy.Actor{}, false
	}
	return policy.Actor{ID: userID, Role: role}, true
}

func toUint64(v interface{}) (uint64, bool) {
	switch v := v.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case float64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
