package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/team-task-tracker/internal/errors"
)

// RequireIDParam parses the numeric path parameter param and stores it under key
func RequireIDParam(param, key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param(param), 10, 64)
		if err != nil || id == 0 {
			apierrors.BadRequest(c, "Invalid "+param)
			c.Abort()
			return
		}

		c.Set(key, id)
		c.Next()
	}
}

// GetIDParam returns an ID stored by RequireIDParam
func GetIDParam(c *gin.Context, key string) (uint64, bool) {
	v, exists := c.Get(key)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}
