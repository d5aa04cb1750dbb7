package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-task-tracker/internal/metrics"
)

// RequestLogger writes one structured line per request and counts the
// response status. The level follows the status class.
func RequestLogger(logger *slog.Logger, rec metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		rec.RecordHTTPStatus(status)

		durationMs := float64(time.Since(start).Nanoseconds()) / float64(time.Millisecond)
		args := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Float64("duration_ms", durationMs),
		}
		if userID, ok := GetUserID(c); ok {
			args = append(args, slog.Uint64("user_id", userID))
		}

		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}

		logger.Log(c.Request.Context(), level, "http_request", args...)
	}
}
