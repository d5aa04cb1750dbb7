package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-task-tracker/internal/constants"
)

// PaginationParams selects one page of results. Page is 1-based.
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// NewPaginationParams clamps page to at least one and falls back to the
// default page size when limit is out of range.
func NewPaginationParams(page, limit int) PaginationParams {
	if page < 1 {
		page = 1
	}
	if limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}
	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// GetPaginationParams reads ?page= and ?limit=; unparsable values use the defaults
func GetPaginationParams(c *gin.Context) PaginationParams {
	return NewPaginationParams(queryInt(c, "page", 1), queryInt(c, "limit", constants.DefaultPageSize))
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}
