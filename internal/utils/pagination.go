package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/classifieds-api/internal/constants"
)

// PaginationParams is one page of a listing feed. Limit is the page size.
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// TotalPages returns how many pages total items fill.
func (p PaginationParams) TotalPages(total int64) int {
	if p.Limit <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

// GetPaginationParams reads ?page= and ?limit=, falling back to the first page of the default size
func GetPaginationParams(c *gin.Context) PaginationParams {
	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}

	limit := queryInt(c, "limit", constants.DefaultPageSize)
	if limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}
