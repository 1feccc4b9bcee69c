package pagination

import (
	"strconv"

	"github.com/geopulse/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	DefaultPage = 1
	DefaultSize = 100
	MaxSize     = 500
)

// Query holds parsed pagination parameters.
type Query struct {
	Page int
	Size int
}

// FromContext extracts and validates pagination params from the request.
// "limit" is accepted as an alias for "size".
func FromContext(c *gin.Context) Query {
	page := parseIntOr(c.DefaultQuery("page", "1"), DefaultPage)
	sizeRaw := c.Query("size")
	if sizeRaw == "" {
		sizeRaw = c.Query("limit")
	}
	size := parseIntOr(sizeRaw, DefaultSize)

	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	return Query{Page: page, Size: size}
}

// Skip returns the number of documents to skip for this page.
func (q Query) Skip() int64 { return int64((q.Page - 1) * q.Size) }

// Limit returns the page size as int64 for driver options.
func (q Query) Limit() int64 { return int64(q.Size) }

// Meta computes pagination metadata for a total count.
func (q Query) Meta(total int64) response.Pagination {
	totalPage := int((total + int64(q.Size) - 1) / int64(q.Size))
	return response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   totalPage,
		Size:        q.Size,
		HasNextPage: q.Page < totalPage,
	}
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
