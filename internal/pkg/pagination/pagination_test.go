package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func ctxWithQuery(t *testing.T, rawQuery string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+rawQuery, nil)
	return c
}

func TestFromContextDefaults(t *testing.T) {
	q := FromContext(ctxWithQuery(t, ""))
	assert.Equal(t, DefaultPage, q.Page)
	assert.Equal(t, DefaultSize, q.Size)
}

func TestFromContextParsesPageAndSize(t *testing.T) {
	q := FromContext(ctxWithQuery(t, "page=3&size=20"))
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 20, q.Size)
	assert.EqualValues(t, 40, q.Skip())
	assert.EqualValues(t, 20, q.Limit())
}

func TestFromContextAcceptsLimitAlias(t *testing.T) {
	q := FromContext(ctxWithQuery(t, "limit=50"))
	assert.Equal(t, 50, q.Size)
}

func TestFromContextClampsBadInput(t *testing.T) {
	q := FromContext(ctxWithQuery(t, "page=-2&size=9999"))
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, MaxSize, q.Size)

	q = FromContext(ctxWithQuery(t, "page=abc&size=0"))
	assert.Equal(t, DefaultPage, q.Page)
	assert.Equal(t, DefaultSize, q.Size)
}

func TestMeta(t *testing.T) {
	meta := Query{Page: 2, Size: 10}.Meta(35)
	assert.EqualValues(t, 35, meta.Total)
	assert.Equal(t, 2, meta.CurrentPage)
	assert.Equal(t, 4, meta.TotalPage)
	assert.True(t, meta.HasNextPage)

	meta = Query{Page: 4, Size: 10}.Meta(35)
	assert.False(t, meta.HasNextPage)

	meta = Query{Page: 1, Size: 10}.Meta(0)
	assert.Zero(t, meta.TotalPage)
	assert.False(t, meta.HasNextPage)
}
