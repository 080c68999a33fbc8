package httpweb

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pica-gallery/pica/internal/album"
	"github.com/pica-gallery/pica/internal/config"
	"github.com/pica-gallery/pica/internal/id"
	"github.com/pica-gallery/pica/internal/liveset"
	"github.com/pica-gallery/pica/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*App, *liveset.Set) {
	t.Helper()
	cfg := &config.Config{
		Sources: []config.Source{
			{Name: "main", Path: "/data/main"},
			{Name: "private", Path: "/data/private", Access: []string{"alice"}},
		},
	}
	grouper, err := album.New(`^(\d{4}-\d{2}-\d{2}.*)$`, `^\d{4}-\d{2}-\d{2}[\s_-]*`)
	require.NoError(t, err)

	live := liveset.New()
	return New(cfg, live, grouper, nil, nil, nil), live
}

func TestAllowedHonorsSourceAccessList(t *testing.T) {
	app, _ := newTestApp(t)

	assert.True(t, app.allowed("bob", "main"), "source with no access list is open to everyone")
	assert.True(t, app.allowed("alice", "private"))
	assert.False(t, app.allowed("bob", "private"))
	assert.False(t, app.allowed("bob", "unknown-source"))
}

func TestVisibleItemsFiltersByAccess(t *testing.T) {
	app, live := newTestApp(t)

	live.Put(media.Item{ID: id.NewMedia("main", "a.jpg", 1), Source: "main", RelPath: "a.jpg"})
	live.Put(media.Item{ID: id.NewMedia("private", "b.jpg", 1), Source: "private", RelPath: "b.jpg"})

	assert.Len(t, app.visibleItems("alice"), 2)
	assert.Len(t, app.visibleItems("bob"), 1)
}

func TestStreamEndpointReturnsNewestFirst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, live := newTestApp(t)

	now := time.Now()
	live.Put(media.Item{ID: id.NewMedia("main", "old.jpg", 1), Source: "main", RelPath: "old.jpg", Timestamp: now.Add(-time.Hour)})
	live.Put(media.Item{ID: id.NewMedia("main", "new.jpg", 1), Source: "main", RelPath: "new.jpg", Timestamp: now})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("auth.user", "alice")
		c.Next()
	})
	app.registerAPIRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"new.jpg"`)
	assert.Contains(t, body, `"old.jpg"`)
	assert.Less(t, strings.Index(body, `"new.jpg"`), strings.Index(body, `"old.jpg"`))
}

func TestAlbumsEndpointGroupsBySourceAccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, live := newTestApp(t)

	live.Put(media.Item{
		ID: id.NewMedia("main", "2024-01-01 trip/a.jpg", 1), Source: "main",
		RelPath: "2024-01-01 trip/a.jpg", Timestamp: time.Now(),
	})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("auth.user", "bob")
		c.Next()
	})
	app.registerAPIRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/api/albums", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "trip")
}
