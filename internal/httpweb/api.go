package httpweb

import (
	"net/http"
	"path/filepath"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/pica-gallery/pica/internal/auth"
	"github.com/pica-gallery/pica/internal/id"
)

// streamLimit caps how many items `/api/stream` returns in one response.
const streamLimit = 10000

// registerAPIRoutes wires the authenticated JSON endpoints onto an
// already-auth-gated router group.
func (a *App) registerAPIRoutes(r gin.IRoutes) {
	r.POST("/api/auth/touch", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.GET("/api/stream", func(c *gin.Context) {
		user, _ := auth.CurrentUser(c)
		items := a.visibleItems(user)
		sort.Slice(items, func(i, j int) bool { return items[i].Timestamp.After(items[j].Timestamp) })
		if len(items) > streamLimit {
			items = items[:streamLimit]
		}

		views := make([]MediaItemView, 0, len(items))
		for _, item := range items {
			views = append(views, newMediaItemView(item))
		}
		c.JSON(http.StatusOK, StreamView{Items: views})
	})

	r.GET("/api/albums", func(c *gin.Context) {
		a.handleAlbumsGet(c, 0)
	})

	r.GET("/api/albums/full", func(c *gin.Context) {
		a.handleAlbumsGet(c, -1)
	})

	r.GET("/api/albums/:id", func(c *gin.Context) {
		albumID, err := id.Parse[id.Album](c.Param("id"))
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}

		user, _ := auth.CurrentUser(c)
		albums := a.Albums.Group(a.visibleItems(user))
		for _, album := range albums {
			if album.ID == albumID {
				c.JSON(http.StatusOK, newAlbumView(album, len(album.Items)))
				return
			}
		}
		c.Status(http.StatusNotFound)
	})

	r.GET("/api/media/:id/exif", func(c *gin.Context) {
		mediaID, err := id.Parse[id.Media](c.Param("id"))
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}

		user, _ := auth.CurrentUser(c)
		item, ok := a.Live.Get(mediaID)
		if !ok {
			c.Status(http.StatusNotFound)
			return
		}
		if !a.allowed(user, item.Source) {
			c.Status(http.StatusForbidden)
			return
		}

		src, ok := a.Sources[item.Source]
		if !ok {
			c.Status(http.StatusNotFound)
			return
		}
		path := filepath.Join(src.Path, filepath.FromSlash(item.RelPath))

		tags, err := a.Parser.RawTags(path, item.Info.Type)
		if err != nil {
			fail(c, http.StatusInternalServerError, err)
			return
		}

		c.JSON(http.StatusOK, ExifView{Item: newMediaItemView(item), Exif: tags})
	})
}

// handleAlbumsGet serves both /api/albums (n=0, cover-only previews) and
// /api/albums/full (n=-1, meaning "every item").
func (a *App) handleAlbumsGet(c *gin.Context, n int) {
	user, _ := auth.CurrentUser(c)
	albums := a.Albums.Group(a.visibleItems(user))

	views := make([]AlbumView, 0, len(albums))
	for _, album := range albums {
		limit := n
		if limit < 0 {
			limit = len(album.Items)
		}
		views = append(views, newAlbumView(album, limit))
	}
	c.JSON(http.StatusOK, views)
}
