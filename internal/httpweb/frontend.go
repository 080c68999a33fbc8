package httpweb

import (
	"bytes"
	"embed"
	iofs "io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

//go:embed all:web/dist
var embeddedDist embed.FS

const indexHTMLFilename = "index.html"

// registerFrontendRoutes serves the embedded static frontend bundle, with
// a fallback to index.html for any unmatched route so client-side routing
// works on a hard reload. A real frontend build is out of scope; this
// serves the placeholder bundle the same way a built one would be served.
func (a *App) registerFrontendRoutes(r *gin.Engine) {
	distFS, err := iofs.Sub(embeddedDist, "web/dist")
	if err != nil {
		return
	}

	serveEmbedded := func(c *gin.Context, name string) bool {
		data, err := iofs.ReadFile(distFS, name)
		if err != nil {
			return false
		}
		http.ServeContent(c.Writer, c.Request, name, time.Now(), bytes.NewReader(data))
		return true
	}

	r.GET("/", func(c *gin.Context) {
		serveEmbedded(c, indexHTMLFilename)
	})

	r.GET("/assets/*filepath", func(c *gin.Context) {
		name := "assets" + c.Param("filepath")
		if !serveEmbedded(c, name) {
			c.Status(http.StatusNotFound)
		}
	})

	r.NoRoute(func(c *gin.Context) {
		if !serveEmbedded(c, indexHTMLFilename) {
			c.Status(http.StatusNotFound)
		}
	})
}
