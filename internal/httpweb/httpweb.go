// Package httpweb wires the HTTP façade: the gin router, access control
// over the per-source user allow-list, the JSON API, the image/zip media
// endpoints, and the embedded frontend. Route registration follows the
// pack's trailarr-trailarr `internal/routes.go` idiom: one
// register*Routes(r *gin.Engine) function per concern, composed in New.
package httpweb

import (
	"github.com/gin-gonic/gin"
	"github.com/pica-gallery/pica/internal/album"
	"github.com/pica-gallery/pica/internal/auth"
	"github.com/pica-gallery/pica/internal/config"
	"github.com/pica-gallery/pica/internal/liveset"
	"github.com/pica-gallery/pica/internal/media"
	"github.com/pica-gallery/pica/internal/parse"
	"github.com/pica-gallery/pica/internal/rendition"
)

// App holds every dependency the HTTP handlers need.
type App struct {
	Live     *liveset.Set
	Albums   *album.Grouper
	Accessor *rendition.Accessor
	Auth     *auth.Service
	Parser   *parse.Parser
	Sources  map[string]config.Source
}

// New builds an App from its dependencies and the loaded configuration's
// source list (indexed by name for the access-control check).
func New(cfg *config.Config, live *liveset.Set, albums *album.Grouper, accessor *rendition.Accessor, authSvc *auth.Service, parser *parse.Parser) *App {
	sources := make(map[string]config.Source, len(cfg.Sources))
	for _, s := range cfg.Sources {
		sources[s.Name] = s
	}
	return &App{Live: live, Albums: albums, Accessor: accessor, Auth: authSvc, Parser: parser, Sources: sources}
}

// allowed reports whether user may see media from source. An empty
// Access list means the source is visible to every configured user.
func (a *App) allowed(user, source string) bool {
	src, ok := a.Sources[source]
	if !ok || len(src.Access) == 0 {
		return ok
	}
	for _, allowed := range src.Access {
		if allowed == user {
			return true
		}
	}
	return false
}

// visibleItems returns every live item whose source user is allowed to
// see.
func (a *App) visibleItems(user string) []media.Item {
	all := a.Live.Items()
	out := make([]media.Item, 0, len(all))
	for _, item := range all {
		if a.allowed(user, item.Source) {
			out = append(out, item)
		}
	}
	return out
}

// RegisterRoutes wires every route onto r. requireAuth gates the routes
// every route but login requires; AllowAccessOverHTTP callers may choose
// to skip registering requireAuth's underlying middleware entirely (it is
// built once in cmd/picad and passed in here already resolved).
func (a *App) RegisterRoutes(r *gin.Engine, requireAuth gin.HandlerFunc) {
	a.registerAuthRoutes(r)

	authorized := r.Group("/", requireAuth)
	a.registerAPIRoutes(authorized)
	a.registerMediaRoutes(authorized)

	a.registerFrontendRoutes(r)
}
