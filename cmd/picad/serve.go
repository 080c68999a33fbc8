package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pica-gallery/pica/internal/album"
	"github.com/pica-gallery/pica/internal/auth"
	"github.com/pica-gallery/pica/internal/config"
	"github.com/pica-gallery/pica/internal/geo"
	"github.com/pica-gallery/pica/internal/httpweb"
	"github.com/pica-gallery/pica/internal/id"
	"github.com/pica-gallery/pica/internal/index"
	"github.com/pica-gallery/pica/internal/liveset"
	"github.com/pica-gallery/pica/internal/parse"
	"github.com/pica-gallery/pica/internal/rendition"
	"github.com/pica-gallery/pica/internal/scan"
	"github.com/pica-gallery/pica/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// sessionSweepInterval is how often expired auth sessions are purged from
// the session table.
const sessionSweepInterval = time.Hour

// scaleWorkers is the number of goroutines draining the rendition queue,
// each independently decoding and scaling whatever is on top of the LIFO
// stack.
const scaleWorkers = 8

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the configuration, scan configured sources, and serve the gallery over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	log := logrus.WithField("component", "picad")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	metadata := store.NewMetadataCache(db)
	blobs := store.NewBlobStore(db)
	sessions := store.NewSessionStore(db)

	existing, err := metadata.All()
	if err != nil {
		return fmt.Errorf("load existing media: %w", err)
	}

	live := liveset.New()
	queue := scan.NewQueue()
	known := make([]id.ID[id.Media], 0, len(existing))
	for _, item := range existing {
		live.Put(item)
		known = append(known, item.ID)
	}
	queue.Seed(known)

	roots := make(index.SourceRoots, len(cfg.Sources))
	scanners := make([]*scan.Scanner, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		roots[src.Name] = src.Path

		scanner, err := scan.NewScanner(src.Name, src.Path)
		if err != nil {
			return fmt.Errorf("open source %q: %w", src.Name, err)
		}
		scanners = append(scanners, scanner)
	}

	geocoder := geo.New()
	parser := parse.New()

	codec := &rendition.Codec{
		Parser:         parser,
		UseImageMagick: cfg.UseImageMagick,
		ImageCodec:     cfg.ImageCodec,
		PreferUltraHDR: cfg.PreferUltraHdr,
	}
	decode := rendition.NewDecodeFunc(codec, live.Get)
	renditionQueue := rendition.NewQueue(int64(cfg.MaxMemoryInMegabytes)<<20, false, decode, nil)
	accessor := rendition.NewAccessor(blobs, renditionQueue, roots)

	indexPool := index.New(queue, metadata, live, parser, geocoder, roots, cfg.IndexerThreads,
		accessor, cfg.LazyThumbs, cfg.ThumbSize, cfg.PreviewSize)

	grouper, err := album.New(cfg.AlbumConfig.Pattern, cfg.AlbumConfig.StripTitle)
	if err != nil {
		return fmt.Errorf("compile album patterns: %w", err)
	}

	authSvc := auth.New(cfg.Users, sessions)

	app := httpweb.New(cfg, live, grouper, accessor, authSvc, parser)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	requireAuth := authSvc.Middleware()
	if cfg.AllowAccessOverHTTP {
		// Development convenience: let every request through unauthenticated
		// rather than requiring a bearer token on plain HTTP.
		requireAuth = func(c *gin.Context) {}
	}
	app.RegisterRoutes(router, requireAuth)

	server := &http.Server{Addr: cfg.HttpAddress, Handler: router}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	for i := 0; i < scaleWorkers; i++ {
		group.Go(func() error {
			renditionQueue.Run(ctx)
			return nil
		})
	}

	group.Go(func() error {
		indexPool.Run(ctx)
		return nil
	})

	scanInterval := time.Duration(cfg.ScanIntervalInSeconds) * time.Second
	for _, scanner := range scanners {
		scanner := scanner
		group.Go(func() error {
			err := scanner.Run(ctx, queue, scanInterval)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	group.Go(func() error {
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n, err := sessions.Sweep(); err != nil {
					log.WithError(err).Warn("session sweep failed")
				} else if n > 0 {
					log.WithField("count", n).Debug("swept expired sessions")
				}
			}
		}
	})

	group.Go(func() error {
		log.WithField("addr", cfg.HttpAddress).Info("starting http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
