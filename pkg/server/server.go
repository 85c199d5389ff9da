package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dacweb/dac/pkg/auth"
	"github.com/dacweb/dac/pkg/binder"
	"github.com/dacweb/dac/pkg/config"
	"github.com/dacweb/dac/pkg/contentsync"
	"github.com/dacweb/dac/pkg/editor"
	"github.com/dacweb/dac/pkg/errcodes"
	"github.com/dacweb/dac/pkg/fallback"
	"github.com/dacweb/dac/pkg/learning"
	"github.com/dacweb/dac/pkg/metrics"
	"github.com/dacweb/dac/pkg/playback"
	"github.com/dacweb/dac/pkg/progress"
	"github.com/dacweb/dac/pkg/render"
	"github.com/dacweb/dac/pkg/site"
	"github.com/dacweb/dac/pkg/testutils"
	"github.com/dacweb/dac/pkg/users"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB, registry *progress.Registry, manager *playback.Manager, schemas editor.Schemas) (*http.Server, error) {
	e, err := newEcho(cfg, db, registry, manager, schemas)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func newEcho(cfg *config.Config, db *bun.DB, registry *progress.Registry, manager *playback.Manager, schemas editor.Schemas) (*echo.Echo, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)
	if cfg.MetricsEnabled {
		e.GET("/metrics", metrics.Handler())
	}

	// Register auth routes and get the auth service
	authService := auth.RegisterRoutes(e, db, cfg.JWTSecret)
	authMiddleware := auth.NewMiddleware(authService)

	loader := fallback.NewLoader(cfg.FallbackDir)
	learningService := learning.NewService(db, loader)
	syncService := contentsync.NewService(db, cfg.DatabaseMaxRetries)

	registerPublicRoutes(e, cfg, db, loader, learningService, registry, manager)
	registerAdminRoutes(e, db, syncService, schemas, authMiddleware)

	if cfg.EnableTestRoutes {
		testutils.RegisterRoutes(e, db, syncService)
	}

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	return e, nil
}

// registerPublicRoutes registers the read side of the site along with the
// per-device progress and playback routes.
func registerPublicRoutes(e *echo.Echo, cfg *config.Config, db *bun.DB, loader *fallback.Loader, learningService *learning.Service, registry *progress.Registry, manager *playback.Manager) {
	api := e.Group("/api")

	learning.RegisterRoutesWithGroup(api.Group("/modules"), learningService)

	var limiter *site.ContactLimiter
	if cfg.ContactRatePerMinute > 0 {
		limiter = site.NewContactLimiter(cfg.ContactRatePerMinute, cfg.ContactRateBurst)
	}
	site.RegisterRoutesWithGroup(api, site.NewService(db, loader), limiter)

	progressGroup := api.Group("/progress")
	progressGroup.Use(progress.DeviceMiddleware)
	progress.RegisterRoutesWithGroup(progressGroup, registry)

	learnGroup := e.Group("/learn")
	learnGroup.Use(progress.DeviceMiddleware)
	render.RegisterRoutesWithGroup(learnGroup, learningService, registry)
	playback.RegisterRoutesWithGroup(learnGroup.Group("/sessions"), manager, learningService)
}

// registerAdminRoutes registers the editor, bulk sync and account routes. Every one of
// them requires a signed-in user.
func registerAdminRoutes(e *echo.Echo, db *bun.DB, syncService *contentsync.Service, schemas editor.Schemas, authMiddleware *auth.Middleware) {
	admin := e.Group("/admin")
	admin.Use(authMiddleware.Authenticate)

	editor.RegisterRoutesWithGroup(admin.Group("/tables"), editor.NewService(db, schemas))
	contentsync.RegisterRoutesWithGroup(admin.Group("/sync"), syncService)
	users.RegisterRoutesWithGroup(admin.Group("/users"), users.NewService(db))
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
