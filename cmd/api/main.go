package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/dacweb/dac/pkg/config"
	"github.com/dacweb/dac/pkg/database"
	"github.com/dacweb/dac/pkg/editor"
	"github.com/dacweb/dac/pkg/migrations"
	"github.com/dacweb/dac/pkg/playback"
	"github.com/dacweb/dac/pkg/progress"
	"github.com/dacweb/dac/pkg/server"
	"github.com/dacweb/dac/pkg/version"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting dac", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	if cfg.ProgressStore == config.ProgressStoreFile {
		if err := os.MkdirAll(cfg.ProgressDir, 0755); err != nil {
			log.Err(err).Fatal("progress directory error")
		}
		log.Info("progress directory initialized", logger.Data{"path": cfg.ProgressDir})
	}

	schemas, err := editor.LoadSchemas(cfg.SchemaFile)
	if err != nil {
		log.Err(err).Fatal("editor schema error")
	}
	log.Info("editor schemas loaded", logger.Data{"tables": schemas.Tables()})

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	registry := progress.NewRegistry(progress.NewStoreFactory(cfg, db))
	manager := playback.NewManager(registry, playback.Options{
		SampleInterval: cfg.PlaybackSampleInterval,
		AdvanceDelay:   cfg.PlaybackAdvanceDelay,
	}, cfg.PlaybackSessionTTL)

	srv, err := server.New(cfg, db, registry, manager, schemas)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", cfg.ServerPort))
	if err != nil {
		log.Err(err).Fatal("failed to bind port")
	}

	// Extract actual port (useful when ServerPort is 0)
	actualPort := listener.Addr().(*net.TCPAddr).Port
	log.Info("server started", logger.Data{"port": actualPort})

	if err := writePortFile(actualPort); err != nil {
		log.Err(err).Error("failed to write port file")
	}

	manager.Start(log.WithContext(ctx))
	log.Info("playback reaper started")

	var g errgroup.Group
	g.Go(func() error {
		err := srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.WithStack(err)
		}
		log.Info("server stopped")
		return nil
	})

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	if err := g.Wait(); err != nil {
		log.Err(err).Error("server stopped unexpectedly")
	}
	log.Info("server shutdown")

	manager.Shutdown()
	log.Info("playback sessions closed")

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}

// writePortFile writes the server's actual port to tmp/api.port for local
// tooling. Skips silently if tmp/ directory doesn't exist (e.g., in Docker).
func writePortFile(port int) error {
	if _, err := os.Stat("tmp"); os.IsNotExist(err) {
		return nil
	}
	return os.WriteFile("tmp/api.port", []byte(strconv.Itoa(port)), 0600)
}
