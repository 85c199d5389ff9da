package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/dacweb/dac/pkg/config"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type key int

const ctxKey key = 0

func WithLogging(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey, true)
}

type logQueryHook struct {
	log logger.Logger
}

func (*logQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (qh *logQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	enabled, ok := ctx.Value(ctxKey).(bool)
	if !ok || !enabled {
		return
	}

	qh.log.Debug(event.Query, logger.Data{"duration_ms": time.Since(event.StartTime).Milliseconds()})
}

// New opens the SQLite database, waiting for it to answer before applying the
// connection pragmas.
func New(cfg *config.Config) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseFilePath)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	inMemory := cfg.DatabaseFilePath == ":memory:"
	// An in-memory database only lives as long as its connection.
	if inMemory {
		sqldb.SetMaxOpenConns(1)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if cfg.DatabaseDebug {
		db.AddQueryHook(&logQueryHook{logger.NewWithLevel("debug")})
	}

	if err := ping(db, cfg.DatabaseConnectRetryCount, cfg.DatabaseConnectRetryDelay); err != nil {
		return nil, err
	}

	for _, p := range pragmas(cfg, inMemory) {
		if _, err := db.Exec(p.query, p.args...); err != nil {
			return nil, errors.Wrapf(err, "failed to set %s", p.name)
		}
	}

	return db, nil
}

type pragma struct {
	name  string
	query string
	args  []interface{}
}

func pragmas(cfg *config.Config, inMemory bool) []pragma {
	ps := []pragma{}
	if !inMemory {
		ps = append(ps, pragma{name: "journal_mode", query: "PRAGMA journal_mode=WAL"})
	}
	return append(ps,
		pragma{name: "busy_timeout", query: "PRAGMA busy_timeout=?", args: []interface{}{cfg.DatabaseBusyTimeout.Milliseconds()}},
		// Chapters cascade off their module.
		pragma{name: "foreign_keys", query: "PRAGMA foreign_keys=ON"},
	)
}

func ping(db *bun.DB, attempts int, delay time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if _, err = db.Exec("SELECT 1"); err == nil {
			return nil
		}
		if i < attempts-1 {
			logger.New().Err(err).Warn("database not ready, retrying", logger.Data{"attempt": i + 1, "delay": delay.String()})
			time.Sleep(delay)
		}
	}
	return errors.Wrap(err, "database never became ready")
}
