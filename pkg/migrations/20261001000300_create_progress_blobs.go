package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE progress_blobs (
				device_id TEXT NOT NULL,
				storage_key TEXT NOT NULL,
				data TEXT NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL,
				PRIMARY KEY (device_id, storage_key)
			)
`)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`DROP TABLE IF EXISTS progress_blobs`)
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
