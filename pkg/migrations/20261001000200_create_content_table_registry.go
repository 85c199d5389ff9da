package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE content_tables (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				table_name TEXT NOT NULL UNIQUE,
				label TEXT NOT NULL,
				sort_order INTEGER NOT NULL DEFAULT 0
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			INSERT INTO content_tables (table_name, label, sort_order) VALUES
				('modules', 'Modules', 1),
				('chapters', 'Chapters', 2),
				('upcoming_events', 'Upcoming Events', 3),
				('team_members', 'Team Members', 4),
				('contact_messages', 'Contact Messages', 5)
`)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`DROP TABLE IF EXISTS content_tables`)
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
