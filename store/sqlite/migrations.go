package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Trellis store (SQLite).
var Migrations = migrate.NewGroup("trellis")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_beds",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS trellis_beds (
    id              TEXT PRIMARY KEY,
    owner_id        TEXT NOT NULL,
    owner_name      TEXT NOT NULL DEFAULT '',
    name            TEXT NOT NULL,
    length          INTEGER NOT NULL DEFAULT 0,
    width           INTEGER NOT NULL DEFAULT 0,
    public          INTEGER NOT NULL DEFAULT 0,
    hearts          TEXT NOT NULL DEFAULT '[]',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_trellis_beds_owner ON trellis_beds (owner_id);
CREATE INDEX IF NOT EXISTS idx_trellis_beds_public ON trellis_beds (public);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS trellis_beds`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_members",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS trellis_members (
    bed_id          TEXT NOT NULL REFERENCES trellis_beds(id) ON DELETE CASCADE,
    user_id         TEXT NOT NULL,
    username        TEXT NOT NULL DEFAULT '',
    role_id         TEXT,
    status          TEXT NOT NULL DEFAULT 'pending',
    invited_at      TEXT NOT NULL DEFAULT (datetime('now')),
    accepted_at     TEXT,

    PRIMARY KEY (bed_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_trellis_members_user ON trellis_members (user_id);
CREATE INDEX IF NOT EXISTS idx_trellis_members_role ON trellis_members (bed_id, role_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS trellis_members`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_roles",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS trellis_roles (
    id              TEXT PRIMARY KEY,
    bed_id          TEXT NOT NULL REFERENCES trellis_beds(id) ON DELETE CASCADE,
    title           TEXT NOT NULL,
    duties          TEXT NOT NULL DEFAULT '[]',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_trellis_roles_bed ON trellis_roles (bed_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_trellis_roles_title ON trellis_roles (bed_id, LOWER(TRIM(title)));
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS trellis_roles`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_ledgers",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS trellis_ledgers (
    bed_id          TEXT PRIMARY KEY REFERENCES trellis_beds(id) ON DELETE CASCADE,
    creator_id      TEXT NOT NULL,
    creator_name    TEXT NOT NULL DEFAULT '',
    grants          TEXT NOT NULL DEFAULT '{}',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS trellis_ledgers`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_notifications",
			Version: "20240101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS trellis_notifications (
    id              TEXT PRIMARY KEY,
    bed_id          TEXT NOT NULL,
    bed_name        TEXT NOT NULL DEFAULT '',
    recipient_id    TEXT NOT NULL,
    sender_id       TEXT NOT NULL DEFAULT '',
    sender_name     TEXT NOT NULL DEFAULT '',
    kind            TEXT NOT NULL,
    read            INTEGER NOT NULL DEFAULT 0,
    created_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_trellis_notifs_recipient ON trellis_notifications (recipient_id, created_at);
CREATE INDEX IF NOT EXISTS idx_trellis_notifs_bed ON trellis_notifications (bed_id);
CREATE INDEX IF NOT EXISTS idx_trellis_notifs_created ON trellis_notifications (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS trellis_notifications`)
				return err
			},
		},
	)
}
