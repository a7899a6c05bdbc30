package sessionmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating round_sessions table...")

		if _, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS round_sessions (
				team_code VARCHAR(64) NOT NULL,
				round SMALLINT NOT NULL CHECK (round IN (1, 2)),
				started_at TIMESTAMPTZ NOT NULL,
				overridden_at TIMESTAMPTZ,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (team_code, round)
			);
		`); err != nil {
			return fmt.Errorf("failed to create round_sessions table: %w", err)
		}

		fmt.Println("round_sessions table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping round_sessions table...")

		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS round_sessions;`); err != nil {
			return fmt.Errorf("failed to drop round_sessions table: %w", err)
		}

		fmt.Println("round_sessions table dropped successfully!")
		return nil
	})
}
