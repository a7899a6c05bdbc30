package teammigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating teams table...")

		if _, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS teams (
				code VARCHAR(64) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				institution VARCHAR(255) NOT NULL DEFAULT '',
				access_hash TEXT NOT NULL,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`); err != nil {
			return fmt.Errorf("failed to create teams table: %w", err)
		}

		fmt.Println("teams table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping teams table...")

		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS teams;`); err != nil {
			return fmt.Errorf("failed to drop teams table: %w", err)
		}
		return nil
	})
}
