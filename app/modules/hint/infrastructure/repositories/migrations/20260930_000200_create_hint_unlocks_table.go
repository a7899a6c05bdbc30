package hintmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating hint_unlocks table...")

		if _, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS hint_unlocks (
				team_code VARCHAR(64) NOT NULL,
				bucket VARCHAR(16) NOT NULL,
				number INTEGER NOT NULL CHECK (number >= 1),
				cost DOUBLE PRECISION NOT NULL CHECK (cost >= 0),
				unlocked_at TIMESTAMPTZ NOT NULL,
				PRIMARY KEY (team_code, bucket, number)
			);
		`); err != nil {
			return fmt.Errorf("failed to create hint_unlocks table: %w", err)
		}

		fmt.Println("hint_unlocks table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping hint_unlocks table...")

		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS hint_unlocks;`); err != nil {
			return fmt.Errorf("failed to drop hint_unlocks table: %w", err)
		}

		fmt.Println("hint_unlocks table dropped successfully!")
		return nil
	})
}
