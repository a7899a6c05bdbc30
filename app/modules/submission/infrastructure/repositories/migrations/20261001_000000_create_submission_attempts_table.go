package submissionmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating submission_attempts table...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			// challenge_type is '' for round 1 so the unique index covers it
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS submission_attempts (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					team_code VARCHAR(64) NOT NULL,
					round SMALLINT NOT NULL CHECK (round IN (1, 2)),
					challenge_type VARCHAR(16) NOT NULL DEFAULT '',
					flag TEXT NOT NULL,
					attempt_number INTEGER NOT NULL CHECK (attempt_number >= 1),
					is_correct BOOLEAN NOT NULL DEFAULT FALSE,
					point_deduction DOUBLE PRECISION NOT NULL DEFAULT 0,
					points DOUBLE PRECISION NOT NULL DEFAULT 0,
					base_points DOUBLE PRECISION NOT NULL DEFAULT 0,
					time_multiplier DOUBLE PRECISION NOT NULL DEFAULT 0,
					hint_penalty DOUBLE PRECISION NOT NULL DEFAULT 0,
					submitted_at TIMESTAMPTZ NOT NULL,
					verified BOOLEAN NOT NULL DEFAULT FALSE,
					verified_at TIMESTAMPTZ,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`); err != nil {
				return fmt.Errorf("failed to create submission_attempts table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE UNIQUE INDEX IF NOT EXISTS uq_submission_attempts_team_flag_scope
					ON submission_attempts (team_code, flag, round, challenge_type);
				CREATE INDEX IF NOT EXISTS idx_submission_attempts_team_round_type
					ON submission_attempts (team_code, round, challenge_type);
				CREATE INDEX IF NOT EXISTS idx_submission_attempts_submitted_at
					ON submission_attempts (submitted_at);
			`); err != nil {
				return fmt.Errorf("failed to create submission_attempts indexes: %w", err)
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping submission_attempts table...")

		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS submission_attempts;`); err != nil {
			return fmt.Errorf("failed to drop submission_attempts table: %w", err)
		}

		fmt.Println("submission_attempts table dropped successfully!")
		return nil
	})
}
