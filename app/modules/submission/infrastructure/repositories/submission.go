package submissiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	submissiondomain "github.com/medusa-ctf/medusa-backend/app/modules/submission/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

const uniqueViolation = "23505"

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db *bun.DB
}

// NewRepository creates a new Postgres-backed attempt ledger.
func NewRepository(db *bun.DB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// RunInScope opens a transaction and takes a transaction-scoped advisory lock
// on the team's challenge scope before running fn.
func (r *Impl) RunInScope(ctx context.Context, teamCode string, key submissiondomain.ChallengeKey, fn ScopeFunc) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := r.acquireScopeLock(ctx, tx, teamCode, key); err != nil {
			return err
		}
		return fn(ctx, tx)
	})
}

func (r *Impl) acquireScopeLock(ctx context.Context, db bun.IDB, teamCode string, key submissiondomain.ChallengeKey) error {
	// hashtext() gives a stable int4 for the scope string
	_, err := db.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", scopeLockKey(teamCode, key)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("submissiondb.acquireScopeLock: %w", err)
	}
	return nil
}

func scopeLockKey(teamCode string, key submissiondomain.ChallengeKey) string {
	return fmt.Sprintf("submission|%s|%d|%s", teamCode, key.Round(), key)
}

func (r *Impl) CountAttempts(ctx context.Context, db bun.IDB, teamCode string, round int, types []submissiondomain.ChallengeType) (int, error) {
	db = r.resolveDB(db)
	count, err := db.NewSelect().
		Model((*SubmissionAttempt)(nil)).
		Where("team_code = ?", teamCode).
		Where("round = ?", round).
		Where("challenge_type IN (?)", bun.In(types)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("submissiondb.CountAttempts: %w", err)
	}
	return count, nil
}

func (r *Impl) FindDuplicate(ctx context.Context, db bun.IDB, teamCode, flag string, round int, types []submissiondomain.ChallengeType) (*SubmissionAttempt, error) {
	db = r.resolveDB(db)
	attempt := new(SubmissionAttempt)
	err := db.NewSelect().
		Model(attempt).
		Where("team_code = ?", teamCode).
		Where("round = ?", round).
		Where("challenge_type IN (?)", bun.In(types)).
		Where("flag = ?", flag).
		Order("submitted_at ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("submissiondb.FindDuplicate: %w", err)
	}
	return attempt, nil
}

func (r *Impl) InsertAttempt(ctx context.Context, db bun.IDB, attempt *SubmissionAttempt) error {
	db = r.resolveDB(db)
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	if _, err := db.NewInsert().Model(attempt).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("submissiondb.InsertAttempt: %w", err)
	}
	return nil
}

func (r *Impl) UpdateScore(ctx context.Context, db bun.IDB, attempt *SubmissionAttempt) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model(attempt).
		Column("submitted_at", "is_correct", "point_deduction", "points", "base_points", "time_multiplier", "hint_penalty", "verified", "verified_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("submissiondb.UpdateScore: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("submissiondb.UpdateScore: rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Impl) GetByID(ctx context.Context, db bun.IDB, id uuid.UUID) (*SubmissionAttempt, error) {
	db = r.resolveDB(db)
	attempt := new(SubmissionAttempt)
	err := db.NewSelect().
		Model(attempt).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("submissiondb.GetByID: %w", err)
	}
	return attempt, nil
}

func (r *Impl) ListByTeam(ctx context.Context, db bun.IDB, teamCode string) ([]SubmissionAttempt, error) {
	db = r.resolveDB(db)
	var attempts []SubmissionAttempt
	err := db.NewSelect().
		Model(&attempts).
		Where("team_code = ?", teamCode).
		Order("round ASC", "challenge_type ASC", "attempt_number ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("submissiondb.ListByTeam: %w", err)
	}
	return attempts, nil
}

func (r *Impl) ListAll(ctx context.Context, db bun.IDB) ([]SubmissionAttempt, error) {
	db = r.resolveDB(db)
	var attempts []SubmissionAttempt
	err := db.NewSelect().
		Model(&attempts).
		Order("submitted_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("submissiondb.ListAll: %w", err)
	}
	return attempts, nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == uniqueViolation
	}
	return false
}
