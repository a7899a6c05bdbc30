package hintdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db *bun.DB
}

// NewRepository creates a new Postgres-backed hint ledger.
func NewRepository(db *bun.DB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) RunInBucket(ctx context.Context, teamCode, bucket string, fn BucketFunc) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", "hint|"+teamCode+"|"+bucket).Exec(ctx); err != nil {
			return fmt.Errorf("hintdb.RunInBucket: %w", err)
		}
		return fn(ctx, tx)
	})
}

func (r *Impl) ListByTeam(ctx context.Context, db bun.IDB, teamCode string) ([]HintUnlock, error) {
	db = r.resolveDB(db)
	var unlocks []HintUnlock
	err := db.NewSelect().
		Model(&unlocks).
		Where("team_code = ?", teamCode).
		Order("bucket ASC", "number ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("hintdb.ListByTeam: %w", err)
	}
	return unlocks, nil
}

func (r *Impl) ListByBucket(ctx context.Context, db bun.IDB, teamCode, bucket string) ([]HintUnlock, error) {
	db = r.resolveDB(db)
	var unlocks []HintUnlock
	err := db.NewSelect().
		Model(&unlocks).
		Where("team_code = ?", teamCode).
		Where("bucket = ?", bucket).
		Order("number ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("hintdb.ListByBucket: %w", err)
	}
	return unlocks, nil
}

func (r *Impl) Insert(ctx context.Context, db bun.IDB, unlock *HintUnlock) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(unlock).Exec(ctx); err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.Field('C') == "23505" {
			return ErrDuplicateKey
		}
		return fmt.Errorf("hintdb.Insert: %w", err)
	}
	return nil
}

func (r *Impl) SumCost(ctx context.Context, db bun.IDB, teamCode, bucket string, asOf time.Time) (float64, error) {
	db = r.resolveDB(db)
	var total float64
	q := db.NewSelect().
		Model((*HintUnlock)(nil)).
		ColumnExpr("COALESCE(SUM(cost), 0)").
		Where("team_code = ?", teamCode).
		Where("bucket = ?", bucket)
	if !asOf.IsZero() {
		q = q.Where("unlocked_at <= ?", asOf)
	}
	err := q.Scan(ctx, &total)
	if err != nil {
		return 0, fmt.Errorf("hintdb.SumCost: %w", err)
	}
	return total, nil
}
