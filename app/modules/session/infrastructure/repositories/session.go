package sessiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db *bun.DB
}

// NewRepository creates a new Postgres-backed session repository.
func NewRepository(db *bun.DB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) StartIfAbsent(ctx context.Context, db bun.IDB, session *RoundSession) (*RoundSession, bool, error) {
	db = r.resolveDB(db)
	res, err := db.NewInsert().
		Model(session).
		On("CONFLICT (team_code, round) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("sessiondb.StartIfAbsent: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("sessiondb.StartIfAbsent: %w", err)
	}

	stored, err := r.Get(ctx, db, session.TeamCode, session.Round)
	if err != nil {
		return nil, false, err
	}
	return stored, affected == 1, nil
}

func (r *Impl) Get(ctx context.Context, db bun.IDB, teamCode string, round int) (*RoundSession, error) {
	db = r.resolveDB(db)
	session := new(RoundSession)
	err := db.NewSelect().
		Model(session).
		Where("team_code = ?", teamCode).
		Where("round = ?", round).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("sessiondb.Get: %w", err)
	}
	return session, nil
}

func (r *Impl) Override(ctx context.Context, db bun.IDB, session *RoundSession) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(session).
		On("CONFLICT (team_code, round) DO UPDATE").
		Set("started_at = EXCLUDED.started_at").
		Set("overridden_at = EXCLUDED.overridden_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sessiondb.Override: %w", err)
	}
	return nil
}
