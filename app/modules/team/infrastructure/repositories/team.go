package teamdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db *bun.DB
}

// NewRepository creates a new Postgres-backed team repository.
func NewRepository(db *bun.DB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) Create(ctx context.Context, db bun.IDB, team *Team) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(team).Returning("created_at, updated_at").Exec(ctx); err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.Field('C') == "23505" {
			return ErrDuplicateKey
		}
		return fmt.Errorf("teamdb.Create: %w", err)
	}
	return nil
}

func (r *Impl) GetByCode(ctx context.Context, db bun.IDB, code string) (*Team, error) {
	db = r.resolveDB(db)
	team := new(Team)
	err := db.NewSelect().Model(team).Where("code = ?", code).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("teamdb.GetByCode: %w", err)
	}
	return team, nil
}

func (r *Impl) List(ctx context.Context, db bun.IDB) ([]Team, error) {
	db = r.resolveDB(db)
	var teams []Team
	if err := db.NewSelect().Model(&teams).Order("code ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("teamdb.List: %w", err)
	}
	return teams, nil
}

func (r *Impl) Update(ctx context.Context, db bun.IDB, team *Team) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model(team).
		Column("name", "institution", "active", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("teamdb.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
