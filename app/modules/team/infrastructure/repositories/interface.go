package teamdb

import (
	"context"

	"github.com/uptrace/bun"
)

// Repository persists teams. A nil db uses the repository's own connection.
type Repository interface {
	Create(ctx context.Context, db bun.IDB, team *Team) error
	GetByCode(ctx context.Context, db bun.IDB, code string) (*Team, error)
	List(ctx context.Context, db bun.IDB) ([]Team, error)
	Update(ctx context.Context, db bun.IDB, team *Team) error
}
