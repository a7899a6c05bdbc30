package teamdb

import (
	"time"

	"github.com/uptrace/bun"
)

// Team is a registered CTF team.
type Team struct {
	bun.BaseModel `bun:"table:teams,alias:t"`
	Code          string    `bun:"code,pk" json:"code"`
	Name          string    `bun:"name,notnull" json:"name"`
	Institution   string    `bun:"institution,notnull,default:''" json:"institution"`
	AccessHash    string    `bun:"access_hash,notnull" json:"-"`
	Active        bool      `bun:"active,notnull,default:true" json:"active"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}
