package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ContentTable is an entry in the registry of tables the admin editor may
// touch. Anything not listed here is unreachable through the editor.
type ContentTable struct {
	bun.BaseModel `bun:"table:content_tables,alias:ct"`

	ID        int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	TableName string    `bun:",notnull,unique" json:"table_name"`
	Label     string    `bun:",notnull" json:"label"`
	SortOrder int       `bun:",notnull" json:"sort_order"`
}
