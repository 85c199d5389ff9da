package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Module is a top-level course unit. IDs are supplied by whoever authors the
// content, not generated.
type Module struct {
	bun.BaseModel `bun:"table:modules,alias:m"`

	ID          string    `bun:",pk" json:"id"`
	CreatedAt   time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"-"`
	Title       string    `bun:",notnull" json:"title"`
	Description string    `json:"description"`
	Duration    string    `json:"duration"`
	SortOrder   int       `bun:",notnull" json:"-"`

	// Relations
	Chapters []*Chapter `bun:"rel:has-many,join:id=module_id" json:"chapters"`
}

// ChapterIndex returns the position of the chapter within the module, or -1.
func (m *Module) ChapterIndex(chapterID string) int {
	for i, ch := range m.Chapters {
		if ch.ID == chapterID {
			return i
		}
	}
	return -1
}
