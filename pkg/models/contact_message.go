package models

import (
	"time"

	"github.com/uptrace/bun"
)

type ContactMessage struct {
	bun.BaseModel `bun:"table:contact_messages,alias:cm"`

	ID          int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt   time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"-"`
	Name        string    `bun:",notnull" json:"name"`
	Email       string    `bun:",notnull" json:"email"`
	Message     string    `bun:",notnull" json:"message"`
	SubmittedAt time.Time `bun:",notnull" json:"submitted_at"`
}
