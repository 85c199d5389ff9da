package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ProgressBlob holds one device's serialized progress map. The device owns the
// content; the server only stores it.
type ProgressBlob struct {
	bun.BaseModel `bun:"table:progress_blobs,alias:pb"`

	DeviceID   string    `bun:",pk" json:"device_id"`
	StorageKey string    `bun:",pk" json:"storage_key"`
	Data       string    `bun:",notnull" json:"-"`
	UpdatedAt  time.Time `bun:",notnull" json:"updated_at"`
}
