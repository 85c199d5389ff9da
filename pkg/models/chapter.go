package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

type Chapter struct {
	bun.BaseModel `bun:"table:chapters,alias:ch"`

	ID          string    `bun:",pk" json:"id"`
	CreatedAt   time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"-"`
	ModuleID    string    `bun:",notnull" json:"-"`
	Title       string    `bun:",notnull" json:"title"`
	VideoID     string    `json:"videoId"`
	Duration    float64   `json:"duration"` // seconds
	Description string    `json:"description"`
	Links       Links     `bun:"links" json:"links"`
	SortOrder   int       `bun:",notnull" json:"-"`
}

// Links is a chapter's link list, stored as a JSON array. A stored value that
// isn't an array reads back as a single entry so the chapter stays readable.
type Links []interface{}

func (l Links) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]interface{}(l))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return string(b), nil
}

func (l *Links) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*l = Links{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return errors.Errorf("unsupported links value of type %T", src)
	}

	raw = strings.TrimSpace(raw)
	var decoded interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		decoded = raw
	}

	switch v := decoded.(type) {
	case []interface{}:
		*l = Links(v)
	case nil:
		*l = Links{}
	case string:
		if v == "" {
			*l = Links{}
		} else {
			*l = Links{v}
		}
	default:
		*l = Links{v}
	}
	return nil
}
