package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TeamMember struct {
	bun.BaseModel `bun:"table:team_members,alias:tm"`

	ID          int       `bun:",pk,autoincrement" json:"-"`
	CreatedAt   time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"-"`
	Name        string    `json:"name"`
	Designation string    `json:"designation"`
	ImageURL    string    `bun:"image_url" json:"img"`
	LinkedinURL string    `bun:"linkedin_url" json:"linkedIn"`
	SortOrder   int       `json:"-"`
}
