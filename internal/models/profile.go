package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Profile struct {
	bun.BaseModel `bun:"table:profiles"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Timezone  string    `bun:"timezone,notnull" json:"timezone"`
	IsActive  bool      `bun:"is_active" json:"isActive"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updatedAt"`
}

// ProfileRef is the resolved reference shape embedded in event responses:
// {id, name, timezone} for assigned profiles, {id, name} for actors.
type ProfileRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone,omitempty"`
}

type ProfileRequest struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
	IsActive *bool  `json:"isActive"`
}

// ProfileFilter narrows the profile listing. Search matches names
// case-insensitively; SortBy is "name" (ascending) or a timestamp field
// (descending).
type ProfileFilter struct {
	Timezone string
	Search   string
	SortBy   string
}
