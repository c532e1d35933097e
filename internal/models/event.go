package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// ChangeLogEntry records one field transition during an update. Entries are
// immutable once appended; order is append order.
type ChangeLogEntry struct {
	Field     string      `json:"field"`
	OldValue  interface{} `json:"oldValue"`
	NewValue  interface{} `json:"newValue"`
	UpdatedAt time.Time   `json:"updatedAt"`
	UpdatedBy string      `json:"updatedBy,omitempty"`
}

// ChangeLog is the ordered change history embedded on the event row as a
// JSON array, so an update commits field values and history in one write.
type ChangeLog []ChangeLogEntry

func (c ChangeLog) Value() (driver.Value, error) {
	if c == nil {
		c = ChangeLog{}
	}
	return json.Marshal(c)
}

func (c *ChangeLog) Scan(src interface{}) error {
	return scanJSON(src, c)
}

// StringList stores profile references as a JSON array of opaque IDs,
// portable across the postgres and sqlite dialects.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

func scanJSON(src, dest interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("cannot scan %T into %T", src, dest)
	}
}

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID            string     `bun:"id,pk" json:"id"`
	Title         string     `bun:"title,notnull" json:"title"`
	Description   string     `bun:"description" json:"description,omitempty"`
	ProfileIDs    StringList `bun:"profile_ids,notnull" json:"profiles"`
	Timezone      string     `bun:"timezone,notnull" json:"timezone"`
	StartDateTime time.Time  `bun:"start_date_time,notnull" json:"startDateTime"`
	EndDateTime   time.Time  `bun:"end_date_time,notnull" json:"endDateTime"`
	CreatedBy     string     `bun:"created_by" json:"createdBy,omitempty"`
	UpdateLogs    ChangeLog  `bun:"update_logs" json:"updateLogs"`
	CreatedAt     time.Time  `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero" json:"updatedAt"`
}

// EventRequest is the create payload. Datetime fields accept ISO-8601 with
// offset/Z, or a bare wall clock interpreted in Timezone.
type EventRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Profiles      []string `json:"profiles"`
	Timezone      string   `json:"timezone"`
	StartDateTime string   `json:"startDateTime"`
	EndDateTime   string   `json:"endDateTime"`
	CreatedBy     string   `json:"createdBy"`
}

// EventUpdate is the partial update payload; nil means the field was absent
// and must be left untouched (and produce no change log entry).
type EventUpdate struct {
	Title         *string   `json:"title"`
	Description   *string   `json:"description"`
	Profiles      *[]string `json:"profiles"`
	Timezone      *string   `json:"timezone"`
	StartDateTime *string   `json:"startDateTime"`
	EndDateTime   *string   `json:"endDateTime"`
	UpdatedBy     string    `json:"updatedBy"`
}

// EventFilter narrows the event listing; filters combine conjunctively.
// The date range applies to the event start instant.
type EventFilter struct {
	ProfileID string
	StartDate *time.Time
	EndDate   *time.Time
	Timezone  string
	Search    string
}

// ChangeLogView is a change entry with its actor resolved for responses.
type ChangeLogView struct {
	Field     string      `json:"field"`
	OldValue  interface{} `json:"oldValue"`
	NewValue  interface{} `json:"newValue"`
	UpdatedAt time.Time   `json:"updatedAt"`
	UpdatedBy *ProfileRef `json:"updatedBy,omitempty"`
}

// EventResponse is an event with profile references resolved.
type EventResponse struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Profiles      []ProfileRef    `json:"profiles"`
	Timezone      string          `json:"timezone"`
	StartDateTime time.Time       `json:"startDateTime"`
	EndDateTime   time.Time       `json:"endDateTime"`
	CreatedBy     *ProfileRef     `json:"createdBy,omitempty"`
	UpdateLogs    []ChangeLogView `json:"updateLogs"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt,omitempty"`
}
