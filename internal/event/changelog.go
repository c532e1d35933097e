package event

import (
	"bytes"
	"encoding/json"
	"time"

	"ms-calendar/internal/models"
)

// Tracked field names, in the order entries are emitted. The enumeration is
// fixed; anything else on the record never produces history.
const (
	FieldTitle         = "title"
	FieldDescription   = "description"
	FieldStartDateTime = "startDateTime"
	FieldEndDateTime   = "endDateTime"
	FieldTimezone      = "timezone"
	FieldProfiles      = "profiles"
)

// Changes holds the resolved values of an update request. A nil member means
// the field was absent from the payload: it is left untouched and emits no
// change entry. Datetime strings have already been resolved to instants.
type Changes struct {
	Title       *string
	Description *string
	Profiles    []string
	Timezone    *string
	Start       *time.Time
	End         *time.Time
}

// Diff compares an event against proposed changes and returns one entry per
// field whose value actually differs, in fixed field order. Old and new
// values are frozen exactly as stored at this moment. An empty actor still
// records the entry, just without attribution.
func Diff(prev models.Event, ch Changes, actor string, now time.Time) []models.ChangeLogEntry {
	var entries []models.ChangeLogEntry

	record := func(field string, oldValue, newValue interface{}) {
		if structurallyEqual(oldValue, newValue) {
			return
		}
		entries = append(entries, models.ChangeLogEntry{
			Field:     field,
			OldValue:  oldValue,
			NewValue:  newValue,
			UpdatedAt: now,
			UpdatedBy: actor,
		})
	}

	if ch.Title != nil {
		record(FieldTitle, prev.Title, *ch.Title)
	}
	if ch.Description != nil {
		record(FieldDescription, prev.Description, *ch.Description)
	}
	if ch.Start != nil {
		record(FieldStartDateTime, snapshotInstant(prev.StartDateTime), snapshotInstant(*ch.Start))
	}
	if ch.End != nil {
		record(FieldEndDateTime, snapshotInstant(prev.EndDateTime), snapshotInstant(*ch.End))
	}
	if ch.Timezone != nil {
		record(FieldTimezone, prev.Timezone, *ch.Timezone)
	}
	if ch.Profiles != nil {
		record(FieldProfiles, []string(prev.ProfileIDs), ch.Profiles)
	}

	return entries
}

// Apply merges the changes onto a copy of the event and returns it. The
// change history is not touched here; appending diffed entries is the
// repository's job inside the update transaction.
func Apply(prev models.Event, ch Changes) models.Event {
	next := prev
	if ch.Title != nil {
		next.Title = *ch.Title
	}
	if ch.Description != nil {
		next.Description = *ch.Description
	}
	if ch.Profiles != nil {
		next.ProfileIDs = models.StringList(ch.Profiles)
	}
	if ch.Timezone != nil {
		next.Timezone = *ch.Timezone
	}
	if ch.Start != nil {
		next.StartDateTime = *ch.Start
	}
	if ch.End != nil {
		next.EndDateTime = *ch.End
	}
	return next
}

// snapshotInstant freezes an instant the way it is stored: RFC 3339 in UTC.
func snapshotInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// structurallyEqual compares values by canonical JSON form, so slices match
// element-wise rather than by reference.
func structurallyEqual(a, b interface{}) bool {
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(aj, bj)
}
