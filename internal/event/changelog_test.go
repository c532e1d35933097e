package event_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-calendar/internal/event"
	"ms-calendar/internal/models"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestDiffNoOpEmitsNothing(t *testing.T) {
	prev := validCandidate()
	now := time.Now().UTC()

	// Resubmitting the stored values must not grow the history.
	ch := event.Changes{
		Title:       strPtr(prev.Title),
		Description: strPtr(prev.Description),
		Profiles:    []string(prev.ProfileIDs),
		Timezone:    strPtr(prev.Timezone),
		Start:       timePtr(prev.StartDateTime),
		End:         timePtr(prev.EndDateTime),
	}

	assert.Empty(t, event.Diff(prev, ch, "p1", now))
}

func TestDiffAbsentFieldsEmitNothing(t *testing.T) {
	prev := validCandidate()
	assert.Empty(t, event.Diff(prev, event.Changes{}, "p1", time.Now().UTC()))
}

func TestDiffOneEntryPerChangedField(t *testing.T) {
	prev := validCandidate()
	now := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

	newStart := prev.StartDateTime.Add(time.Hour)
	newEnd := prev.EndDateTime.Add(2 * time.Hour)
	ch := event.Changes{
		Title:       strPtr("Renamed sync"),
		Description: strPtr(prev.Description), // unchanged, no entry
		Profiles:    []string{"p1", "p2"},
		Timezone:    strPtr("Europe/London"),
		Start:       &newStart,
		End:         &newEnd,
	}

	entries := event.Diff(prev, ch, "p9", now)
	require.Len(t, entries, 5)

	order := make([]string, len(entries))
	for i, e := range entries {
		order[i] = e.Field
		assert.Equal(t, now, e.UpdatedAt)
		assert.Equal(t, "p9", e.UpdatedBy)
	}
	assert.Equal(t, []string{
		event.FieldTitle,
		event.FieldStartDateTime,
		event.FieldEndDateTime,
		event.FieldTimezone,
		event.FieldProfiles,
	}, order)

	assert.Equal(t, prev.Title, entries[0].OldValue)
	assert.Equal(t, "Renamed sync", entries[0].NewValue)
	assert.Equal(t, prev.StartDateTime.UTC().Format(time.RFC3339), entries[1].OldValue)
	assert.Equal(t, newStart.UTC().Format(time.RFC3339), entries[1].NewValue)
}

func TestDiffProfilesComparedByContents(t *testing.T) {
	prev := validCandidate()
	prev.ProfileIDs = models.StringList{"p1", "p2"}
	now := time.Now().UTC()

	same := event.Diff(prev, event.Changes{Profiles: []string{"p1", "p2"}}, "", now)
	assert.Empty(t, same)

	changed := event.Diff(prev, event.Changes{Profiles: []string{"p2", "p3"}}, "", now)
	require.Len(t, changed, 1)
	assert.Equal(t, event.FieldProfiles, changed[0].Field)
	assert.Equal(t, []string{"p1", "p2"}, changed[0].OldValue)
	assert.Equal(t, []string{"p2", "p3"}, changed[0].NewValue)
}

func TestDiffUnattributedActor(t *testing.T) {
	prev := validCandidate()
	entries := event.Diff(prev, event.Changes{Title: strPtr("New title")}, "", time.Now().UTC())
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].UpdatedBy)
}

func TestApplyMergesOnlyProvidedFields(t *testing.T) {
	prev := validCandidate()
	newStart := prev.StartDateTime.Add(30 * time.Minute)

	next := event.Apply(prev, event.Changes{
		Title: strPtr("Moved sync"),
		Start: &newStart,
	})

	assert.Equal(t, "Moved sync", next.Title)
	assert.Equal(t, newStart, next.StartDateTime)
	assert.Equal(t, prev.Description, next.Description)
	assert.Equal(t, prev.EndDateTime, next.EndDateTime)
	assert.Equal(t, prev.Timezone, next.Timezone)
	assert.Equal(t, prev.ProfileIDs, next.ProfileIDs)

	// The input event is untouched.
	assert.Equal(t, "Team sync", prev.Title)
}
