package event

import (
	"strings"

	"ms-calendar/internal/errs"
	"ms-calendar/internal/models"
	"ms-calendar/internal/timezone"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
)

// Validate checks every invariant on a fully merged event candidate and
// returns a *errs.ValidationError listing all violated fields, or nil.
// Rules are never short-circuited so one response can carry every problem.
func Validate(candidate models.Event) error {
	ve := &errs.ValidationError{}

	title := strings.TrimSpace(candidate.Title)
	if title == "" {
		ve.Add("title", "Event title is required")
	} else if len(title) > maxTitleLen {
		ve.Add("title", "Title cannot exceed %d characters", maxTitleLen)
	}

	if len(candidate.Description) > maxDescriptionLen {
		ve.Add("description", "Description cannot exceed %d characters", maxDescriptionLen)
	}

	if len(candidate.ProfileIDs) == 0 {
		ve.Add("profiles", "At least one profile is required")
	}

	if candidate.Timezone == "" {
		ve.Add("timezone", "Timezone is required")
	} else if !timezone.Valid(candidate.Timezone) {
		ve.Add("timezone", "Unknown timezone: %s", candidate.Timezone)
	}

	if candidate.StartDateTime.IsZero() {
		ve.Add("startDateTime", "Start date/time is required")
	}
	if candidate.EndDateTime.IsZero() {
		ve.Add("endDateTime", "End date/time is required")
	} else if !candidate.StartDateTime.IsZero() && !candidate.EndDateTime.After(candidate.StartDateTime) {
		ve.Add("endDateTime", "End date/time must be after start date/time")
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}
