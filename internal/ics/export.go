// Package ics renders events as an iCalendar feed so external calendar
// clients can subscribe to the same view the list endpoint serves.
package ics

import (
	"fmt"

	ical "github.com/arran4/golang-ical"

	"ms-calendar/internal/models"
)

const prodID = "-//ms-calendar//calendar-api//EN"

// Export builds a VCALENDAR from the given events. Instants are emitted in
// UTC; the event's own timezone travels along as a non-standard property so
// consumers can reconstruct the intended wall clock.
func Export(events []models.EventResponse) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)

	for _, ev := range events {
		ve := cal.AddEvent(fmt.Sprintf("%s@ms-calendar", ev.ID))
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		ve.SetStartAt(ev.StartDateTime)
		ve.SetEndAt(ev.EndDateTime)
		ve.SetDtStampTime(ev.CreatedAt)
		ve.SetProperty("X-EVENT-TIMEZONE", ev.Timezone)

		for _, p := range ev.Profiles {
			if p.Name != "" {
				ve.AddAttendee(p.ID, ical.ParticipationStatusNeedsAction,
					ical.WithCN(p.Name))
			}
		}
		if ev.CreatedBy != nil && ev.CreatedBy.Name != "" {
			ve.SetOrganizer(ev.CreatedBy.ID, ical.WithCN(ev.CreatedBy.Name))
		}
	}

	return cal.Serialize()
}
