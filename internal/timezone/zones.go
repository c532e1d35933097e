package timezone

import "time"

// ZoneInfo is one entry of the timezone listing exposed to clients, the zone
// name paired with its UTC offset at the moment of the request.
type ZoneInfo struct {
	ID     string `json:"id"`
	Offset string `json:"offset"`
}

// commonZones is the picker list offered by the UI. Not exhaustive; any IANA
// identifier is still accepted on profiles and events.
var commonZones = []string{
	"UTC",
	"America/New_York",
	"America/Chicago",
	"America/Denver",
	"America/Los_Angeles",
	"America/Anchorage",
	"America/Toronto",
	"America/Mexico_City",
	"America/Sao_Paulo",
	"America/Argentina/Buenos_Aires",
	"Europe/London",
	"Europe/Paris",
	"Europe/Berlin",
	"Europe/Madrid",
	"Europe/Rome",
	"Europe/Moscow",
	"Europe/Istanbul",
	"Africa/Cairo",
	"Africa/Lagos",
	"Africa/Johannesburg",
	"Asia/Dubai",
	"Asia/Karachi",
	"Asia/Kolkata",
	"Asia/Dhaka",
	"Asia/Bangkok",
	"Asia/Singapore",
	"Asia/Hong_Kong",
	"Asia/Shanghai",
	"Asia/Tokyo",
	"Asia/Seoul",
	"Australia/Perth",
	"Australia/Sydney",
	"Pacific/Auckland",
	"Pacific/Honolulu",
}

// Zones returns the picker list with each zone's offset at the given instant.
func Zones(at time.Time) []ZoneInfo {
	infos := make([]ZoneInfo, 0, len(commonZones))
	for _, id := range commonZones {
		offset, err := OffsetOf(id, at)
		if err != nil {
			continue
		}
		infos = append(infos, ZoneInfo{ID: id, Offset: offset})
	}
	return infos
}
