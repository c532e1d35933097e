package timezone

import (
	"fmt"
	"time"

	"ms-calendar/internal/errs"
)

// Wall-clock layouts accepted from clients. No offset, no zone: the string is
// meaningful only against an IANA zone.
const (
	wallClockLayout        = "2006-01-02T15:04:05"
	wallClockMinuteLayout  = "2006-01-02T15:04"
	wallClockDateLayout    = "2006-01-02"
	displayOffsetLayout    = "-07:00"
	localDateTimeSeparator = "T"
)

// LoadZone resolves an IANA identifier to a *time.Location.
func LoadZone(zoneID string) (*time.Location, error) {
	if zoneID == "" {
		return nil, fmt.Errorf("%w: empty zone identifier", errs.ErrInvalidTimezone)
	}
	loc, err := time.LoadLocation(zoneID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidTimezone, zoneID)
	}
	return loc, nil
}

// Valid reports whether zoneID resolves to a known IANA zone.
func Valid(zoneID string) bool {
	_, err := LoadZone(zoneID)
	return err == nil
}

// ToInstant interprets a wall-clock string as local time in the named zone
// and returns the absolute instant in UTC.
//
// DST handling:
//   - fall-back overlap: the wall clock occurs twice; the later occurrence
//     (post-transition offset) wins
//   - spring-forward gap: the wall clock never occurs; the result is the
//     first valid instant at or after it, i.e. the transition point
func ToInstant(localDateTime, zoneID string) (time.Time, error) {
	loc, err := LoadZone(zoneID)
	if err != nil {
		return time.Time{}, err
	}

	wall, err := parseWallClock(localDateTime)
	if err != nil {
		return time.Time{}, err
	}

	return resolveWallClock(wall, loc), nil
}

// ToLocal renders an absolute instant as a wall-clock string in the named
// zone. Pure and total for any valid zone.
func ToLocal(instant time.Time, zoneID string) (string, error) {
	loc, err := LoadZone(zoneID)
	if err != nil {
		return "", err
	}
	return instant.In(loc).Format(wallClockLayout), nil
}

// OffsetOf returns the signed UTC offset of a zone at a given instant,
// formatted for display, e.g. "+05:30" or "-04:00".
func OffsetOf(zoneID string, at time.Time) (string, error) {
	loc, err := LoadZone(zoneID)
	if err != nil {
		return "", err
	}
	return at.In(loc).Format(displayOffsetLayout), nil
}

// ParseDateTime accepts either an absolute ISO-8601 datetime (with offset or
// trailing Z) or a bare wall-clock string resolved against zoneID. The
// result is always UTC.
func ParseDateTime(value, zoneID string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	return ToInstant(value, zoneID)
}

func parseWallClock(s string) (time.Time, error) {
	for _, layout := range []string{wallClockLayout, wallClockMinuteLayout, wallClockDateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", errs.ErrInvalidDateTime, s)
}

// resolveWallClock maps a zone-less wall clock onto an instant in loc.
//
// The wall clock is reinterpreted with each UTC offset the zone uses around
// that date. Offsets that reproduce the requested wall clock are valid
// candidates; the latest one wins (fall-back rule). When no offset
// reproduces it the wall clock sits inside a spring-forward gap and the
// transition instant is located by binary search between the two candidate
// interpretations.
func resolveWallClock(wall time.Time, loc *time.Location) time.Time {
	utcGuess := time.Date(wall.Year(), wall.Month(), wall.Day(),
		wall.Hour(), wall.Minute(), wall.Second(), 0, time.UTC)

	seen := map[int]bool{}
	var candidates []time.Time
	for _, probe := range []time.Time{
		utcGuess.Add(-30 * time.Hour),
		utcGuess,
		utcGuess.Add(30 * time.Hour),
	} {
		_, offset := probe.In(loc).Zone()
		if seen[offset] {
			continue
		}
		seen[offset] = true

		cand := utcGuess.Add(-time.Duration(offset) * time.Second)
		if sameWallClock(cand.In(loc), wall) {
			candidates = append(candidates, cand)
		}
	}

	switch len(candidates) {
	case 1:
		return candidates[0].UTC()
	case 0:
		return gapTransition(utcGuess, loc).UTC()
	default:
		latest := candidates[0]
		for _, c := range candidates[1:] {
			if c.After(latest) {
				latest = c
			}
		}
		return latest.UTC()
	}
}

// gapTransition finds the instant a spring-forward transition takes effect.
// Interpreting the gap wall clock with the pre-transition offset lands after
// the transition; with the post-transition offset, before it. The switch
// point between those two bounds is the first valid instant.
func gapTransition(utcGuess time.Time, loc *time.Location) time.Time {
	offsets := make([]int, 0, 2)
	seen := map[int]bool{}
	for _, probe := range []time.Time{
		utcGuess.Add(-30 * time.Hour),
		utcGuess.Add(30 * time.Hour),
	} {
		_, offset := probe.In(loc).Zone()
		if !seen[offset] {
			seen[offset] = true
			offsets = append(offsets, offset)
		}
	}
	if len(offsets) < 2 {
		// No surrounding transition; trust the runtime's normalization.
		return time.Date(utcGuess.Year(), utcGuess.Month(), utcGuess.Day(),
			utcGuess.Hour(), utcGuess.Minute(), utcGuess.Second(), 0, loc)
	}

	lo := utcGuess.Add(-time.Duration(max(offsets[0], offsets[1])) * time.Second)
	hi := utcGuess.Add(-time.Duration(min(offsets[0], offsets[1])) * time.Second)
	_, loOffset := lo.In(loc).Zone()

	for hi.Sub(lo) > time.Second {
		mid := lo.Add(hi.Sub(lo) / 2)
		if _, offset := mid.In(loc).Zone(); offset == loOffset {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi
}

func sameWallClock(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day() &&
		a.Hour() == b.Hour() && a.Minute() == b.Minute() && a.Second() == b.Second()
}
