package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout accepts "15.10.2024" as well as "5.1.2024".
	DateLayout = "2.1.2006"
	// ClockLayout accepts "18:30" and "9:05".
	ClockLayout = "15:04"
	// DisplayLayout is how local date and time are echoed back to users.
	DisplayLayout = "02.01.2006 15:04"
)

// ValidateTZ checks that the tz is a valid IANA location and returns its canonical name.
// "Local" and the empty string are rejected: both silently map to a host-dependent zone.
func ValidateTZ(tz string) (string, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" || tz == "Local" {
		return "", fmt.Errorf("%w: %q", ErrUnknownTimezone, tz)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownTimezone, tz)
	}
	return loc.String(), nil
}

// LoadTZ returns the location for a validated timezone name.
func LoadTZ(tz string) (*time.Location, error) {
	name, err := ValidateTZ(tz)
	if err != nil {
		return nil, err
	}
	return time.LoadLocation(name)
}

// ToUTC interprets localDate (DD.MM.YYYY) and localTime (HH:MM) as a wall-clock
// reading in tz and returns the matching instant in UTC. The offset used is the
// one in effect at that date, so DST transitions are honoured.
func ToUTC(localDate, localTime, tz string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(localDate))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q, expected DD.MM.YYYY", ErrInvalidTimeFormat, localDate)
	}
	c, err := time.Parse(ClockLayout, strings.TrimSpace(localTime))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time %q, expected HH:MM", ErrInvalidTimeFormat, localTime)
	}
	loc, err := LoadTZ(tz)
	if err != nil {
		return time.Time{}, err
	}
	local := time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, loc)
	return local.UTC(), nil
}

// FormatLocal formats t in the user's timezone as DD.MM.YYYY HH:MM.
func FormatLocal(t time.Time, tz string) (string, error) {
	loc, err := LoadTZ(tz)
	if err != nil {
		return "", err
	}
	return t.In(loc).Format(DisplayLayout), nil
}
