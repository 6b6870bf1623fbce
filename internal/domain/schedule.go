package domain

import "time"

// TruncateMinute drops seconds and sub-second precision and normalises to UTC.
func TruncateMinute(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}

// IsDue reports whether a reminder due at dueAt should fire at now.
// Both sides are compared at whole-minute granularity.
func IsDue(dueAt, now time.Time) bool {
	return !TruncateMinute(dueAt).After(TruncateMinute(now))
}

// IsDueIn is IsDue guarded by the owner's timezone: tz must resolve, otherwise
// the error is returned and the caller picks a fallback zone. The comparison
// itself is between absolute instants, so the zone never shifts the result and
// a timezone change after creation never moves the firing moment.
func IsDueIn(dueAt, now time.Time, tz string) (bool, error) {
	if _, err := LoadTZ(tz); err != nil {
		return false, err
	}
	return IsDue(dueAt, now), nil
}
