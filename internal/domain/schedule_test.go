package domain

import (
	"errors"
	"testing"
	"time"
)

// helper: build a time in given tz and return its UTC
func mustLocalUTC(t *testing.T, tz string, y int, m time.Month, d, hh, mm int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	lt := time.Date(y, m, d, hh, mm, 0, 0, loc)
	return lt.UTC()
}

func TestToUTC_Moscow(t *testing.T) {
	got, err := ToUTC("15.10.2024", "18:30", "Europe/Moscow")
	if err != nil {
		t.Fatalf("ToUTC: %v", err)
	}
	want := time.Date(2024, time.October, 15, 15, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("want %s, got %s", want, got)
	}
	if got.Location() != time.UTC {
		t.Fatalf("want UTC location, got %s", got.Location())
	}
}

func TestToUTC_UsesOffsetAtThatDate(t *testing.T) {
	winter, err := ToUTC("15.01.2024", "12:00", "America/New_York")
	if err != nil {
		t.Fatalf("winter: %v", err)
	}
	summer, err := ToUTC("15.07.2024", "12:00", "America/New_York")
	if err != nil {
		t.Fatalf("summer: %v", err)
	}
	if winter.Hour() != 17 {
		t.Fatalf("winter: want 17:00 UTC (EST), got %s", winter)
	}
	if summer.Hour() != 16 {
		t.Fatalf("summer: want 16:00 UTC (EDT), got %s", summer)
	}
}

func TestToUTC_Errors(t *testing.T) {
	cases := []struct {
		name       string
		date, time string
		tz         string
		want       error
	}{
		{"bad date", "2024-10-15", "18:30", "UTC", ErrInvalidTimeFormat},
		{"impossible day", "31.02.2024", "18:30", "UTC", ErrInvalidTimeFormat},
		{"bad time", "15.10.2024", "6pm", "UTC", ErrInvalidTimeFormat},
		{"hour out of range", "15.10.2024", "24:00", "UTC", ErrInvalidTimeFormat},
		{"seconds not accepted", "15.10.2024", "18:30:00", "UTC", ErrInvalidTimeFormat},
		{"unknown tz", "15.10.2024", "18:30", "Mars/Olympus", ErrUnknownTimezone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ToUTC(tc.date, tc.time, tc.tz)
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
}

func TestToUTC_RoundTrip(t *testing.T) {
	zones := []string{"UTC", "Europe/Moscow", "America/New_York", "Asia/Kolkata", "Australia/Adelaide", "Pacific/Chatham"}
	inputs := [][2]string{
		{"01.01.2025", "00:00"},
		{"15.10.2024", "18:30"},
		{"29.02.2024", "23:59"},
		{"4.7.2025", "9:05"},
		{"03.11.2024", "12:45"},
	}
	for _, tz := range zones {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			t.Fatalf("load %s: %v", tz, err)
		}
		for _, in := range inputs {
			utc, err := ToUTC(in[0], in[1], tz)
			if err != nil {
				t.Fatalf("%s %v: %v", tz, in, err)
			}
			wantDate, _ := time.Parse(DateLayout, in[0])
			wantClock, _ := time.Parse(ClockLayout, in[1])
			back := utc.In(loc)
			if back.Year() != wantDate.Year() || back.Month() != wantDate.Month() || back.Day() != wantDate.Day() ||
				back.Hour() != wantClock.Hour() || back.Minute() != wantClock.Minute() {
				t.Fatalf("%s %v: round trip produced %s", tz, in, back)
			}
		}
	}
}

func TestValidateTZ(t *testing.T) {
	for _, tz := range []string{"Europe/Moscow", "UTC", "Asia/Almaty", " Europe/Tallinn "} {
		if _, err := ValidateTZ(tz); err != nil {
			t.Fatalf("%q should be valid: %v", tz, err)
		}
	}
	for _, tz := range []string{"", "Local", "Moscow", "Europe/Atlantis", "../etc/passwd"} {
		if _, err := ValidateTZ(tz); !errors.Is(err, ErrUnknownTimezone) {
			t.Fatalf("%q should be rejected, got %v", tz, err)
		}
	}
}

func TestIsDue_Monotonic(t *testing.T) {
	base := time.Date(2024, time.October, 15, 15, 30, 0, 0, time.UTC)
	for _, delta := range []time.Duration{0, time.Second, 59 * time.Second, time.Minute, 48 * time.Hour} {
		if !IsDue(base, base.Add(delta)) {
			t.Fatalf("due at %s should fire at +%s", base, delta)
		}
	}
	for _, delta := range []time.Duration{-time.Minute, -time.Hour, -30 * 24 * time.Hour} {
		if IsDue(base, base.Add(delta)) {
			t.Fatalf("due at %s must not fire %s earlier", base, -delta)
		}
	}
	// a later instant always is due, an earlier one never is
	for a := 0; a < 5; a++ {
		for b := 0; b < 5; b++ {
			dueAt := base.Add(time.Duration(a) * time.Minute)
			now := base.Add(time.Duration(b) * time.Minute)
			if got, want := IsDue(dueAt, now), a <= b; got != want {
				t.Fatalf("IsDue(+%dm, +%dm) = %v, want %v", a, b, got, want)
			}
		}
	}
}

func TestIsDue_IgnoresSubMinuteJitter(t *testing.T) {
	dueAt := time.Date(2024, time.October, 15, 15, 30, 42, 0, time.UTC)
	now := time.Date(2024, time.October, 15, 15, 30, 1, 500, time.UTC)
	if !IsDue(dueAt, now) {
		t.Fatal("same minute must be due regardless of seconds")
	}
}

func TestIsDueIn_ZoneIsValidatedOnly(t *testing.T) {
	dueAt := mustLocalUTC(t, "Europe/Moscow", 2024, time.October, 15, 18, 30)
	now := time.Date(2024, time.October, 15, 15, 30, 0, 0, time.UTC)

	for _, tz := range []string{"Europe/Moscow", "America/New_York", "Asia/Tokyo", "Asia/Kolkata"} {
		due, err := IsDueIn(dueAt, now, tz)
		if err != nil {
			t.Fatalf("%s: %v", tz, err)
		}
		if !due {
			t.Fatalf("%s: reminder must fire at the stored instant", tz)
		}
		due, _ = IsDueIn(dueAt, now.Add(-time.Minute), tz)
		if due {
			t.Fatalf("%s: reminder fired a minute early", tz)
		}
	}

	if _, err := IsDueIn(dueAt, now, "Nowhere/Special"); !errors.Is(err, ErrUnknownTimezone) {
		t.Fatalf("want ErrUnknownTimezone, got %v", err)
	}
}

func TestFormatLocal(t *testing.T) {
	got, err := FormatLocal(time.Date(2024, time.October, 15, 15, 30, 0, 0, time.UTC), "Europe/Moscow")
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if got != "15.10.2024 18:30" {
		t.Fatalf("want 15.10.2024 18:30, got %s", got)
	}
}
