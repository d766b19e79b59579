package periodkey

import (
	"errors"
	"testing"
	"time"
)

func TestForBuckets(t *testing.T) {
	at := time.Date(2025, 3, 7, 15, 4, 5, 0, time.UTC)
	cases := []struct {
		period Period
		want   string
	}{
		{period: Day, want: "2025-03-07"},
		{period: Week, want: "2025-W10"},
		{period: Month, want: "2025-03"},
		{period: Year, want: "2025"},
		{period: Membership, want: "membership"},
		{period: Unlimited, want: "unlimited"},
	}
	for _, tc := range cases {
		t.Run(string(tc.period), func(t *testing.T) {
			got, err := For(tc.period, at)
			if err != nil {
				t.Fatalf("period key failed: %v", err)
			}
			if got != tc.want {
				t.Fatalf("period key want %s got %s", tc.want, got)
			}
		})
	}
}

func TestForISOWeekYearBoundaries(t *testing.T) {
	cases := []struct {
		at   time.Time
		want string
	}{
		// 2024-12-30 是周一，属于 2025 年第 1 周
		{at: time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), want: "2025-W01"},
		// 2021-01-03 是周日，属于 2020 年第 53 周
		{at: time.Date(2021, 1, 3, 23, 59, 59, 0, time.UTC), want: "2020-W53"},
		{at: time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC), want: "2021-W01"},
		{at: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), want: "2026-W01"},
	}
	for _, tc := range cases {
		got, err := For(Week, tc.at)
		if err != nil {
			t.Fatalf("week key failed: %v", err)
		}
		if got != tc.want {
			t.Fatalf("week key for %s want %s got %s", tc.at.Format(time.RFC3339), tc.want, got)
		}
	}
}

func TestForNormalizesToUTC(t *testing.T) {
	shanghai := time.FixedZone("UTC+8", 8*3600)
	at := time.Date(2025, 1, 2, 7, 30, 0, 0, shanghai)
	got, err := For(Day, at)
	if err != nil {
		t.Fatalf("day key failed: %v", err)
	}
	if got != "2025-01-01" {
		t.Fatalf("day key should use UTC date, got %s", got)
	}
}

func TestForInvalidPeriod(t *testing.T) {
	if _, err := For(Period("hourly"), time.Now()); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestParse(t *testing.T) {
	p, err := Parse("  Week ")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if p != Week {
		t.Fatalf("parse want week got %s", p)
	}
	if _, err := Parse("fortnight"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestForBookingDay(t *testing.T) {
	got, err := ForBookingDay("2025-02-28")
	if err != nil {
		t.Fatalf("booking day key failed: %v", err)
	}
	if got != "2025-02" {
		t.Fatalf("booking day key want 2025-02 got %s", got)
	}
	if _, err := ForBookingDay("2025/02/28"); !errors.Is(err, ErrInvalidBookingDay) {
		t.Fatalf("expected ErrInvalidBookingDay, got %v", err)
	}
}
