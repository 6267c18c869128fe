// README: Surge multiplier unit tests: demand tiers, time/day factors, tier snapping.
package pricing

import (
	"testing"
	"time"
)

// Fixed reference times. 2026-03-10 is a Tuesday, 2026-03-14 a Saturday.
var (
	weekdayNoon    = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	weekdayMorning = time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	weekdayEvening = time.Date(2026, time.March, 10, 18, 0, 0, 0, time.UTC)
	saturdayNoon   = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	saturdayNight  = time.Date(2026, time.March, 14, 23, 0, 0, 0, time.UTC)
)

func TestDemandTier(t *testing.T) {
	tests := []struct {
		ratio float64
		want  float64
	}{
		{0.0, 1.0},
		{0.49, 1.0},
		{0.5, 1.2},
		{0.69, 1.2},
		{0.7, 1.5},
		{0.84, 1.5},
		{0.85, 2.0},
		{0.94, 2.0},
		{0.95, 2.5},
		{1.0, 2.5},
	}
	for _, tt := range tests {
		if got := demandTier(tt.ratio); got != tt.want {
			t.Errorf("demandTier(%.2f) = %.1f, want %.1f", tt.ratio, got, tt.want)
		}
	}
}

func TestDemandTierMonotonic(t *testing.T) {
	prev := 0.0
	for ratio := 0.0; ratio <= 1.5; ratio += 0.01 {
		tier := demandTier(ratio)
		if tier < prev {
			t.Fatalf("demandTier decreased at ratio %.2f: %.1f -> %.1f", ratio, prev, tier)
		}
		prev = tier
	}
}

func TestComputeSurge(t *testing.T) {
	tests := []struct {
		name    string
		ratio   float64
		at      time.Time
		weather string
		event   bool
		want    float64
	}{
		{"quiet weekday noon", 0.2, weekdayNoon, "", false, 1.0},
		{"high demand weekday noon", 0.9, weekdayNoon, "", false, 2.0},
		// 2.0 demand * 1.3 morning rush = 2.6, snapped down to 2.5.
		{"high demand morning rush", 0.9, weekdayMorning, "", false, 2.5},
		// 1.0 * 1.5 evening rush = 1.5.
		{"quiet evening rush", 0.2, weekdayEvening, "", false, 1.5},
		// 1.0 * 1.4 weekend late night = 1.4, snapped up to 1.5.
		{"quiet saturday night", 0.2, saturdayNight, "", false, 1.5},
		// 1.0 * 1.2 weekend day = 1.2.
		{"quiet saturday noon", 0.2, saturdayNoon, "", false, 1.2},
		// 1.0 * 1.2 rain = 1.2.
		{"rain weekday noon", 0.2, weekdayNoon, "rain", false, 1.2},
		// 1.0 * 1.5 snow = 1.5.
		{"snow weekday noon", 0.2, weekdayNoon, "snow", false, 1.5},
		// 1.0 * 1.3 event = 1.3, nearer 1.2 than 1.5.
		{"event weekday noon", 0.2, weekdayNoon, "", true, 1.2},
		// 2.5 * 1.5 rush * 1.5 snow would be 5.6; capped by the top tier.
		{"everything at once", 1.0, weekdayEvening, "snow", true, 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeSurge(tt.ratio, tt.at, tt.weather, tt.event)
			if got != tt.want {
				t.Fatalf("ComputeSurge = %.2f, want %.2f", got, tt.want)
			}
		})
	}
}

func TestComputeSurgeNonDecreasingInDemand(t *testing.T) {
	for _, at := range []time.Time{weekdayNoon, weekdayMorning, saturdayNight} {
		prev := 0.0
		for ratio := 0.0; ratio <= 1.2; ratio += 0.05 {
			s := ComputeSurge(ratio, at, "", false)
			if s < prev {
				t.Fatalf("surge decreased at ratio %.2f (%s): %.2f -> %.2f", ratio, at, prev, s)
			}
			prev = s
		}
	}
}

func TestSnapToTier(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.8, 1.0},
		{1.0, 1.0},
		{1.1, 1.2}, // equidistant, ties round up
		{1.3, 1.2},
		{1.4, 1.5},
		{1.7, 1.5},
		{1.8, 2.0},
		{2.3, 2.5},
		{2.8, 3.0},
		{9.9, 3.0},
	}
	for _, tt := range tests {
		if got := snapToTier(tt.in); got != tt.want {
			t.Errorf("snapToTier(%.2f) = %.1f, want %.1f", tt.in, got, tt.want)
		}
	}
}
