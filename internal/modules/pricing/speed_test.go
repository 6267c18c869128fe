// README: Speed table and duration estimate unit tests.
package pricing

import (
	"math"
	"testing"
	"time"
)

func TestDayPart(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{0, "night"},
		{5, "night"},
		{6, "morning"},
		{9, "morning"},
		{10, "afternoon"},
		{15, "afternoon"},
		{16, "evening"},
		{19, "evening"},
		{20, "night"},
		{23, "night"},
	}
	for _, tt := range tests {
		at := time.Date(2026, time.March, 10, tt.hour, 0, 0, 0, time.UTC)
		if got := dayPart(at); got != tt.want {
			t.Errorf("dayPart(hour=%d) = %s, want %s", tt.hour, got, tt.want)
		}
	}
}

func TestEstimateDurationMinutes(t *testing.T) {
	tests := []struct {
		name  string
		hour  int
		miles float64
		want  float64
	}{
		{"morning rush is slow", 8, 10, 30},    // 10mi at 20mph
		{"afternoon", 12, 10, 24},              // 10mi at 25mph
		{"evening rush is slowest", 18, 9, 30}, // 9mi at 18mph
		{"night is fastest", 2, 10, 20},        // 10mi at 30mph
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := time.Date(2026, time.March, 10, tt.hour, 0, 0, 0, time.UTC)
			got := EstimateDurationMinutes(tt.miles, at)
			if math.Abs(got-tt.want) > 0.001 {
				t.Fatalf("EstimateDurationMinutes(%.0f, hour=%d) = %.2f, want %.2f", tt.miles, tt.hour, got, tt.want)
			}
		})
	}
}
