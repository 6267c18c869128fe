// README: Surge multiplier computation: demand tiers, time/day/weather factors, tier snapping.
package pricing

import (
	"math"
	"time"
)

// surgeTiers are the only multipliers a quote may carry. Tiering produces
// stable, explainable prices instead of continuously fluctuating ones.
var surgeTiers = []float64{1.0, 1.2, 1.5, 2.0, 2.5, 3.0}

const maxSurgeTier = 3.0

// demandTier buckets the pending-requests / available-drivers ratio.
func demandTier(ratio float64) float64 {
	switch {
	case ratio < 0.5:
		return 1.0
	case ratio < 0.7:
		return 1.2
	case ratio < 0.85:
		return 1.5
	case ratio < 0.95:
		return 2.0
	default:
		return 2.5
	}
}

// timeOfDayFactor applies weekday rush-hour premiums.
func timeOfDayFactor(t time.Time) float64 {
	h := t.Hour()
	switch d := t.Weekday(); d {
	case time.Saturday, time.Sunday:
		return 1.0
	default:
		if h >= 7 && h <= 9 {
			return 1.3
		}
		if h >= 17 && h <= 19 {
			return 1.5
		}
		return 1.0
	}
}

// dayOfWeekFactor applies weekend premiums, with a higher late-night rate.
func dayOfWeekFactor(t time.Time) float64 {
	d := t.Weekday()
	if d != time.Saturday && d != time.Sunday {
		return 1.0
	}
	h := t.Hour()
	if h >= 22 || h < 2 {
		return 1.4
	}
	return 1.2
}

func weatherFactor(weather string) float64 {
	switch weather {
	case "rain":
		return 1.2
	case "snow":
		return 1.5
	default:
		return 1.0
	}
}

func eventFactor(specialEvent bool) float64 {
	if specialEvent {
		return 1.3
	}
	return 1.0
}

// ComputeSurge combines the demand tier with the independent time, day,
// weather, and event factors, then snaps the product to the nearest tier.
// Pure function of its inputs.
func ComputeSurge(demandRatio float64, at time.Time, weather string, specialEvent bool) float64 {
	raw := demandTier(demandRatio) *
		timeOfDayFactor(at) *
		dayOfWeekFactor(at) *
		weatherFactor(weather) *
		eventFactor(specialEvent)
	return snapToTier(raw)
}

// snapToTier rounds to the nearest defined tier. Ties round up.
func snapToTier(v float64) float64 {
	best := surgeTiers[0]
	bestDiff := math.Inf(1)
	for _, tier := range surgeTiers {
		diff := math.Abs(v - tier)
		if diff < bestDiff || (diff == bestDiff && tier > best) {
			best = tier
			bestDiff = diff
		}
	}
	return best
}
