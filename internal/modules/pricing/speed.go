// README: Time-of-day average speed table for duration estimates.
package pricing

import "time"

// averageSpeedsMph reflects typical urban traffic per daypart.
var averageSpeedsMph = map[string]float64{
	"morning":   20, // morning rush
	"afternoon": 25,
	"evening":   18, // evening rush
	"night":     30,
}

// slowestSpeedMph feeds the worst-case duration in the fare upper bound.
const slowestSpeedMph = 18

func dayPart(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 6 && h < 10:
		return "morning"
	case h >= 10 && h < 16:
		return "afternoon"
	case h >= 16 && h < 20:
		return "evening"
	default:
		return "night"
	}
}

// EstimateDurationMinutes derives travel time from distance and the
// time-of-day average speed.
func EstimateDurationMinutes(distanceMiles float64, at time.Time) float64 {
	speed := averageSpeedsMph[dayPart(at)]
	return distanceMiles / speed * 60
}
