package analysis

import (
	"fmt"
	"math"
	"time"
)

// PeriodStats summarizes activities inside a trailing window. RunPaceMinKm
// is nil when no running distance was recorded in the window.
type PeriodStats struct {
	TotalKcal       float64
	TotalActivities int
	TotalHours      float64

	RunKcal       float64
	RunActivities int
	RunDistanceKm float64
	RunPaceMinKm  *float64
}

// ComputePeriodStats summarizes the activities with StartDate >= ref - days.
// It returns nil when the window contains no activities, so callers can tell
// "no data" apart from "zero calories recorded". The function is pure;
// repeated calls with the same inputs return the same result.
func ComputePeriodStats(activities []Activity, ref time.Time, days int) *PeriodStats {
	windowStart := ref.AddDate(0, 0, -days)

	var stats PeriodStats
	var runTimeMin float64
	found := false

	for _, a := range activities {
		if a.StartDate.Before(windowStart) {
			continue
		}
		found = true
		stats.TotalKcal += a.Calories
		stats.TotalActivities++
		stats.TotalHours += a.MovingTimeMin / 60.0

		if a.Sport == "Run" {
			stats.RunKcal += a.Calories
			stats.RunActivities++
			stats.RunDistanceKm += a.DistanceKm
			runTimeMin += a.MovingTimeMin
		}
	}

	if !found {
		return nil
	}

	if stats.RunDistanceKm > 0 {
		pace := runTimeMin / stats.RunDistanceKm
		stats.RunPaceMinKm = &pace
	}
	return &stats
}

// RunDistanceBetween sums running distance over [start, end). Used for the
// previous 7-day comparison window, which excludes the current one.
func RunDistanceBetween(activities []Activity, start, end time.Time) float64 {
	var distance float64
	for _, a := range activities {
		if a.Sport != "Run" {
			continue
		}
		if a.StartDate.Before(start) || !a.StartDate.Before(end) {
			continue
		}
		distance += a.DistanceKm
	}
	return distance
}

// LatestStartDate returns the most recent activity start, truncated to
// midnight in its own location. The zero time is returned for an empty
// collection.
func LatestStartDate(activities []Activity) time.Time {
	var latest time.Time
	for _, a := range activities {
		if a.StartDate.After(latest) {
			latest = a.StartDate
		}
	}
	if latest.IsZero() {
		return latest
	}
	return time.Date(latest.Year(), latest.Month(), latest.Day(), 0, 0, 0, 0, latest.Location())
}

// FormatPace renders a fractional minutes-per-km value as "m:ss/km".
// Seconds are rounded with carry, so 5.999 min/km formats as "6:00/km".
// Non-positive or nil paces format as "N/A".
func FormatPace(minPerKm *float64) string {
	if minPerKm == nil || *minPerKm <= 0 || math.IsNaN(*minPerKm) {
		return "N/A"
	}
	mins := int(*minPerKm)
	secs := int(math.Round((*minPerKm - float64(mins)) * 60))
	if secs == 60 {
		mins++
		secs = 0
	}
	return fmt.Sprintf("%d:%02d/km", mins, secs)
}
