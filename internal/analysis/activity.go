// Package analysis normalizes raw Strava activity records and computes
// training statistics over them: weekly calorie totals, trailing-period
// summaries, and a week-over-week running load risk classification.
package analysis

import (
	"fmt"
	"time"

	"github.com/renaultste-svg/strava-miguel-dashboard/internal/logging"
	"github.com/renaultste-svg/strava-miguel-dashboard/internal/strava"
)

// kJ -> kcal conversion factor
const kilojoulesToKcal = 0.239

// DefaultBodyMassKg is used when no athlete weight is configured.
const DefaultBodyMassKg = 89.0

// Config carries the externally supplied parameters the pipeline needs.
// It is passed by value into normalization; there is no package-level state.
type Config struct {
	BodyMassKg float64
}

// CalorieSource records which branch produced an activity's calorie value.
type CalorieSource string

const (
	// CalorieReported means Strava supplied the value directly.
	CalorieReported CalorieSource = "reported"
	// CalorieFromKilojoules means the value was converted from kilojoules.
	CalorieFromKilojoules CalorieSource = "kilojoules"
	// CalorieEstimated means the value came from the run heuristic
	// (~1 kcal per kg of body mass per km).
	CalorieEstimated CalorieSource = "estimated"
	// CalorieNone means no value could be determined; calories are 0.
	CalorieNone CalorieSource = "none"
)

// Activity is a normalized exercise session. All fields are populated after
// normalization; Calories is never "missing", it resolves to 0.
type Activity struct {
	ID            int64
	Name          string
	Sport         string
	DistanceKm    float64
	MovingTimeMin float64
	StartDate     time.Time
	Calories      float64
	CalorieSource CalorieSource
	ISOYear       int
	ISOWeek       int
	WeekLabel     string
}

// MissingTimestampError indicates a raw record carried neither a local nor a
// UTC start timestamp. It is fatal for that record only.
type MissingTimestampError struct {
	ActivityID int64
}

func (e *MissingTimestampError) Error() string {
	return fmt.Sprintf("activity %d has no start timestamp", e.ActivityID)
}

// Normalize converts one raw Strava record into an Activity. Missing or
// malformed optional fields default per the rules below; only a missing
// start timestamp is an error.
//
// Field rules:
//   - sport: sport_type if present, else type, else "Unknown"
//   - distance: meters/1000, missing -> 0
//   - moving time: seconds/60, missing -> 0
//   - start date: local timestamp preferred, UTC fallback
//   - calories: see estimateCalories
func Normalize(raw strava.RawActivity, cfg Config) (Activity, error) {
	sport := "Unknown"
	if raw.SportType != nil && *raw.SportType != "" {
		sport = *raw.SportType
	} else if raw.Type != nil && *raw.Type != "" {
		sport = *raw.Type
	}

	var distanceKm float64
	if raw.Distance != nil {
		distanceKm = *raw.Distance / 1000.0
	}

	var movingTimeMin float64
	if raw.MovingTime != nil {
		movingTimeMin = *raw.MovingTime / 60.0
	}

	var startDate time.Time
	switch {
	case raw.StartDateLocal != nil && !raw.StartDateLocal.IsZero():
		startDate = *raw.StartDateLocal
	case raw.StartDate != nil && !raw.StartDate.IsZero():
		startDate = *raw.StartDate
	default:
		return Activity{}, &MissingTimestampError{ActivityID: raw.ID}
	}

	calories, source := estimateCalories(raw, sport, distanceKm, cfg)

	isoYear, isoWeek := startDate.ISOWeek()

	return Activity{
		ID:            raw.ID,
		Name:          raw.Name,
		Sport:         sport,
		DistanceKm:    distanceKm,
		MovingTimeMin: movingTimeMin,
		StartDate:     startDate,
		Calories:      calories,
		CalorieSource: source,
		ISOYear:       isoYear,
		ISOWeek:       isoWeek,
		WeekLabel:     WeekLabel(isoYear, isoWeek),
	}, nil
}

// NormalizeAll normalizes a batch of raw records. Records without a usable
// start timestamp are skipped and logged; they never abort the batch.
func NormalizeAll(raws []strava.RawActivity, cfg Config) []Activity {
	activities := make([]Activity, 0, len(raws))
	for _, raw := range raws {
		activity, err := Normalize(raw, cfg)
		if err != nil {
			logging.Warn("skipping activity without start timestamp",
				"activity_id", raw.ID, "activity_name", raw.Name)
			continue
		}
		activities = append(activities, activity)
	}
	return activities
}

// estimateCalories resolves an activity's energy expenditure. First
// applicable branch wins:
//  1. calories reported by Strava, used as-is
//  2. kilojoules converted at 0.239 kcal/kJ (cycling power meters)
//  3. Run/TrailRun: body mass x distance (~1 kcal/kg/km)
//  4. otherwise 0
//
// Branches 2 and 3 are estimates; the chosen branch is reported so callers
// can surface provenance if they want to.
func estimateCalories(raw strava.RawActivity, sport string, distanceKm float64, cfg Config) (float64, CalorieSource) {
	if raw.Calories != nil {
		return *raw.Calories, CalorieReported
	}
	if raw.Kilojoules != nil {
		return *raw.Kilojoules * kilojoulesToKcal, CalorieFromKilojoules
	}
	if isRunningSport(sport) {
		bodyMass := cfg.BodyMassKg
		if bodyMass <= 0 {
			bodyMass = DefaultBodyMassKg
		}
		return bodyMass * distanceKm, CalorieEstimated
	}
	return 0.0, CalorieNone
}

// isRunningSport reports whether the calorie heuristic for running applies.
func isRunningSport(sport string) bool {
	return sport == "Run" || sport == "TrailRun"
}

// WeekLabel builds the sortable "2024-W05" grouping key. The zero-padded
// week keeps lexicographic order aligned with chronological order within
// 4-digit years.
func WeekLabel(isoYear, isoWeek int) string {
	return fmt.Sprintf("%d-W%02d", isoYear, isoWeek)
}
