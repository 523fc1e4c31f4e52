package analysis

import "sort"

// WeeklyBucket is the calorie total for one ISO week. Buckets are derived
// values, recomputed on every aggregation call.
type WeeklyBucket struct {
	ISOYear       int
	ISOWeek       int
	WeekLabel     string
	TotalKcal     float64
	ActivityCount int
}

// WeeklyTotals groups activities by ISO week and returns one bucket per
// distinct (year, week), sorted chronologically. Sorting is by the numeric
// year/week pair, not the string label. An empty input yields an empty slice.
func WeeklyTotals(activities []Activity) []WeeklyBucket {
	type weekKey struct {
		year int
		week int
	}

	byWeek := make(map[weekKey]*WeeklyBucket)
	for _, a := range activities {
		key := weekKey{year: a.ISOYear, week: a.ISOWeek}
		bucket, ok := byWeek[key]
		if !ok {
			bucket = &WeeklyBucket{
				ISOYear:   a.ISOYear,
				ISOWeek:   a.ISOWeek,
				WeekLabel: a.WeekLabel,
			}
			byWeek[key] = bucket
		}
		bucket.TotalKcal += a.Calories
		bucket.ActivityCount++
	}

	buckets := make([]WeeklyBucket, 0, len(byWeek))
	for _, bucket := range byWeek {
		buckets = append(buckets, *bucket)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].ISOYear != buckets[j].ISOYear {
			return buckets[i].ISOYear < buckets[j].ISOYear
		}
		return buckets[i].ISOWeek < buckets[j].ISOWeek
	})
	return buckets
}

// SportPivot is a sparse week-by-sport calorie breakdown. Absent entries
// mean 0 kcal; use Kcal for uniform lookups.
type SportPivot map[string]map[string]float64

// WeeklyBySport pivots calories by week label and sport.
func WeeklyBySport(activities []Activity) SportPivot {
	pivot := make(SportPivot)
	for _, a := range activities {
		week, ok := pivot[a.WeekLabel]
		if !ok {
			week = make(map[string]float64)
			pivot[a.WeekLabel] = week
		}
		week[a.Sport] += a.Calories
	}
	return pivot
}

// Kcal returns the calorie total for a (week, sport) pair, 0 when the pair
// has no activity.
func (p SportPivot) Kcal(weekLabel, sport string) float64 {
	return p[weekLabel][sport]
}

// Sports returns the distinct sports appearing in the pivot, sorted.
func (p SportPivot) Sports() []string {
	seen := make(map[string]bool)
	for _, week := range p {
		for sport := range week {
			seen[sport] = true
		}
	}
	sports := make([]string, 0, len(seen))
	for sport := range seen {
		sports = append(sports, sport)
	}
	sort.Strings(sports)
	return sports
}
