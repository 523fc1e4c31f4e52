package analysis

import (
	"math"
	"testing"
	"time"
)

func mkRun(id int64, start time.Time, distanceKm, movingMin float64) Activity {
	a := mkActivity(id, "Run", start, 0)
	a.DistanceKm = distanceKm
	a.MovingTimeMin = movingMin
	return a
}

func TestComputePeriodStats(t *testing.T) {
	t.Parallel()

	ref := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	run := mkRun(1, ref.AddDate(0, 0, -2), 10, 50) // 5.0 min/km
	run.Calories = 800
	ride := mkActivity(2, "Ride", ref.AddDate(0, 0, -3), 600)
	ride.DistanceKm = 40
	ride.MovingTimeMin = 90
	old := mkRun(3, ref.AddDate(0, 0, -10), 5, 30) // outside the 7-day window
	old.Calories = 400

	stats := ComputePeriodStats([]Activity{run, ride, old}, ref, 7)
	if stats == nil {
		t.Fatal("expected stats, got nil")
	}

	if stats.TotalKcal != 1400 {
		t.Errorf("expected total 1400 kcal, got %v", stats.TotalKcal)
	}
	if stats.TotalActivities != 2 {
		t.Errorf("expected 2 activities, got %d", stats.TotalActivities)
	}
	wantHours := (50 + 90) / 60.0
	if math.Abs(stats.TotalHours-wantHours) > 1e-9 {
		t.Errorf("expected %v hours, got %v", wantHours, stats.TotalHours)
	}

	if stats.RunKcal != 800 || stats.RunActivities != 1 || stats.RunDistanceKm != 10 {
		t.Errorf("unexpected run subset: %+v", stats)
	}
	if stats.RunPaceMinKm == nil {
		t.Fatal("expected a run pace")
	}
	if math.Abs(*stats.RunPaceMinKm-5.0) > 1e-9 {
		t.Errorf("expected pace 5.0 min/km, got %v", *stats.RunPaceMinKm)
	}
}

func TestComputePeriodStatsRunFilterIsExact(t *testing.T) {
	t.Parallel()

	ref := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	// TrailRun counts toward totals but not the run subset.
	trail := mkActivity(1, "TrailRun", ref.AddDate(0, 0, -1), 700)
	trail.DistanceKm = 8

	stats := ComputePeriodStats([]Activity{trail}, ref, 7)
	if stats == nil {
		t.Fatal("expected stats, got nil")
	}
	if stats.TotalActivities != 1 || stats.TotalKcal != 700 {
		t.Errorf("unexpected totals: %+v", stats)
	}
	if stats.RunActivities != 0 || stats.RunDistanceKm != 0 {
		t.Errorf("expected empty run subset for TrailRun, got %+v", stats)
	}
	if stats.RunPaceMinKm != nil {
		t.Errorf("expected nil pace, got %v", *stats.RunPaceMinKm)
	}
}

func TestComputePeriodStatsEmptyWindow(t *testing.T) {
	t.Parallel()

	ref := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	activities := []Activity{
		mkRun(1, ref.AddDate(0, 0, -30), 10, 60),
	}

	stats := ComputePeriodStats(activities, ref, 7)
	if stats != nil {
		t.Errorf("expected nil for a window with no activity, got %+v", stats)
	}

	// Recomputing with identical inputs gives an identical answer.
	if again := ComputePeriodStats(activities, ref, 7); again != nil {
		t.Errorf("expected nil on repeat call, got %+v", again)
	}
}

func TestComputePeriodStatsWindowBoundary(t *testing.T) {
	t.Parallel()

	ref := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	onBoundary := mkRun(1, ref.AddDate(0, 0, -7), 5, 25) // exactly ref - 7d, included
	justBefore := mkRun(2, ref.AddDate(0, 0, -7).Add(-time.Second), 3, 15)

	stats := ComputePeriodStats([]Activity{onBoundary, justBefore}, ref, 7)
	if stats == nil {
		t.Fatal("expected stats, got nil")
	}
	if stats.TotalActivities != 1 || stats.RunDistanceKm != 5 {
		t.Errorf("expected only the boundary activity included, got %+v", stats)
	}
}

func TestRunDistanceBetween(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)

	activities := []Activity{
		mkRun(1, start, 5, 25),                      // on start, included
		mkRun(2, start.AddDate(0, 0, 3), 10, 50),    // inside
		mkRun(3, end, 7, 35),                        // on end, excluded
		mkRun(4, start.Add(-time.Second), 4, 20),    // before start, excluded
		mkActivity(5, "Ride", start.AddDate(0, 0, 2), 0), // not a run
	}
	activities[4].DistanceKm = 50

	if got := RunDistanceBetween(activities, start, end); got != 15 {
		t.Errorf("expected 15 km in [start, end), got %v", got)
	}
}

func TestLatestStartDate(t *testing.T) {
	t.Parallel()

	if got := LatestStartDate(nil); !got.IsZero() {
		t.Errorf("expected zero time for empty input, got %v", got)
	}

	tz := time.FixedZone("CET", 3600)
	activities := []Activity{
		mkRun(1, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC), 5, 25),
		mkRun(2, time.Date(2024, 3, 12, 18, 45, 30, 0, tz), 8, 40),
	}

	got := LatestStartDate(activities)
	want := time.Date(2024, 3, 12, 0, 0, 0, 0, tz)
	if !got.Equal(want) {
		t.Errorf("expected midnight of latest activity %v, got %v", want, got)
	}
}

func TestFormatPace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pace *float64
		want string
	}{
		{"nil pace", nil, "N/A"},
		{"zero pace", f64Ptr(0), "N/A"},
		{"negative pace", f64Ptr(-3), "N/A"},
		{"NaN pace", f64Ptr(math.NaN()), "N/A"},
		{"whole minutes", f64Ptr(5.0), "5:00/km"},
		{"half minute", f64Ptr(5.5), "5:30/km"},
		{"rounds seconds", f64Ptr(4.755), "4:45/km"},
		{"sub-ten seconds zero padded", f64Ptr(6.1), "6:06/km"},
		{"carry into next minute", f64Ptr(5.999), "6:00/km"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatPace(tt.pace); got != tt.want {
				t.Errorf("FormatPace(%v) = %q, want %q", tt.pace, got, tt.want)
			}
		})
	}
}
