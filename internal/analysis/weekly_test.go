package analysis

import (
	"math"
	"testing"
	"time"
)

func mkActivity(id int64, sport string, start time.Time, kcal float64) Activity {
	year, week := start.ISOWeek()
	return Activity{
		ID:        id,
		Sport:     sport,
		StartDate: start,
		Calories:  kcal,
		ISOYear:   year,
		ISOWeek:   week,
		WeekLabel: WeekLabel(year, week),
	}
}

func TestWeeklyTotalsGrouping(t *testing.T) {
	t.Parallel()

	// Monday and Sunday of ISO week 3 of 2024, plus one activity in week 4.
	activities := []Activity{
		mkActivity(1, "Run", time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC), 500),
		mkActivity(2, "Ride", time.Date(2024, 1, 21, 18, 0, 0, 0, time.UTC), 300),
		mkActivity(3, "Run", time.Date(2024, 1, 22, 8, 0, 0, 0, time.UTC), 450),
	}

	buckets := WeeklyTotals(activities)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 weekly buckets, got %d", len(buckets))
	}

	if buckets[0].WeekLabel != "2024-W03" || buckets[0].TotalKcal != 800 || buckets[0].ActivityCount != 2 {
		t.Errorf("unexpected first bucket: %+v", buckets[0])
	}
	if buckets[1].WeekLabel != "2024-W04" || buckets[1].TotalKcal != 450 || buckets[1].ActivityCount != 1 {
		t.Errorf("unexpected second bucket: %+v", buckets[1])
	}
}

func TestWeeklyTotalsPreserveSum(t *testing.T) {
	t.Parallel()

	activities := []Activity{
		mkActivity(1, "Run", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), 123.4),
		mkActivity(2, "Ride", time.Date(2024, 2, 14, 8, 0, 0, 0, time.UTC), 567.8),
		mkActivity(3, "Swim", time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC), 90.1),
		mkActivity(4, "Run", time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC), 222.2),
	}

	var wantTotal float64
	for _, a := range activities {
		wantTotal += a.Calories
	}

	var gotTotal float64
	for _, b := range WeeklyTotals(activities) {
		gotTotal += b.TotalKcal
	}

	if math.Abs(gotTotal-wantTotal) > 1e-9 {
		t.Errorf("bucket totals sum to %v, want %v", gotTotal, wantTotal)
	}
}

func TestWeeklyTotalsSortAcrossYearBoundary(t *testing.T) {
	t.Parallel()

	// 2022-W52 (contains 2023-01-01) must sort before 2023-W01 even though
	// it was constructed from a later-looking calendar date.
	activities := []Activity{
		mkActivity(1, "Run", time.Date(2023, 1, 2, 8, 0, 0, 0, time.UTC), 100), // 2023-W01
		mkActivity(2, "Run", time.Date(2023, 1, 1, 8, 0, 0, 0, time.UTC), 200), // 2022-W52
	}

	buckets := WeeklyTotals(activities)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].WeekLabel != "2022-W52" {
		t.Errorf("expected 2022-W52 first, got %q", buckets[0].WeekLabel)
	}
	if buckets[1].WeekLabel != "2023-W01" {
		t.Errorf("expected 2023-W01 second, got %q", buckets[1].WeekLabel)
	}
}

func TestWeeklyTotalsEmptyInput(t *testing.T) {
	t.Parallel()

	if buckets := WeeklyTotals(nil); len(buckets) != 0 {
		t.Errorf("expected no buckets for empty input, got %d", len(buckets))
	}
}

func TestWeeklyBySportPivot(t *testing.T) {
	t.Parallel()

	activities := []Activity{
		mkActivity(1, "Run", time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC), 500),
		mkActivity(2, "Run", time.Date(2024, 1, 16, 8, 0, 0, 0, time.UTC), 400),
		mkActivity(3, "Ride", time.Date(2024, 1, 17, 8, 0, 0, 0, time.UTC), 300),
	}

	pivot := WeeklyBySport(activities)

	if got := pivot.Kcal("2024-W03", "Run"); got != 900 {
		t.Errorf("expected 900 kcal for (2024-W03, Run), got %v", got)
	}
	if got := pivot.Kcal("2024-W03", "Ride"); got != 300 {
		t.Errorf("expected 300 kcal for (2024-W03, Ride), got %v", got)
	}
	// Absent combinations read as zero, not as a panic or error.
	if got := pivot.Kcal("2024-W03", "Swim"); got != 0 {
		t.Errorf("expected 0 kcal for absent sport, got %v", got)
	}
	if got := pivot.Kcal("2024-W09", "Run"); got != 0 {
		t.Errorf("expected 0 kcal for absent week, got %v", got)
	}

	sports := pivot.Sports()
	if len(sports) != 2 || sports[0] != "Ride" || sports[1] != "Run" {
		t.Errorf("expected sorted sports [Ride Run], got %v", sports)
	}
}
