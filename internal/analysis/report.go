package analysis

import (
	"fmt"
	"strings"
	"time"
)

// Report bundles everything the text renderer needs. It is plain data; the
// rendering layer attaches no behavior beyond formatting.
type Report struct {
	RefDate           time.Time
	Stats7d           *PeriodStats
	Stats30d          *PeriodStats
	RunDistance7d     float64
	RunDistancePrev7d float64
	Risk              RiskAssessment
	Weekly            []WeeklyBucket
	BySport           SportPivot
}

// BuildReport runs the full pipeline over a normalized collection: trailing
// 7/30-day stats, the adjacent-window running comparison, the risk
// classification, and the weekly aggregation. The reference date is the day
// (midnight) of the most recent activity, not the wall clock.
func BuildReport(activities []Activity) Report {
	ref := LatestStartDate(activities)

	stats7d := ComputePeriodStats(activities, ref, 7)
	stats30d := ComputePeriodStats(activities, ref, 30)

	var runDist7d float64
	if stats7d != nil {
		runDist7d = stats7d.RunDistanceKm
	}
	runDistPrev7d := RunDistanceBetween(activities, ref.AddDate(0, 0, -14), ref.AddDate(0, 0, -7))

	return Report{
		RefDate:           ref,
		Stats7d:           stats7d,
		Stats30d:          stats30d,
		RunDistance7d:     runDist7d,
		RunDistancePrev7d: runDistPrev7d,
		Risk:              ClassifyLoadChange(runDist7d, runDistPrev7d),
		Weekly:            WeeklyTotals(activities),
		BySport:           WeeklyBySport(activities),
	}
}

// Render produces the full plain-text training report.
func (r Report) Render() string {
	var lines []string
	add := func(format string, args ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	add("STRAVA TRAINING REPORT")
	add("======================")
	if !r.RefDate.IsZero() {
		add("Reference date (latest activity): %s", r.RefDate.Format("2006-01-02"))
	}
	add("")
	add("Periods analyzed:")
	add("  - last 7 days (rolling week)")
	add("  - last 30 days")
	add("")

	lines = append(lines, periodSection("LAST 7 DAYS", r.Stats7d)...)
	lines = append(lines, periodSection("LAST 30 DAYS", r.Stats30d)...)

	title := "Run volume: last 7 days vs previous 7"
	add("%s", title)
	add("%s", strings.Repeat("-", len(title)))
	add("Current 7-day distance   : %.2f km", r.RunDistance7d)
	add("Previous 7-day distance  : %.2f km", r.RunDistancePrev7d)
	if r.Risk.DeltaPct != nil {
		add("Change                   : %+.1f %%", *r.Risk.DeltaPct)
	}
	add("%s", r.Risk.Comment)
	add("")

	add("Coach-ready summary")
	add("-------------------")
	if r.Stats7d != nil {
		add("- Run 7d: %.2f km over %d sessions.", r.Stats7d.RunDistanceKm, r.Stats7d.RunActivities)
		add("- Average run pace (7d): %s.", FormatPace(r.Stats7d.RunPaceMinKm))
		add("- Total calories 7d (all sports): %.0f kcal.", r.Stats7d.TotalKcal)
	} else {
		add("- No activity in the last 7 days.")
	}
	if r.Stats30d != nil {
		add("- Run 30d: %.2f km over %d sessions.", r.Stats30d.RunDistanceKm, r.Stats30d.RunActivities)
		add("- Run calories 30d: %.0f kcal.", r.Stats30d.RunKcal)
	}
	if r.Risk.DeltaPct != nil {
		add("- Run volume change 7d vs previous 7d: %+.1f %%", *r.Risk.DeltaPct)
	} else {
		add("- Run volume change 7d vs previous 7d: N/A")
	}
	add("- Running load risk level: %s", r.Risk.Level)
	add("")

	if len(r.Weekly) > 0 {
		add("Weekly calories")
		add("---------------")
		for _, bucket := range r.Weekly {
			add("%s  %7.0f kcal  (%d activities)", bucket.WeekLabel, bucket.TotalKcal, bucket.ActivityCount)
		}
		add("")
	}

	return strings.Join(lines, "\n")
}

// RenderSportBreakdown renders the per-sport weekly pivot as an aligned
// table, weeks in chronological order.
func (r Report) RenderSportBreakdown() string {
	if len(r.Weekly) == 0 {
		return ""
	}

	sports := r.BySport.Sports()
	var lines []string
	lines = append(lines, "Weekly calories by sport")
	lines = append(lines, "------------------------")
	for _, bucket := range r.Weekly {
		cells := make([]string, 0, len(sports))
		for _, sport := range sports {
			cells = append(cells, fmt.Sprintf("%s=%.0f", sport, r.BySport.Kcal(bucket.WeekLabel, sport)))
		}
		lines = append(lines, fmt.Sprintf("%s  %s", bucket.WeekLabel, strings.Join(cells, "  ")))
	}
	return strings.Join(lines, "\n")
}

// periodSection renders one trailing-window block: overall totals plus the
// running sub-block. A nil stats value renders as "no activity".
func periodSection(title string, stats *PeriodStats) []string {
	var lines []string
	lines = append(lines, title, strings.Repeat("-", len(title)))
	if stats == nil {
		lines = append(lines, "No activity in this period.", "")
		return lines
	}
	lines = append(lines,
		fmt.Sprintf("Total calories       : %.0f kcal", stats.TotalKcal),
		fmt.Sprintf("Activities           : %d", stats.TotalActivities),
		fmt.Sprintf("Total time           : %.1f h", stats.TotalHours),
		"",
		"Running:",
		fmt.Sprintf("  - Sessions         : %d", stats.RunActivities),
		fmt.Sprintf("  - Total distance   : %.2f km", stats.RunDistanceKm),
		fmt.Sprintf("  - Run calories     : %.0f kcal", stats.RunKcal),
		fmt.Sprintf("  - Average pace     : %s", FormatPace(stats.RunPaceMinKm)),
		"",
	)
	return lines
}
