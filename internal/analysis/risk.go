package analysis

// RiskLevel categorizes the week-over-week change in running volume.
type RiskLevel string

const (
	RiskLow       RiskLevel = "LOW"
	RiskModerate  RiskLevel = "MODERATE"
	RiskElevated  RiskLevel = "ELEVATED"
	RiskDecreased RiskLevel = "DECREASED"
	RiskUnknown   RiskLevel = "UNKNOWN"
)

// RiskAssessment is the outcome of comparing two adjacent 7-day running
// distance windows. DeltaPct is nil when no comparison is possible.
type RiskAssessment struct {
	Level    RiskLevel
	DeltaPct *float64
	Comment  string
}

const noComparisonComment = "No comparison possible (no running in the previous 7 days)."

// ClassifyLoadChange compares current running distance against the previous
// 7-day window and assigns a risk level. Thresholds are strict comparisons:
// delta > 30 is ELEVATED, > 20 MODERATE, < -10 DECREASED, anything else LOW.
// A previous distance of 0 yields UNKNOWN with no delta.
func ClassifyLoadChange(currentKm, previousKm float64) RiskAssessment {
	if previousKm == 0 {
		return RiskAssessment{
			Level:   RiskUnknown,
			Comment: noComparisonComment,
		}
	}

	delta := (currentKm - previousKm) / previousKm * 100.0

	assessment := RiskAssessment{DeltaPct: &delta}
	switch {
	case delta > 30:
		assessment.Level = RiskElevated
		assessment.Comment = "Increase above 30%: heightened injury/shin-splint risk."
	case delta > 20:
		assessment.Level = RiskModerate
		assessment.Comment = "Moderate increase, worth monitoring (above 20%)."
	case delta < -10:
		assessment.Level = RiskDecreased
		assessment.Comment = "Noticeable drop in load, likely recovery."
	default:
		assessment.Level = RiskLow
		assessment.Comment = "Small variation, load is stable."
	}
	return assessment
}
