package cmd

import (
	"strings"
	"testing"

	"github.com/renaultste-svg/strava-miguel-dashboard/internal/analysis"
)

func TestResolveBodyMass(t *testing.T) {
	if got := resolveBodyMass(75); got != 75 {
		t.Errorf("expected flag value to win, got %v", got)
	}

	t.Setenv("ATHLETE_WEIGHT_KG", "82.5")
	if got := resolveBodyMass(0); got != 82.5 {
		t.Errorf("expected env value 82.5, got %v", got)
	}
	if got := resolveBodyMass(70); got != 70 {
		t.Errorf("expected flag to win over env, got %v", got)
	}

	t.Setenv("ATHLETE_WEIGHT_KG", "not-a-number")
	if got := resolveBodyMass(0); got != analysis.DefaultBodyMassKg {
		t.Errorf("expected default for invalid env, got %v", got)
	}

	t.Setenv("ATHLETE_WEIGHT_KG", "")
	if got := resolveBodyMass(0); got != analysis.DefaultBodyMassKg {
		t.Errorf("expected default when unset, got %v", got)
	}
}

func TestRunRejectsBadDays(t *testing.T) {
	for _, days := range []int{0, -5, 366} {
		err := Run(&RuntimeConfig{DBPath: "unused.db", Days: days})
		if err == nil {
			t.Errorf("expected error for days=%d", days)
			continue
		}
		if !strings.Contains(err.Error(), "--days") {
			t.Errorf("expected a --days validation error, got %v", err)
		}
	}
}
