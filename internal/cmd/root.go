// Package cmd wires the command line interface around the fetch + analysis
// pipeline.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/renaultste-svg/strava-miguel-dashboard/internal/logging"
)

var (
	verbosity int
	dbPath    string
	days      int
	weightKg  float64
	offline   bool
	bySport   bool
)

var rootCmd = &cobra.Command{
	Use:   "strava-dashboard",
	Short: "Generate a coach-ready training report from your Strava activities",
	Long: `strava-dashboard fetches your recent Strava activities, estimates
missing calorie values, aggregates them by ISO week and trailing periods,
classifies your running load change, and prints a plain-text report.

Credentials are read from the environment (or a .env file):
  CLIENT_ID, CLIENT_SECRET, REFRESH_TOKEN

Without a REFRESH_TOKEN the first run opens a browser for OAuth
authorization; tokens are then cached in the local database.

Set ATHLETE_WEIGHT_KG (or --weight) to tune the running calorie estimate.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Set up logging before any command runs; .env is optional.
		logging.Setup(logging.Level(verbosity))
		if err := godotenv.Load(); err == nil {
			logging.Debug("loaded .env file")
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(&RuntimeConfig{
			DBPath:   dbPath,
			Days:     days,
			WeightKg: weightKg,
			Offline:  offline,
			BySport:  bySport,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase verbosity (-v for debug)")

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "strava_dashboard.db", "path to SQLite cache database")
	rootCmd.PersistentFlags().IntVar(&days, "days", 90, "how many trailing days of activities to analyze (1-365)")
	rootCmd.PersistentFlags().Float64Var(&weightKg, "weight", 0, "athlete body mass in kg for run calorie estimates (default: ATHLETE_WEIGHT_KG env or 89.0)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "skip the Strava fetch and report from the local cache only")
	rootCmd.PersistentFlags().BoolVar(&bySport, "by-sport", false, "also print the weekly per-sport calorie breakdown")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
