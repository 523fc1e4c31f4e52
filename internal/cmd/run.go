package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/renaultste-svg/strava-miguel-dashboard/internal/analysis"
	"github.com/renaultste-svg/strava-miguel-dashboard/internal/auth"
	"github.com/renaultste-svg/strava-miguel-dashboard/internal/logging"
	"github.com/renaultste-svg/strava-miguel-dashboard/internal/store"
	"github.com/renaultste-svg/strava-miguel-dashboard/internal/strava"
)

// RuntimeConfig holds all runtime configuration from CLI flags
type RuntimeConfig struct {
	DBPath   string
	Days     int
	WeightKg float64
	Offline  bool
	BySport  bool
}

// Run fetches (unless offline), normalizes, aggregates, and prints the
// training report.
func Run(cfg *RuntimeConfig) error {
	log := logging.Logger

	if cfg.Days < 1 || cfg.Days > 365 {
		return fmt.Errorf("--days must be between 1 and 365, got %d", cfg.Days)
	}

	bodyMass := resolveBodyMass(cfg.WeightKg)

	log.Info().
		Str("db_path", cfg.DBPath).
		Int("days", cfg.Days).
		Float64("weight_kg", bodyMass).
		Bool("offline", cfg.Offline).
		Msg("starting strava-dashboard")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	since := time.Now().AddDate(0, 0, -cfg.Days)

	if !cfg.Offline {
		accessToken, err := resolveAccessToken(ctx, st)
		if err != nil {
			return fmt.Errorf("authentication: %w", err)
		}
		if err := fetchAndCache(ctx, st, accessToken, since); err != nil {
			return fmt.Errorf("fetching activities: %w", err)
		}
	} else {
		latest, err := st.LatestStartDate(ctx)
		if err != nil {
			return fmt.Errorf("inspecting cache: %w", err)
		}
		if latest.IsZero() {
			log.Warn().Msg("offline mode with an empty cache, the report will have no data")
		} else {
			log.Info().
				Str("latest_cached", latest.Format(time.RFC3339)).
				Msg("offline mode, reporting from local cache")
		}
	}

	raws, err := st.ActivitiesSince(ctx, since)
	if err != nil {
		return fmt.Errorf("loading cached activities: %w", err)
	}

	activities := analysis.NormalizeAll(raws, analysis.Config{BodyMassKg: bodyMass})
	log.Info().
		Int("raw_records", len(raws)).
		Int("normalized", len(activities)).
		Msg("normalization completed")

	if len(activities) == 0 {
		fmt.Printf("No activities found in the last %d days.\n", cfg.Days)
		return nil
	}

	report := analysis.BuildReport(activities)
	fmt.Println(report.Render())
	if cfg.BySport {
		fmt.Println(report.RenderSportBreakdown())
	}
	return nil
}

// resolveBodyMass picks the athlete weight: flag, then ATHLETE_WEIGHT_KG
// env, then the package default.
func resolveBodyMass(flagValue float64) float64 {
	if flagValue > 0 {
		return flagValue
	}
	if env := os.Getenv("ATHLETE_WEIGHT_KG"); env != "" {
		if parsed, err := strconv.ParseFloat(env, 64); err == nil && parsed > 0 {
			return parsed
		}
		logging.Warn("ignoring invalid ATHLETE_WEIGHT_KG", "value", env)
	}
	return analysis.DefaultBodyMassKg
}

// resolveAccessToken returns a usable access token, in order of preference:
// a stored unexpired token, a refresh via the stored or env refresh token,
// or the interactive browser flow. Refreshed tokens are persisted so the
// next run skips the round trip.
func resolveAccessToken(ctx context.Context, st *store.Store) (string, error) {
	log := logging.Logger

	clientID := os.Getenv("CLIENT_ID")
	clientSecret := os.Getenv("CLIENT_SECRET")
	refreshToken := os.Getenv("REFRESH_TOKEN")

	stored, err := st.LoadAuthConfig(ctx)
	if err != nil && !errors.Is(err, store.ErrNotConfigured) {
		return "", err
	}

	// Env credentials take precedence over stored ones.
	if clientID == "" {
		clientID = stored.ClientID
	}
	if clientSecret == "" {
		clientSecret = stored.ClientSecret
	}
	if refreshToken == "" && stored.Tokens != nil {
		refreshToken = stored.Tokens.RefreshToken
	}

	if stored.Tokens != nil && !auth.IsTokenExpired(stored.Tokens.ExpiresAt) {
		log.Debug().Msg("using cached access token")
		return stored.Tokens.AccessToken, nil
	}

	if clientID == "" || clientSecret == "" {
		return "", fmt.Errorf("CLIENT_ID and CLIENT_SECRET are required (set them in the environment or a .env file)")
	}

	var tokens *auth.Tokens
	if refreshToken != "" {
		log.Info().Msg("refreshing access token")
		tokens, err = auth.RefreshAccessToken(ctx, clientID, clientSecret, refreshToken)
		if err != nil {
			return "", err
		}
	} else {
		log.Info().Msg("no refresh token available, starting browser authorization")
		tokens, err = auth.Authenticate(ctx, clientID, clientSecret)
		if err != nil {
			return "", err
		}
	}

	if stored.ClientID == clientID && stored.ClientSecret == clientSecret {
		err = st.UpdateTokens(ctx, tokens)
	} else {
		err = st.SaveAuthConfig(ctx, store.AuthConfig{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Tokens:       tokens,
		})
	}
	if err != nil {
		return "", fmt.Errorf("saving tokens: %w", err)
	}

	log.Info().
		Str("expires_at", time.Unix(tokens.ExpiresAt, 0).Format(time.RFC3339)).
		Msg("authentication successful")
	return tokens.AccessToken, nil
}

// fetchAndCache pulls activities newer than since from the API and upserts
// them into the cache.
func fetchAndCache(ctx context.Context, st *store.Store, accessToken string, since time.Time) error {
	log := logging.Logger

	client := strava.NewClient(accessToken)

	log.Info().Str("since", since.Format(time.RFC3339)).Msg("fetching activities from Strava")
	activities, err := client.FetchActivitiesSince(ctx, since, func(result strava.PageResult) {
		log.Debug().
			Int("page", result.Page).
			Int("activities_on_page", result.Fetched).
			Int("total_fetched", result.TotalFetched).
			Msg("fetch progress")
	})
	if err != nil {
		// A partial fetch still leaves usable pages; cache what we got.
		if len(activities) > 0 {
			log.Warn().Err(err).Int("fetched", len(activities)).Msg("fetch ended early, caching partial results")
		} else {
			return err
		}
	}

	if len(activities) == 0 {
		log.Info().Msg("no new activities")
		return nil
	}

	saved, err := st.UpsertActivities(ctx, activities)
	if err != nil {
		return err
	}

	count, _ := st.CountActivities(ctx)
	log.Info().
		Int("fetched", len(activities)).
		Int("saved", saved).
		Int64("cached_total", count).
		Msg("activity sync completed")
	return nil
}
