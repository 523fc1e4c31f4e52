// Package store caches fetched Strava data in a local SQLite database: the
// OAuth client config/tokens and the raw activity records. Caching lives
// entirely on this side of the boundary; the analysis pipeline never knows
// whether its input was freshly fetched or read back from here.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/renaultste-svg/strava-miguel-dashboard/internal/auth"
	"github.com/renaultste-svg/strava-miguel-dashboard/internal/logging"
	"github.com/renaultste-svg/strava-miguel-dashboard/internal/strava"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path, configures SQLite,
// and applies pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	log := logging.Logger

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL for concurrent reads, a busy timeout instead of immediate failures.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("loading embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	for _, r := range results {
		log.Debug().Int64("version", r.Source.Version).Str("path", r.Source.Path).Msg("migration applied")
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AuthConfig is the single stored credential row.
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	Tokens       *auth.Tokens
}

// ErrNotConfigured is returned when no credentials have been stored yet.
var ErrNotConfigured = fmt.Errorf("no stored credentials")

// SaveAuthConfig upserts the client credentials and tokens.
func (s *Store) SaveAuthConfig(ctx context.Context, cfg AuthConfig) error {
	var accessToken, refreshToken sql.NullString
	var expiresAt sql.NullInt64
	if cfg.Tokens != nil {
		accessToken = sql.NullString{String: cfg.Tokens.AccessToken, Valid: true}
		refreshToken = sql.NullString{String: cfg.Tokens.RefreshToken, Valid: true}
		expiresAt = sql.NullInt64{Int64: cfg.Tokens.ExpiresAt, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_config (id, client_id, client_secret, access_token, refresh_token, expires_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_id = excluded.client_id,
			client_secret = excluded.client_secret,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at`,
		cfg.ClientID, cfg.ClientSecret, accessToken, refreshToken, expiresAt)
	if err != nil {
		return fmt.Errorf("saving auth config: %w", err)
	}
	return nil
}

// LoadAuthConfig reads the stored credentials. Returns ErrNotConfigured when
// no row exists.
func (s *Store) LoadAuthConfig(ctx context.Context) (AuthConfig, error) {
	var cfg AuthConfig
	var accessToken, refreshToken sql.NullString
	var expiresAt sql.NullInt64

	row := s.db.QueryRowContext(ctx, `
		SELECT client_id, client_secret, access_token, refresh_token, expires_at
		FROM auth_config WHERE id = 1`)
	err := row.Scan(&cfg.ClientID, &cfg.ClientSecret, &accessToken, &refreshToken, &expiresAt)
	if err == sql.ErrNoRows {
		return AuthConfig{}, ErrNotConfigured
	}
	if err != nil {
		return AuthConfig{}, fmt.Errorf("loading auth config: %w", err)
	}

	if accessToken.Valid {
		cfg.Tokens = &auth.Tokens{
			AccessToken:  accessToken.String,
			RefreshToken: refreshToken.String,
			ExpiresAt:    expiresAt.Int64,
		}
	}
	return cfg, nil
}

// UpdateTokens replaces the stored token set, keeping the client credentials.
func (s *Store) UpdateTokens(ctx context.Context, tokens *auth.Tokens) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE auth_config SET access_token = ?, refresh_token = ?, expires_at = ? WHERE id = 1`,
		tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresAt)
	if err != nil {
		return fmt.Errorf("updating tokens: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating tokens: %w", err)
	}
	if affected == 0 {
		return ErrNotConfigured
	}
	return nil
}

// UpsertActivities inserts or replaces raw activity records by id. Refetched
// pages overwrite cached rows, so repeated syncs stay idempotent.
func (s *Store) UpsertActivities(ctx context.Context, activities []strava.RawActivity) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO raw_activities
			(id, name, type, sport_type, distance, moving_time, start_date, start_date_local, calories, kilojoules, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			sport_type = excluded.sport_type,
			distance = excluded.distance,
			moving_time = excluded.moving_time,
			start_date = excluded.start_date,
			start_date_local = excluded.start_date_local,
			calories = excluded.calories,
			kilojoules = excluded.kilojoules,
			fetched_at = excluded.fetched_at`)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	saved := 0
	now := time.Now().UTC()
	for _, a := range activities {
		_, err := stmt.ExecContext(ctx,
			a.ID, a.Name,
			nullString(a.Type), nullString(a.SportType),
			nullFloat64(a.Distance), nullFloat64(a.MovingTime),
			nullTime(a.StartDate), nullTime(a.StartDateLocal),
			nullFloat64(a.Calories), nullFloat64(a.Kilojoules),
			now)
		if err != nil {
			return saved, fmt.Errorf("saving activity %d (%s): %w", a.ID, a.Name, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return saved, fmt.Errorf("committing upsert: %w", err)
	}
	return saved, nil
}

// ActivitiesSince returns cached raw activities with a start date at or
// after the given time, oldest first. Rows with no usable timestamp are
// included so normalization can apply its own skip policy.
func (s *Store) ActivitiesSince(ctx context.Context, since time.Time) ([]strava.RawActivity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type, sport_type, distance, moving_time, start_date, start_date_local, calories, kilojoules
		FROM raw_activities
		WHERE start_date >= ? OR start_date_local >= ? OR (start_date IS NULL AND start_date_local IS NULL)
		ORDER BY COALESCE(start_date_local, start_date)`,
		since, since)
	if err != nil {
		return nil, fmt.Errorf("querying activities: %w", err)
	}
	defer rows.Close()

	var activities []strava.RawActivity
	for rows.Next() {
		var a strava.RawActivity
		var actType, sportType sql.NullString
		var distance, movingTime, calories, kilojoules sql.NullFloat64
		var startDate, startDateLocal sql.NullTime

		err := rows.Scan(&a.ID, &a.Name, &actType, &sportType,
			&distance, &movingTime, &startDate, &startDateLocal,
			&calories, &kilojoules)
		if err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}

		a.Type = stringPtr(actType)
		a.SportType = stringPtr(sportType)
		a.Distance = float64Ptr(distance)
		a.MovingTime = float64Ptr(movingTime)
		a.StartDate = timePtr(startDate)
		a.StartDateLocal = timePtr(startDateLocal)
		a.Calories = float64Ptr(calories)
		a.Kilojoules = float64Ptr(kilojoules)

		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activities: %w", err)
	}
	return activities, nil
}

// LatestStartDate returns the most recent cached start date, or the zero
// time when the cache is empty.
func (s *Store) LatestStartDate(ctx context.Context) (time.Time, error) {
	var latest sql.NullTime
	row := s.db.QueryRowContext(ctx, `
		SELECT MAX(COALESCE(start_date_local, start_date)) FROM raw_activities`)
	if err := row.Scan(&latest); err != nil {
		return time.Time{}, fmt.Errorf("querying latest start date: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, nil
	}
	return latest.Time, nil
}

// CountActivities returns the number of cached activities.
func (s *Store) CountActivities(ctx context.Context) (int64, error) {
	var count int64
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM raw_activities`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting activities: %w", err)
	}
	return count, nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullFloat64(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil || v.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func float64Ptr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}
