// Package sqlstore keeps the beach catalog and signal history in a SQL
// database. Production runs on PostgreSQL (lib/pq); tests and single-node
// deployments use SQLite (modernc.org/sqlite).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/beachhub-recommender/internal/adapter/memory"
	"github.com/couchcryptid/beachhub-recommender/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver
)

// AlertSource tags metadata for alerts read from the database.
const AlertSource = "beachhub-db"

// Store implements BeachCatalog and the three signal sources over SQL.
type Store struct {
	db    *sqlx.DB
	clock clockwork.Clock
}

// Open connects with driver "postgres" or "sqlite".
func Open(driver, dsn string, clock clockwork.Clock) (*Store, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// In-memory SQLite databases exist per connection.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	}
	return New(db, clock), nil
}

// New wraps an existing handle. A nil clock uses the real clock.
func New(db *sqlx.DB, clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{db: db, clock: clock}
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// InitSchema ensures all tables exist.
func (s *Store) InitSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type beachRow struct {
	ID          string     `db:"id"`
	Name        string     `db:"name"`
	Region      string     `db:"region"`
	Latitude    float64    `db:"latitude"`
	Longitude   float64    `db:"longitude"`
	Amenities   stringList `db:"amenities"`
	OpenSeason  string     `db:"open_season"`
	SafetyLevel string     `db:"safety_level"`
}

func (r beachRow) toDomain() domain.Beach {
	return domain.Beach{
		ID:          r.ID,
		Name:        r.Name,
		Region:      r.Region,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		Amenities:   []string(r.Amenities),
		OpenSeason:  r.OpenSeason,
		SafetyLevel: r.SafetyLevel,
	}
}

type observationRow struct {
	BeachID        string  `db:"beach_id"`
	ObservedAtMs   int64   `db:"observed_at_ms"`
	SeaSurfaceTemp float64 `db:"sea_surface_temp"`
	WaveHeight     float64 `db:"wave_height"`
	WindSpeed      float64 `db:"wind_speed"`
	TideLevel      float64 `db:"tide_level"`
	Source         string  `db:"source"`
	Reliability    int     `db:"reliability"`
}

type alertRow struct {
	ID         string        `db:"id"`
	BeachID    string        `db:"beach_id"`
	Kind       string        `db:"alert_type"`
	Severity   string        `db:"severity"`
	Message    string        `db:"message"`
	StartsAtMs int64         `db:"starts_at_ms"`
	EndsAtMs   sql.NullInt64 `db:"ends_at_ms"`
}

type eventRow struct {
	ID          int64         `db:"id"`
	BeachID     string        `db:"beach_id"`
	Region      string        `db:"region"`
	Title       string        `db:"title"`
	Description string        `db:"description"`
	StartsAtMs  int64         `db:"starts_at_ms"`
	EndsAtMs    sql.NullInt64 `db:"ends_at_ms"`
	Latitude    float64       `db:"latitude"`
	Longitude   float64       `db:"longitude"`
	Tags        stringList    `db:"tags"`
	Price       string        `db:"price"`
}

const beachColumns = `id, name, region, latitude, longitude, amenities, open_season, safety_level`

func (s *Store) ListBeaches(ctx context.Context) ([]domain.Beach, error) {
	var rows []beachRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+beachColumns+` FROM beaches ORDER BY id`); err != nil {
		return nil, fmt.Errorf("%w: list beaches: %w", domain.ErrSourceUnavailable, err)
	}
	out := make([]domain.Beach, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *Store) GetBeach(ctx context.Context, id string) (domain.Beach, error) {
	var row beachRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+beachColumns+` FROM beaches WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Beach{}, fmt.Errorf("beach %q: %w", id, domain.ErrBeachNotFound)
	}
	if err != nil {
		return domain.Beach{}, fmt.Errorf("%w: get beach %q: %w", domain.ErrSourceUnavailable, id, err)
	}
	return row.toDomain(), nil
}

// FetchObservation returns the most recent reading for the beach.
func (s *Store) FetchObservation(ctx context.Context, beachID string) (domain.Observation, domain.Metadata, error) {
	var row observationRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT beach_id, observed_at_ms, sea_surface_temp, wave_height, wind_speed, tide_level, source, reliability
		FROM observations WHERE beach_id = ?
		ORDER BY observed_at_ms DESC LIMIT 1`), beachID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Observation{}, domain.Metadata{}, fmt.Errorf("%w: no observation for beach %q", domain.ErrSourceUnavailable, beachID)
	}
	if err != nil {
		return domain.Observation{}, domain.Metadata{}, fmt.Errorf("%w: fetch observation: %w", domain.ErrSourceUnavailable, err)
	}

	obs := domain.Observation{
		BeachID:        row.BeachID,
		ObservedAt:     fromMillis(row.ObservedAtMs),
		SeaSurfaceTemp: row.SeaSurfaceTemp,
		WaveHeight:     row.WaveHeight,
		WindSpeed:      row.WindSpeed,
		TideLevel:      row.TideLevel,
	}
	meta := domain.Metadata{
		Source:      row.Source,
		UpdatedAt:   s.clock.Now(),
		Reliability: domain.Reliability(row.Reliability),
	}
	return obs, meta, nil
}

// FetchAlerts returns alerts active at the store clock's now.
func (s *Store) FetchAlerts(ctx context.Context, beachID string) ([]domain.Alert, domain.Metadata, error) {
	now := s.clock.Now()
	nowMs := now.UnixMilli()

	var rows []alertRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT id, beach_id, alert_type, severity, message, starts_at_ms, ends_at_ms
		FROM alerts
		WHERE beach_id = ? AND starts_at_ms <= ? AND (ends_at_ms IS NULL OR ends_at_ms > ?)
		ORDER BY starts_at_ms DESC, id`), beachID, nowMs, nowMs)
	if err != nil {
		return nil, domain.Metadata{}, fmt.Errorf("%w: fetch alerts: %w", domain.ErrSourceUnavailable, err)
	}

	alerts := make([]domain.Alert, len(rows))
	for i, r := range rows {
		alerts[i] = domain.Alert{
			BeachID:  r.BeachID,
			Kind:     r.Kind,
			Severity: domain.Severity(r.Severity),
			Message:  r.Message,
			StartsAt: fromMillis(r.StartsAtMs),
			EndsAt:   fromNullMillis(r.EndsAtMs),
		}
	}
	return alerts, domain.Metadata{Source: AlertSource, UpdatedAt: now, Reliability: domain.ReliabilityMedium}, nil
}

// FetchEvents matches region case-insensitively; an empty region returns all events.
func (s *Store) FetchEvents(ctx context.Context, region string) ([]domain.Event, error) {
	var rows []eventRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT id, beach_id, region, title, description, starts_at_ms, ends_at_ms, latitude, longitude, tags, price
		FROM events
		WHERE ? = '' OR LOWER(region) = LOWER(?)
		ORDER BY starts_at_ms, id`), region, region)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch events: %w", domain.ErrSourceUnavailable, err)
	}

	events := make([]domain.Event, len(rows))
	for i, r := range rows {
		events[i] = domain.Event{
			ID:          r.ID,
			BeachID:     r.BeachID,
			Region:      r.Region,
			Title:       r.Title,
			Description: r.Description,
			StartsAt:    fromMillis(r.StartsAtMs),
			EndsAt:      fromNullMillis(r.EndsAtMs),
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
			Tags:        []string(r.Tags),
			Price:       r.Price,
		}
	}
	return events, nil
}

// Seed upserts catalog, readings and events in one transaction. Alerts of
// every beach named in seed.Alerts are replaced, so reseeding with fixtures
// built at a later time does not stack windows. A seeded beach with no
// stored reading gets memory.DefaultReading.
func (s *Store) Seed(ctx context.Context, seed memory.Seed) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, b := range seed.Beaches {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO beaches (`+beachColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, region = EXCLUDED.region,
				latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude,
				amenities = EXCLUDED.amenities, open_season = EXCLUDED.open_season,
				safety_level = EXCLUDED.safety_level`),
			b.ID, b.Name, b.Region, b.Latitude, b.Longitude, stringList(b.Amenities), b.OpenSeason, b.SafetyLevel,
		); err != nil {
			return fmt.Errorf("insert beach %s: %w", b.ID, err)
		}
	}

	for _, r := range seed.Readings {
		if err := insertReading(ctx, tx, r); err != nil {
			return err
		}
	}
	if err := s.seedDefaultReadings(ctx, tx, seed.Beaches); err != nil {
		return err
	}

	if err := seedAlerts(ctx, tx, seed.Alerts); err != nil {
		return err
	}

	for _, e := range seed.Events {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO events (id, beach_id, region, title, description, starts_at_ms, ends_at_ms, latitude, longitude, tags, price)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				beach_id = EXCLUDED.beach_id, region = EXCLUDED.region, title = EXCLUDED.title,
				description = EXCLUDED.description, starts_at_ms = EXCLUDED.starts_at_ms,
				ends_at_ms = EXCLUDED.ends_at_ms, latitude = EXCLUDED.latitude,
				longitude = EXCLUDED.longitude, tags = EXCLUDED.tags, price = EXCLUDED.price`),
			e.ID, e.BeachID, e.Region, e.Title, e.Description, e.StartsAt.UnixMilli(), toNullMillis(e.EndsAt),
			e.Latitude, e.Longitude, stringList(e.Tags), e.Price,
		); err != nil {
			return fmt.Errorf("insert event %d: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

func (s *Store) seedDefaultReadings(ctx context.Context, tx *sqlx.Tx, beaches []domain.Beach) error {
	for _, b := range beaches {
		var n int
		if err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM observations WHERE beach_id = ?`), b.ID); err != nil {
			return fmt.Errorf("count observations for %s: %w", b.ID, err)
		}
		if n > 0 {
			continue
		}
		if err := insertReading(ctx, tx, memory.DefaultReading(b.ID, s.clock.Now())); err != nil {
			return err
		}
	}
	return nil
}

// alertID is stable for a (beach, kind, start) triple.
func alertID(a domain.Alert) string {
	name := fmt.Sprintf("%s|%s|%d", a.BeachID, a.Kind, a.StartsAt.UnixMilli())
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("beachhub:alert:"+name)).String()
}

func seedAlerts(ctx context.Context, tx *sqlx.Tx, alerts []domain.Alert) error {
	replaced := make(map[string]bool)
	for _, a := range alerts {
		if !a.Severity.Valid() {
			return fmt.Errorf("alert %q for %s: unknown severity %q", a.Kind, a.BeachID, a.Severity)
		}
		if replaced[a.BeachID] {
			continue
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM alerts WHERE beach_id = ?`), a.BeachID); err != nil {
			return fmt.Errorf("clear alerts for %s: %w", a.BeachID, err)
		}
		replaced[a.BeachID] = true
	}

	for _, a := range alerts {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO alerts (id, beach_id, alert_type, severity, message, starts_at_ms, ends_at_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				severity = EXCLUDED.severity, message = EXCLUDED.message, ends_at_ms = EXCLUDED.ends_at_ms`),
			alertID(a), a.BeachID, a.Kind, string(a.Severity), a.Message, a.StartsAt.UnixMilli(), toNullMillis(a.EndsAt),
		); err != nil {
			return fmt.Errorf("insert alert for %s: %w", a.BeachID, err)
		}
	}
	return nil
}

func insertReading(ctx context.Context, ext sqlx.ExtContext, r memory.Reading) error {
	if !r.Reliability.Valid() {
		return fmt.Errorf("%w: reading for %s", domain.ErrInvalidMetadata, r.BeachID)
	}
	_, err := ext.ExecContext(ctx, ext.Rebind(`
		INSERT INTO observations (beach_id, observed_at_ms, sea_surface_temp, wave_height, wind_speed, tide_level, source, reliability)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (beach_id, observed_at_ms) DO UPDATE SET
			sea_surface_temp = EXCLUDED.sea_surface_temp, wave_height = EXCLUDED.wave_height,
			wind_speed = EXCLUDED.wind_speed, tide_level = EXCLUDED.tide_level,
			source = EXCLUDED.source, reliability = EXCLUDED.reliability`),
		r.BeachID, r.ObservedAt.UnixMilli(), r.SeaSurfaceTemp, r.WaveHeight, r.WindSpeed, r.TideLevel, r.Source, int(r.Reliability),
	)
	if err != nil {
		return fmt.Errorf("insert observation for %s: %w", r.BeachID, err)
	}
	return nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

func toNullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}
