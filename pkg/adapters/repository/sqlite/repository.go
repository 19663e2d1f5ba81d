package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver

	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/domain"
	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/ports"
)

const timeLayout = "2006-01-02 15:04:05.000"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping database")
	}

	if err := migrate(db); err != nil {
		return nil, errors.Wrap(err, "migrate")
	}

	return &SQLiteRepository{db: db}, nil
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS links (
		id TEXT PRIMARY KEY,
		app_scheme TEXT NOT NULL,
		app_package TEXT NOT NULL,
		deep_link TEXT NOT NULL,
		fallback_url TEXT NOT NULL,
		custom_path TEXT NOT NULL DEFAULT '',
		title TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS scan_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		link_id TEXT NOT NULL,
		user_agent TEXT,
		ip_hash TEXT,
		referrer TEXT,
		device_type TEXT NOT NULL,
		outcome TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		FOREIGN KEY(link_id) REFERENCES links(id)
	);
	CREATE INDEX IF NOT EXISTS idx_scan_events_link_ts ON scan_events(link_id, timestamp);
	`
	_, err := db.Exec(query)
	return err
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) Create(ctx context.Context, spec *domain.DeepLinkSpec) error {
	query := `INSERT INTO links (id, app_scheme, app_package, deep_link, fallback_url, custom_path, title, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		spec.ID, spec.AppScheme, spec.AppPackage, spec.DeepLink, spec.FallbackURL,
		spec.CustomPath, spec.Title, spec.CreatedAt.UTC().Format(timeLayout))
	return errors.Wrapf(err, "insert link %s", spec.ID)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*domain.DeepLinkSpec, error) {
	query := `SELECT id, app_scheme, app_package, deep_link, fallback_url, custom_path, title, created_at
			  FROM links WHERE id = ?`

	spec, err := scanLink(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "select link %s", id)
	}
	return spec, nil
}

func (r *SQLiteRepository) Dump(ctx context.Context) ([]domain.DeepLinkSpec, error) {
	query := `SELECT id, app_scheme, app_package, deep_link, fallback_url, custom_path, title, created_at
			  FROM links ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "dump links")
	}
	defer rows.Close()

	var links []domain.DeepLinkSpec
	for rows.Next() {
		spec, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *spec)
	}
	return links, rows.Err()
}

func (r *SQLiteRepository) RecordEvent(ctx context.Context, event *domain.AnalyticsEvent) error {
	query := `INSERT INTO scan_events (link_id, user_agent, ip_hash, referrer, device_type, outcome, timestamp)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		event.LinkID, event.UserAgent, event.IPHash, event.Referrer,
		string(event.Platform), string(event.Outcome), event.Timestamp.UTC().Format(timeLayout))
	if err != nil {
		return errors.Wrapf(err, "insert scan event for %s", event.LinkID)
	}

	if id, err := res.LastInsertId(); err == nil {
		event.ID = id
	}
	return nil
}

func (r *SQLiteRepository) GetAnalytics(ctx context.Context, linkID string, recent int) (*domain.LinkAnalytics, error) {
	stats := &domain.LinkAnalytics{
		LinkID:    linkID,
		ByDevice:  make(map[domain.Platform]int64, len(domain.Platforms)),
		ByOutcome: make(map[domain.Outcome]int64, len(domain.Outcomes)),
		Scans:     []domain.ScanSummary{},
	}
	for _, p := range domain.Platforms {
		stats.ByDevice[p] = 0
	}
	for _, o := range domain.Outcomes {
		stats.ByOutcome[o] = 0
	}

	// Device x outcome counts in one pass
	rows, err := r.db.QueryContext(ctx, `
		SELECT device_type, outcome, COUNT(*)
		FROM scan_events
		WHERE link_id = ?
		GROUP BY device_type, outcome`, linkID)
	if err != nil {
		return nil, errors.Wrap(err, "count scans")
	}
	defer rows.Close()
	for rows.Next() {
		var device, outcome string
		var count int64
		if err := rows.Scan(&device, &outcome, &count); err != nil {
			return nil, err
		}
		stats.ByDevice[domain.Platform(device)] += count
		stats.ByOutcome[domain.Outcome(outcome)] += count
		stats.TotalScans += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	rows2, err := r.db.QueryContext(ctx, `
		SELECT timestamp, device_type, outcome, COALESCE(ip_hash, '')
		FROM scan_events
		WHERE link_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, linkID, recent)
	if err != nil {
		return nil, errors.Wrap(err, "recent scans")
	}
	defer rows2.Close()
	for rows2.Next() {
		var s domain.ScanSummary
		var ts, device, outcome string
		if err := rows2.Scan(&ts, &device, &outcome, &s.IPHash); err != nil {
			return nil, err
		}
		s.Timestamp = parseTime(ts)
		s.DeviceType = domain.Platform(device)
		s.Outcome = domain.Outcome(outcome)
		stats.Scans = append(stats.Scans, s)
	}

	return stats, rows2.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLink(row rowScanner) (*domain.DeepLinkSpec, error) {
	var spec domain.DeepLinkSpec
	var title sql.NullString
	var createdAt string

	if err := row.Scan(
		&spec.ID, &spec.AppScheme, &spec.AppPackage, &spec.DeepLink, &spec.FallbackURL,
		&spec.CustomPath, &title, &createdAt,
	); err != nil {
		return nil, err
	}
	spec.Title = title.String
	spec.CreatedAt = parseTime(createdAt)
	return &spec, nil
}

// parseTime accepts the layouts written by this repository and by SQLite's
// CURRENT_TIMESTAMP, plus RFC 3339 as returned by some drivers.
func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, "2006-01-02 15:04:05", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Ensure interface compliance
var _ ports.LinkRepository = (*SQLiteRepository)(nil)
