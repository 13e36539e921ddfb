package alerts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"crowsnest/internal/threat"
)

// Store persists threat alerts.
type Store interface {
	Insert(ctx context.Context, alert threat.Alert) (threat.Alert, error)
	List(ctx context.Context, limit int) ([]threat.Alert, error)
	ListSince(ctx context.Context, since time.Time) ([]threat.Alert, error)
	Count(ctx context.Context) (int, error)
	ExistsForPost(ctx context.Context, platform threat.Platform, url string) (bool, error)
	Clear(ctx context.Context) (int, error)
}

const defaultListLimit = 50

// SQLStore is the Postgres-backed Store.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// EnsureSchema creates the alerts table if it does not exist. Called once at
// startup; safe to call repeatedly.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("alert store unavailable")
	}

	_, err := s.db.ExecContext(ctx, `
		CREATE SCHEMA IF NOT EXISTS crowsnest;
		CREATE TABLE IF NOT EXISTS crowsnest.threat_alerts (
			id UUID PRIMARY KEY,
			platform TEXT NOT NULL,
			author TEXT NOT NULL,
			content TEXT NOT NULL,
			url TEXT NOT NULL,
			detected_at TIMESTAMPTZ NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			threat_level TEXT NOT NULL,
			reason TEXT NOT NULL,
			ai_analysis TEXT NOT NULL DEFAULT '',
			UNIQUE (platform, url)
		);
		CREATE INDEX IF NOT EXISTS idx_threat_alerts_detected_at
			ON crowsnest.threat_alerts (detected_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("ensure alerts schema: %w", err)
	}
	return nil
}

func (s *SQLStore) Insert(ctx context.Context, alert threat.Alert) (threat.Alert, error) {
	if s == nil || s.db == nil {
		return threat.Alert{}, errors.New("alert store unavailable")
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO crowsnest.threat_alerts (
			id,
			platform,
			author,
			content,
			url,
			detected_at,
			score,
			threat_level,
			reason,
			ai_analysis
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING detected_at
	`,
		alert.ID,
		string(alert.Platform),
		alert.Author,
		alert.Content,
		alert.URL,
		alert.Timestamp,
		alert.Score,
		string(alert.ThreatLevel),
		alert.Reason,
		alert.AIAnalysis,
	).Scan(&alert.Timestamp)
	if err != nil {
		return threat.Alert{}, fmt.Errorf("insert alert: %w", err)
	}
	return alert, nil
}

func (s *SQLStore) List(ctx context.Context, limit int) ([]threat.Alert, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("alert store unavailable")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, platform, author, content, url, detected_at, score, threat_level, reason, ai_analysis
		FROM crowsnest.threat_alerts
		ORDER BY detected_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

func (s *SQLStore) ListSince(ctx context.Context, since time.Time) ([]threat.Alert, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("alert store unavailable")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, platform, author, content, url, detected_at, score, threat_level, reason, ai_analysis
		FROM crowsnest.threat_alerts
		WHERE detected_at >= $1
		ORDER BY detected_at DESC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("list recent alerts: %w", err)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

func (s *SQLStore) Count(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("alert store unavailable")
	}

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM crowsnest.threat_alerts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count alerts: %w", err)
	}
	return count, nil
}

func (s *SQLStore) ExistsForPost(ctx context.Context, platform threat.Platform, url string) (bool, error) {
	if s == nil || s.db == nil {
		return false, errors.New("alert store unavailable")
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM crowsnest.threat_alerts WHERE platform = $1 AND url = $2
		)
	`, string(platform), url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check alert exists: %w", err)
	}
	return exists, nil
}

func (s *SQLStore) Clear(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("alert store unavailable")
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM crowsnest.threat_alerts`)
	if err != nil {
		return 0, fmt.Errorf("clear alerts: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cleared alerts: %w", err)
	}
	return int(affected), nil
}

func collectAlerts(rows *sql.Rows) ([]threat.Alert, error) {
	var out []threat.Alert
	for rows.Next() {
		var a threat.Alert
		var platform, level string
		if err := rows.Scan(
			&a.ID,
			&platform,
			&a.Author,
			&a.Content,
			&a.URL,
			&a.Timestamp,
			&a.Score,
			&level,
			&a.Reason,
			&a.AIAnalysis,
		); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Platform = threat.Platform(platform)
		a.ThreatLevel = threat.Level(level)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return out, nil
}
