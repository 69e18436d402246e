package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"argus/internal/event"

	_ "modernc.org/sqlite"
)

// DefaultDBPath is the store location relative to the working directory.
const DefaultDBPath = ".argus/argus.db"

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and applies the schema.
// Creates the parent directory (e.g. .argus) if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return openDSN(path)
}

// OpenMemory opens an in-memory SQLite DB for testing.
func OpenMemory() (*SqlStore, error) {
	return openDSN(":memory:")
}

func openDSN(dsn string) (*SqlStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) ensureSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func (s *SqlStore) Close() error { return s.db.Close() }

func (s *SqlStore) UpsertEvents(ctx context.Context, events []event.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events(id, date, year, month, day, country, state, type, subtype,
		                   disorder_type, fatalities, civilian_targeting, notes,
		                   lat, lon, actor1, inter1, actor2, inter2, severity, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  date=excluded.date, year=excluded.year, month=excluded.month, day=excluded.day,
		  country=excluded.country, state=excluded.state, type=excluded.type,
		  subtype=excluded.subtype, disorder_type=excluded.disorder_type,
		  fatalities=excluded.fatalities, civilian_targeting=excluded.civilian_targeting,
		  notes=excluded.notes, lat=excluded.lat, lon=excluded.lon,
		  actor1=excluded.actor1, inter1=excluded.inter1,
		  actor2=excluded.actor2, inter2=excluded.inter2,
		  severity=excluded.severity, updated_at=excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := nowUTC()
	for i := range events {
		e := &events[i]
		civilian := 0
		if e.CivilianTargeting {
			civilian = 1
		}
		_, err := stmt.ExecContext(ctx,
			e.ID, e.Date.Format("2006-01-02"), e.Year, e.Month, e.Day,
			e.Country, e.State, e.Type, e.SubType, e.DisorderType,
			e.Fatalities, civilian, e.Notes,
			e.Latitude, e.Longitude,
			e.Actor1, e.Inter1, e.Actor2, e.Inter2,
			e.Severity, now)
		if err != nil {
			return fmt.Errorf("upsert event %s: %w", e.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// sliceWhere builds the conjunctive WHERE clause for a slice key.
func sliceWhere(sl event.Slice) (string, []any) {
	where := "country = ? AND year = ? AND month = ?"
	args := []any{sl.Country, sl.Year, sl.Month}
	if sl.Type != "" {
		where += " AND type = ?"
		args = append(args, sl.Type)
	}
	if sl.State != "" {
		where += " AND state = ?"
		args = append(args, sl.State)
	}
	return where, args
}

func (s *SqlStore) queryRows(ctx context.Context, sl event.Slice, order string, limit int) ([]EventRow, error) {
	where, args := sliceWhere(sl)
	q := fmt.Sprintf(`SELECT id, date, state, subtype, type, fatalities, severity, notes
		FROM events WHERE %s ORDER BY %s`, where, order)
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var r EventRow
		if err := rows.Scan(&r.ID, &r.Date, &r.State, &r.SubType, &r.Type,
			&r.Fatalities, &r.Severity, &r.Note); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SqlStore) QueryEvents(ctx context.Context, sl event.Slice, limit int) ([]EventRow, error) {
	return s.queryRows(ctx, sl, "fatalities DESC, date ASC", limit)
}

func (s *SqlStore) TopBySeverity(ctx context.Context, sl event.Slice, n int) ([]EventRow, error) {
	return s.queryRows(ctx, sl, "severity DESC, date ASC", n)
}

func (s *SqlStore) severityBy(ctx context.Context, sl event.Slice, column string) ([]SeverityBucket, error) {
	where, args := sliceWhere(sl)
	q := fmt.Sprintf(`SELECT %s, ROUND(SUM(severity), 2) FROM events
		WHERE %s GROUP BY %s ORDER BY SUM(severity) DESC`, column, where, column)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("severity by %s: %w", column, err)
	}
	defer rows.Close()

	var out []SeverityBucket
	for rows.Next() {
		var b SeverityBucket
		if err := rows.Scan(&b.Key, &b.TotalSeverity); err != nil {
			return nil, fmt.Errorf("scan severity bucket: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SqlStore) SeverityByState(ctx context.Context, sl event.Slice) ([]SeverityBucket, error) {
	return s.severityBy(ctx, sl, "state")
}

func (s *SqlStore) SeverityByType(ctx context.Context, sl event.Slice) ([]SeverityBucket, error) {
	return s.severityBy(ctx, sl, "type")
}

func (s *SqlStore) ValidIDs(ctx context.Context, sl event.Slice) (map[string]bool, error) {
	where, args := sliceWhere(sl)
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM events WHERE "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("valid ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func (s *SqlStore) SubTypeBreakdown(ctx context.Context, sl event.Slice) ([]SubTypeAgg, error) {
	where, args := sliceWhere(sl)
	q := `SELECT subtype, COUNT(*), COALESCE(SUM(fatalities), 0) FROM events
		WHERE ` + where + ` GROUP BY subtype`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("subtype breakdown: %w", err)
	}
	defer rows.Close()

	var out []SubTypeAgg
	for rows.Next() {
		var a SubTypeAgg
		if err := rows.Scan(&a.SubType, &a.Count, &a.Fatalities); err != nil {
			return nil, fmt.Errorf("scan subtype agg: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SqlStore) Headline(ctx context.Context, sl event.Slice) (HeadlineMetrics, error) {
	where, args := sliceWhere(sl)
	q := `SELECT COUNT(*), COALESCE(SUM(fatalities), 0), COALESCE(SUM(severity), 0)
		FROM events WHERE ` + where
	var m HeadlineMetrics
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&m.Events, &m.Fatalities, &m.Severity); err != nil {
		return HeadlineMetrics{}, fmt.Errorf("headline metrics: %w", err)
	}
	return m, nil
}

func (s *SqlStore) RegionalSeverity(ctx context.Context, sl event.Slice) ([]RegionalSeverity, error) {
	where, args := sliceWhere(sl)
	q := `SELECT state, AVG(severity) FROM events WHERE ` + where + `
		GROUP BY state ORDER BY AVG(severity) DESC`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("regional severity: %w", err)
	}
	defer rows.Close()

	var out []RegionalSeverity
	for rows.Next() {
		var r RegionalSeverity
		if err := rows.Scan(&r.State, &r.Severity); err != nil {
			return nil, fmt.Errorf("scan regional severity: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SqlStore) SaveBundle(ctx context.Context, b *Bundle) error {
	briefs, err := json.Marshal(b.Briefs)
	if err != nil {
		return fmt.Errorf("marshal bundle briefs: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO bundles(run_id, country, year, month, briefs, created_at)
		 VALUES(?, ?, ?, ?, ?, ?)`,
		b.RunID, b.Country, b.Year, b.Month, string(briefs), nowUTC())
	if err != nil {
		return fmt.Errorf("insert bundle: %w", err)
	}
	return nil
}

func (s *SqlStore) LatestBundle(ctx context.Context, country string, year, month int) (*Bundle, error) {
	var b Bundle
	var briefs string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, country, year, month, briefs FROM bundles
		 WHERE country = ? AND year = ? AND month = ?
		 ORDER BY run_id DESC LIMIT 1`,
		country, year, month,
	).Scan(&b.RunID, &b.Country, &b.Year, &b.Month, &briefs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest bundle: %w", err)
	}
	if err := json.Unmarshal([]byte(briefs), &b.Briefs); err != nil {
		return nil, fmt.Errorf("unmarshal bundle briefs: %w", err)
	}
	return &b, nil
}
