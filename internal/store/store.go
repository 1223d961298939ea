package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/mohammad-safakhou/researcher/models"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultListLimit bounds history listings when the caller passes no limit.
const DefaultListLimit = 100

type Store struct {
	DB *sql.DB
	// driver is empty for postgres so tests can build a Store around a sqlmock DB.
	driver string
}

// NewWithDSN opens driver at dsn, pings it and applies pending migrations.
func NewWithDSN(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// one connection keeps ":memory:" databases alive and serialises writers
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Store{DB: db, driver: driver}
	if err := s.ensureSchema(ctx, dsn); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.DB.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

var placeholder = regexp.MustCompile(`\$\d+`)

// q adapts a postgres-style query to the store's driver.
func (s *Store) q(query string) string {
	if s.driver == DriverSQLite {
		return placeholder.ReplaceAllString(query, "?")
	}
	return query
}

// SaveReport inserts r and returns its id. A zero CreatedAt is set to now (UTC).
func (s *Store) SaveReport(ctx context.Context, r models.Report) (int64, error) {
	if !r.Status.Valid() {
		return 0, fmt.Errorf("invalid report status %q", r.Status)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	summary := string(r.Summary)
	if summary == "" {
		summary = "{}"
	}
	sources := string(r.Sources)
	if sources == "" {
		sources = "[]"
	}
	var notes sql.NullString
	if r.Notes != "" {
		notes = sql.NullString{String: r.Notes, Valid: true}
	}

	var id int64
	err := s.DB.QueryRowContext(ctx, s.q(`
INSERT INTO reports (query, title, summary_json, sources_json, full_text, status, notes, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id`),
		r.Query, r.Title, summary, sources, r.FullText, string(r.Status), notes, r.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert report: %w", err)
	}
	return id, nil
}

// GetReport returns models.ErrReportNotFound for unknown ids.
func (s *Store) GetReport(ctx context.Context, id int64) (models.Report, error) {
	var (
		r       models.Report
		summary string
		sources string
		status  string
		notes   sql.NullString
	)
	err := s.DB.QueryRowContext(ctx, s.q(`
SELECT id, query, title, summary_json, sources_json, full_text, status, notes, created_at
FROM reports WHERE id = $1`), id).
		Scan(&r.ID, &r.Query, &r.Title, &summary, &sources, &r.FullText, &status, &notes, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Report{}, models.ErrReportNotFound
	}
	if err != nil {
		return models.Report{}, fmt.Errorf("get report %d: %w", id, err)
	}
	r.Summary = json.RawMessage(summary)
	r.Sources = json.RawMessage(sources)
	r.Status = models.Status(status)
	r.Notes = notes.String
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}

// ListReports returns at most limit reports, newest first.
func (s *Store) ListReports(ctx context.Context, limit int) ([]models.ReportSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.DB.QueryContext(ctx, s.q(`
SELECT id, query, title, status, created_at
FROM reports
ORDER BY created_at DESC, id DESC
LIMIT $1`), limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// ListReportsByID returns the reports among ids that exist, in the order of ids.
func (s *Store) ListReportsByID(ctx context.Context, ids []int64) ([]models.ReportSummary, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	rows, err := s.DB.QueryContext(ctx, s.q(`
SELECT id, query, title, status, created_at
FROM reports
WHERE id IN (`+strings.Join(marks, ",")+`)`), args...)
	if err != nil {
		return nil, fmt.Errorf("list reports by id: %w", err)
	}
	defer rows.Close()
	found, err := scanSummaries(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.ReportSummary, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}
	out := make([]models.ReportSummary, 0, len(found))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
			delete(byID, id)
		}
	}
	return out, nil
}

func scanSummaries(rows *sql.Rows) ([]models.ReportSummary, error) {
	var out []models.ReportSummary
	for rows.Next() {
		var (
			r      models.ReportSummary
			status string
		)
		if err := rows.Scan(&r.ID, &r.Query, &r.Title, &status, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Status = models.Status(status)
		r.CreatedAt = r.CreatedAt.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
