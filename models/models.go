package models

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrReportNotFound is returned when a report id does not exist
var ErrReportNotFound = errors.New("report not found")

// Status classifies the outcome of one research run.
type Status string

const (
	StatusOK      Status = "ok"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusPartial, StatusFailed:
		return true
	}
	return false
}

// Source is one successfully extracted web document.
type Source struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
}

// Report is the persisted result of a research run. It is written once and never updated.
type Report struct {
	ID        int64           `json:"id"`
	Query     string          `json:"query"`
	Title     string          `json:"title"`
	Summary   json.RawMessage `json:"summary"`
	Sources   json.RawMessage `json:"sources"`
	FullText  string          `json:"full_text"`
	Status    Status          `json:"status"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ReportSummary is the row shape used by history listings.
type ReportSummary struct {
	ID        int64     `json:"id"`
	Query     string    `json:"query"`
	Title     string    `json:"title"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// SourceList decodes the stored sources column.
func (r Report) SourceList() ([]Source, error) {
	if len(r.Sources) == 0 {
		return nil, nil
	}
	var out []Source
	if err := json.Unmarshal(r.Sources, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SummaryMap decodes the stored summary column into a generic object.
// A summary that is not a JSON object yields a nil map.
func (r Report) SummaryMap() map[string]any {
	if len(r.Summary) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(r.Summary, &m); err != nil {
		return nil
	}
	return m
}

// SummaryError returns the user-facing message carried by an error-shaped summary.
// ok is false unless both "error" and "message" keys are present.
func (r Report) SummaryError() (message string, ok bool) {
	m := r.SummaryMap()
	if m == nil {
		return "", false
	}
	if _, has := m["error"]; !has {
		return "", false
	}
	msg, has := m["message"].(string)
	if !has {
		return "", false
	}
	return msg, true
}

// Summarize returns the listing view of the report.
func (r Report) Summarize() ReportSummary {
	return ReportSummary{ID: r.ID, Query: r.Query, Title: r.Title, Status: r.Status, CreatedAt: r.CreatedAt}
}
