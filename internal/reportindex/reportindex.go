// Package reportindex keeps a bleve full-text index over stored reports.
package reportindex

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/mohammad-safakhou/researcher/models"
)

const DefaultLimit = 20

// document is the indexed view of a report.
type document struct {
	Query    string `json:"query"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	FullText string `json:"full_text"`
	Status   string `json:"status"`
}

type Index struct {
	bleve bleve.Index
	mu    sync.RWMutex
}

// NewMemOnly builds an index that lives only as long as the process.
func NewMemOnly() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	return &Index{bleve: idx}, nil
}

// Open opens the index at path, creating it when missing.
func Open(path string) (*Index, error) {
	if path == "" {
		return NewMemOnly()
	}
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, bleve.NewIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open report index %s: %w", path, err)
	}
	return &Index{bleve: idx}, nil
}

// Add indexes r under its id, replacing any earlier entry.
func (i *Index) Add(r models.Report) error {
	doc := document{
		Query:    r.Query,
		Title:    r.Title,
		Summary:  summaryText(r),
		FullText: r.FullText,
		Status:   string(r.Status),
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.bleve.Index(strconv.FormatInt(r.ID, 10), doc)
}

// Search returns report ids best match first. A query that does not parse as
// query-string syntax is treated as plain words.
func (i *Index) Search(q string, limit int) ([]int64, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	i.mu.RLock()
	defer i.mu.RUnlock()

	res, err := i.bleve.Search(bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(q), limit, 0, false))
	if err != nil {
		res, err = i.bleve.Search(bleve.NewSearchRequestOptions(bleve.NewMatchQuery(q), limit, 0, false))
		if err != nil {
			return nil, err
		}
	}
	ids := make([]int64, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Count returns the number of indexed reports.
func (i *Index) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.bleve.DocCount()
}

func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.bleve.Close()
}

// summaryText flattens the searchable parts of a stored summary.
func summaryText(r models.Report) string {
	m := r.SummaryMap()
	if m == nil {
		return ""
	}
	var parts []string
	for _, key := range []string{"title", "summary"} {
		if s, ok := m[key].(string); ok {
			parts = append(parts, s)
		}
	}
	if points, ok := m["key_points"].([]any); ok {
		for _, p := range points {
			kp, ok := p.(map[string]any)
			if !ok {
				continue
			}
			for _, key := range []string{"point", "detail"} {
				if s, ok := kp[key].(string); ok {
					parts = append(parts, s)
				}
			}
		}
	}
	return strings.Join(parts, "\n")
}
