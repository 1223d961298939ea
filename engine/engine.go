package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/helpers"
	"github.com/mohammad-safakhou/researcher/internal/runtime"
	"github.com/mohammad-safakhou/researcher/internal/summarizer"
	"github.com/mohammad-safakhou/researcher/models"
	"github.com/mohammad-safakhou/researcher/tools/web_fetch"
	"github.com/mohammad-safakhou/researcher/tools/web_search"
	search_models "github.com/mohammad-safakhou/researcher/tools/web_search/models"
)

var (
	ErrEmptyQuery   = errors.New("empty query")
	ErrSearchFailed = errors.New("search failed")
)

// MaxTextLen bounds the stored query and title.
const MaxTextLen = 500

type ReportStore interface {
	SaveReport(ctx context.Context, r models.Report) (int64, error)
	GetReport(ctx context.Context, id int64) (models.Report, error)
	ListReports(ctx context.Context, limit int) ([]models.ReportSummary, error)
	ListReportsByID(ctx context.Context, ids []int64) ([]models.ReportSummary, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, query string, sources []models.Source) summarizer.Result
}

type ReportIndex interface {
	Add(r models.Report) error
	Search(q string, limit int) ([]int64, error)
}

// Engine runs the research pipeline: search, extract, summarize, persist.
// Index and Telemetry are optional.
type Engine struct {
	Store      ReportStore
	Searcher   web_search.WebSearcher
	Fetcher    web_fetch.WebFetcher
	Summarizer Summarizer
	Index      ReportIndex
	Telemetry  *runtime.Telemetry
	Limits     config.LimitsConfig
	Logger     *log.Logger
}

var defaultLogger = log.New(os.Stdout, "[ENGINE] ", log.LstdFlags)

func (e *Engine) logf(format string, args ...any) {
	if e.Logger == nil {
		defaultLogger.Printf(format, args...)
		return
	}
	e.Logger.Printf(format, args...)
}

// Research runs the whole pipeline for query and returns the stored report id.
// ErrEmptyQuery and ErrSearchFailed mean nothing was stored.
func (e *Engine) Research(ctx context.Context, query string) (int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, ErrEmptyQuery
	}
	limits := e.Limits.Normalize()

	start := time.Now()
	hits, err := e.Searcher.Search(ctx, query, limits.MaxResults)
	e.Telemetry.ObserveStage("search", start)
	if err != nil {
		e.logf("search error for %q: %v", query, err)
		e.Telemetry.SearchFailed()
		return 0, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	if len(hits) == 0 {
		e.logf("search returned no results for %q", query)
		e.Telemetry.SearchFailed()
		return 0, fmt.Errorf("%w: no results", ErrSearchFailed)
	}

	start = time.Now()
	sources, notes := e.extract(ctx, hits, limits)
	e.Telemetry.ObserveStage("extract", start)

	status := models.StatusOK
	title := query
	summary := json.RawMessage("{}")
	if len(sources) == 0 {
		status = models.StatusFailed
	} else {
		start = time.Now()
		res := e.summarize(ctx, query, sources)
		e.Telemetry.ObserveStage("summarize", start)
		summary = res.JSON()
		if res.OK() {
			if t := strings.TrimSpace(res.Title()); t != "" {
				title = t
			}
		} else {
			status = models.StatusPartial
		}
	}

	sourcesJSON, err := json.MarshalIndent(sources, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode sources: %w", err)
	}
	excerpts := make([]string, len(sources))
	for i, s := range sources {
		excerpts[i] = s.Excerpt
	}

	report := models.Report{
		Query:     helpers.Truncate(query, MaxTextLen),
		Title:     helpers.Truncate(title, MaxTextLen),
		Summary:   summary,
		Sources:   sourcesJSON,
		FullText:  strings.Join(excerpts, "\n\n"),
		Status:    status,
		Notes:     strings.Join(notes, "\n"),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	start = time.Now()
	id, err := e.Store.SaveReport(ctx, report)
	e.Telemetry.ObserveStage("persist", start)
	if err != nil {
		return 0, err
	}
	e.Telemetry.ReportSaved(string(status))
	report.ID = id

	if e.Index != nil {
		if err := e.Index.Add(report); err != nil {
			e.logf("index report %d: %v", id, err)
		}
	}
	return id, nil
}

// uniqueHits drops hits that point at a document already seen earlier in the list.
func uniqueHits(hits []search_models.Hit) []search_models.Hit {
	seen := make(map[string]struct{}, len(hits))
	out := hits[:0:0]
	for _, h := range hits {
		key, err := helpers.CanonicalURL(h.Link)
		if err != nil {
			key = h.Link
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h)
	}
	return out
}

// extract fetches the first MaxSources hits in order, skipping repeats of a
// document within them. Failures become notes.
func (e *Engine) extract(ctx context.Context, hits []search_models.Hit, limits config.LimitsConfig) ([]models.Source, []string) {
	if len(hits) > limits.MaxSources {
		hits = hits[:limits.MaxSources]
	}
	hits = uniqueHits(hits)
	sources := make([]models.Source, 0, len(hits))
	var notes []string
	for _, hit := range hits {
		text, reason := e.Fetcher.Extract(ctx, hit.Link)
		if reason != "" {
			e.logf("extraction failed for %s: %s", hit.Link, reason)
			e.Telemetry.ExtractFailed(reasonLabel(reason))
			notes = append(notes, fmt.Sprintf("%s skipped: %s", hit.Link, reason))
			continue
		}
		sources = append(sources, models.Source{
			URL:     hit.Link,
			Title:   hit.Title,
			Excerpt: helpers.Truncate(text, limits.ExcerptChars),
		})
	}
	return sources, notes
}

// summarize guards the call site as well; a panic becomes an llm_exception failure.
func (e *Engine) summarize(ctx context.Context, query string, sources []models.Source) (res summarizer.Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logf("summarizer crashed: %v", r)
			res = summarizer.NewFailure(summarizer.KindLLMException, fmt.Sprint(r), "")
		}
	}()
	return e.Summarizer.Summarize(ctx, query, sources)
}

// reasonLabel keeps the metric label set small: "fetch_error: <detail>" -> "fetch_error".
func reasonLabel(reason string) string {
	if i := strings.Index(reason, ":"); i > 0 {
		return reason[:i]
	}
	return reason
}

// Report returns models.ErrReportNotFound for unknown ids. Reads never mutate.
func (e *Engine) Report(ctx context.Context, id int64) (models.Report, error) {
	return e.Store.GetReport(ctx, id)
}

// Recent lists reports newest first.
func (e *Engine) Recent(ctx context.Context, limit int) ([]models.ReportSummary, error) {
	return e.Store.ListReports(ctx, limit)
}

// Find searches stored reports. Without an index it filters recent reports by
// case-insensitive substring on query and title.
func (e *Engine) Find(ctx context.Context, q string, limit int) ([]models.ReportSummary, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return e.Recent(ctx, limit)
	}
	if e.Index != nil {
		ids, err := e.Index.Search(q, limit)
		if err != nil {
			return nil, fmt.Errorf("search reports: %w", err)
		}
		return e.Store.ListReportsByID(ctx, ids)
	}

	recent, err := e.Recent(ctx, 0)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(q)
	var out []models.ReportSummary
	for _, r := range recent {
		if strings.Contains(strings.ToLower(r.Query), needle) || strings.Contains(strings.ToLower(r.Title), needle) {
			out = append(out, r)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// Reindex adds up to limit recent reports to the index and returns how many were added.
func (e *Engine) Reindex(ctx context.Context, limit int) (int, error) {
	if e.Index == nil {
		return 0, nil
	}
	recent, err := e.Recent(ctx, limit)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range recent {
		r, err := e.Store.GetReport(ctx, s.ID)
		if err != nil {
			return n, err
		}
		if err := e.Index.Add(r); err != nil {
			return n, fmt.Errorf("index report %d: %w", r.ID, err)
		}
		n++
	}
	return n, nil
}
