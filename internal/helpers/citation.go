package helpers

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultSnippetLen = 180

// Citation is one source as shown to a reader of a report.
type Citation struct {
	Index    int
	Title    string
	URL      string
	Snippet  string
	Accessed time.Time
}

type citationConfig struct {
	maxSnippet int
}

type CitationOption func(*citationConfig)

// WithMaxSnippetLength caps snippets at n runes (default 180).
func WithMaxSnippetLength(n int) CitationOption {
	return func(cfg *citationConfig) {
		if n > 0 {
			cfg.maxSnippet = n
		}
	}
}

// FormatCitation renders a single line:
// [1] Title "Snippet" (domain, retrieved YYYY-MM-DD) <URL>
func FormatCitation(c Citation, opts ...CitationOption) string {
	cfg := citationConfig{maxSnippet: defaultSnippetLen}
	for _, opt := range opts {
		opt(&cfg)
	}

	parts := []string{"[" + strconv.Itoa(c.Index) + "]"}
	if title := strings.TrimSpace(c.Title); title != "" {
		parts = append(parts, title)
	}
	if snippet := formatSnippet(c.Snippet, cfg.maxSnippet); snippet != "" {
		parts = append(parts, snippet)
	}
	if domain := citationDomain(c.URL); domain != "" {
		meta := domain
		if !c.Accessed.IsZero() {
			meta += ", retrieved " + c.Accessed.UTC().Format("2006-01-02")
		}
		parts = append(parts, "("+meta+")")
	}
	if link := strings.TrimSpace(c.URL); link != "" {
		parts = append(parts, "<"+link+">")
	}
	return strings.Join(parts, " ")
}

func formatSnippet(snippet string, limit int) string {
	snippet = strings.Join(strings.Fields(snippet), " ")
	if snippet == "" {
		return ""
	}
	if cut := Truncate(snippet, limit); cut != snippet {
		snippet = strings.TrimSpace(cut) + "…"
	}
	return `"` + snippet + `"`
}

func citationDomain(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
