package web_fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/tools/web_fetch/models"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "ai-agent-intern/1.0"
	DefaultMaxBytes  = 20 << 20
)

// Failure reasons reported by Extract.
const (
	ReasonFetchError        = "fetch_error"
	ReasonPDFExtractFailed  = "pdf_extract_failed"
	ReasonHTMLExtractFailed = "html_extract_failed"
	ReasonBlockedDomain     = "blocked_domain"
)

// WebFetcher turns a URL into plain text. Exactly one of text and reason is non-empty.
type WebFetcher interface {
	Extract(ctx context.Context, url string) (text string, reason string)
}

// Options tune the fetcher. Zero values mean defaults.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	MaxBytes  int64
	Policy    config.CrawlPolicyConfig
}

type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	policy    config.CrawlPolicyConfig
}

func NewWebFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	return &Fetcher{
		client:    &http.Client{Timeout: opts.Timeout},
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
		policy:    opts.Policy.Normalize(),
	}
}

// Extract fetches url once and extracts its text, dispatching on content type.
func (f *Fetcher) Extract(ctx context.Context, url string) (string, string) {
	if !f.policy.Permits(url) {
		return "", ReasonBlockedDomain
	}
	page, err := f.fetch(ctx, url)
	if err != nil {
		return "", fmt.Sprintf("%s: %v", ReasonFetchError, err)
	}
	if page.IsPDF() {
		text := extractPDF(page.Body)
		if text == "" {
			return "", ReasonPDFExtractFailed
		}
		return text, ""
	}
	text := extractHTML(page.Body, url)
	if text == "" {
		return "", ReasonHTMLExtractFailed
	}
	return text, ""
}

func (f *Fetcher) fetch(ctx context.Context, url string) (models.Page, error) {
	if strings.TrimSpace(url) == "" {
		return models.Page{}, fmt.Errorf("invalid url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.Page{}, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	resp, err := f.client.Do(req)
	if err != nil {
		return models.Page{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Page{}, &models.HTTPError{StatusCode: resp.StatusCode, URL: url}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return models.Page{}, fmt.Errorf("read body: %w", err)
	}
	return models.Page{URL: url, ContentType: resp.Header.Get("Content-Type"), Body: body}, nil
}
