package web_search

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mohammad-safakhou/researcher/tools/web_search/brave"
	"github.com/mohammad-safakhou/researcher/tools/web_search/models"
	"github.com/mohammad-safakhou/researcher/tools/web_search/serpapi"
	"github.com/mohammad-safakhou/researcher/tools/web_search/serper"
)

// WebSearcher returns up to k ranked hits for q.
type WebSearcher interface {
	Search(ctx context.Context, q string, k int) ([]models.Hit, error)
}

type Provider string

const (
	SerpAPIProvider Provider = "serpapi"
	SerperProvider  Provider = "serper"
	BraveProvider   Provider = "brave"
)

const DefaultTimeout = 10 * time.Second

var (
	ErrSearch              = models.ErrSearch
	ErrMissingAPIKey       = models.ErrMissingAPIKey
	ErrUnsupportedProvider = errors.New("unsupported search provider")
)

// Options tune the HTTP side of a searcher. Zero values mean defaults.
type Options struct {
	Endpoint string
	Timeout  time.Duration
}

// NewWebSearcher builds the searcher for provider. A missing key is not an error
// here; the searcher reports ErrMissingAPIKey on use.
func NewWebSearcher(provider Provider, apiKey string, opts Options) (WebSearcher, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := &http.Client{Timeout: timeout}

	switch provider {
	case SerpAPIProvider, "":
		return serpapi.Search{ApiKey: apiKey, Endpoint: opts.Endpoint, Client: client}, nil
	case SerperProvider:
		return serper.Search{ApiKey: apiKey, Endpoint: opts.Endpoint, Client: client}, nil
	case BraveProvider:
		return brave.Search{ApiKey: apiKey, Endpoint: opts.Endpoint, Client: client}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}
