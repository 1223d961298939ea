package brave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mohammad-safakhou/researcher/internal/helpers"
	"github.com/mohammad-safakhou/researcher/tools/web_search/models"
)

const DefaultEndpoint = "https://api.search.brave.com/res/v1/web/search"

type Search struct {
	ApiKey   string
	Endpoint string
	Client   *http.Client
}

func (s Search) Search(ctx context.Context, q string, k int) ([]models.Hit, error) {
	// https://api.search.brave.com/app/documentation/web-search
	if s.ApiKey == "" {
		return nil, models.ErrMissingAPIKey
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	params := url.Values{}
	params.Set("q", q)
	params.Set("count", strconv.Itoa(k))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &models.SearchError{Provider: "brave", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", s.ApiKey)
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &models.SearchError{Provider: "brave", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &models.SearchError{Provider: "brave", Status: resp.StatusCode, Err: errors.New(string(b))}
	}

	var raw struct {
		Web struct {
			Results []struct {
				Title   string `json:"title"`
				URL     string `json:"url"`
				Snippet string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &models.SearchError{Provider: "brave", Err: fmt.Errorf("decode: %w", err)}
	}
	var out []models.Hit
	for i, r := range raw.Web.Results {
		if i >= k {
			break
		}
		// brave wraps matched terms in <strong>
		out = append(out, models.Hit{Title: helpers.PlainText(r.Title), Link: r.URL, Snippet: helpers.PlainText(r.Snippet)})
	}
	return out, nil
}
