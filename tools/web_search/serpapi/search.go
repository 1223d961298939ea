package serpapi

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

const DefaultEndpoint = "https://serpapi.com/search"

type Search struct {
	ApiKey   string
	Endpoint string
	Client   *http.Client
}

type response struct {
	Error          string `json:"error"`
	OrganicResults []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"organic_results"`
}

func (s Search) Search(ctx context.Context, q string, k int) ([]models.Hit, error) {
	// https://serpapi.com/search-api
	if s.ApiKey == "" {
		return nil, models.ErrMissingAPIKey
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", q)
	params.Set("api_key", s.ApiKey)
	params.Set("num", strconv.Itoa(k))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &models.SearchError{Provider: "serpapi", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &models.SearchError{Provider: "serpapi", Err: redactURL(err, endpoint)}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &models.SearchError{Provider: "serpapi", Status: resp.StatusCode, Err: errors.New(string(b))}
	}

	var raw response
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &models.SearchError{Provider: "serpapi", Err: fmt.Errorf("decode: %w", err)}
	}
	if raw.Error != "" && len(raw.OrganicResults) == 0 {
		// serpapi reports "no results" and quota problems in-band with a 200
		return nil, &models.SearchError{Provider: "serpapi", Err: errors.New(raw.Error)}
	}

	out := make([]models.Hit, 0, len(raw.OrganicResults))
	for i, r := range raw.OrganicResults {
		if i >= k {
			break
		}
		out = append(out, models.Hit{
			Title: helpers.PlainText(r.Title), Snippet: helpers.PlainText(r.Snippet), Link: r.Link,
		})
	}
	return out, nil
}

// redactURL drops the query string, which carries the api key, from transport errors.
func redactURL(err error, endpoint string) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s %s: %w", ue.Op, endpoint, ue.Err)
	}
	return err
}
