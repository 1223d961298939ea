package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mohammad-safakhou/researcher/internal/helpers"
	"github.com/mohammad-safakhou/researcher/tools/web_search/models"
)

const DefaultEndpoint = "https://google.serper.dev/search"

type Search struct {
	ApiKey   string
	Endpoint string
	Client   *http.Client
}

func (s Search) Search(ctx context.Context, q string, k int) ([]models.Hit, error) {
	// https://serper.dev/ docs
	if s.ApiKey == "" {
		return nil, models.ErrMissingAPIKey
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	body, err := json.Marshal(map[string]any{"q": q, "num": k})
	if err != nil {
		return nil, &models.SearchError{Provider: "serper", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &models.SearchError{Provider: "serper", Err: err}
	}
	req.Header.Set("X-API-KEY", s.ApiKey)
	req.Header.Set("Content-Type", "application/json")
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &models.SearchError{Provider: "serper", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &models.SearchError{Provider: "serper", Status: resp.StatusCode, Err: errors.New(string(b))}
	}

	var raw struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &models.SearchError{Provider: "serper", Err: fmt.Errorf("decode: %w", err)}
	}

	var out []models.Hit
	for i, it := range raw.Organic {
		if i >= k {
			break
		}
		out = append(out, models.Hit{
			Title: helpers.PlainText(it.Title), Link: it.Link, Snippet: helpers.PlainText(it.Snippet),
		})
	}
	return out, nil
}
