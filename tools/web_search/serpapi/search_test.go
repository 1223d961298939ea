package serpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammad-safakhou/researcher/tools/web_search/models"
)

func TestSearch_ParsesOrganicResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "google", q.Get("engine"))
		assert.Equal(t, "test query", q.Get("q"))
		assert.Equal(t, "secret", q.Get("api_key"))
		assert.Equal(t, "2", q.Get("num"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"organic_results":[
			{"title":"One &amp; <b>Only</b>","snippet":"first","link":"https://one.example"},
			{"title":"Two","snippet":"second","link":"https://two.example"},
			{"title":"Three","snippet":"third","link":"https://three.example"}
		]}`))
	}))
	defer srv.Close()

	s := Search{ApiKey: "secret", Endpoint: srv.URL}
	hits, err := s.Search(context.Background(), "test query", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "One & Only", hits[0].Title)
	assert.Equal(t, "https://two.example", hits[1].Link)
}

func TestSearch_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := Search{ApiKey: "k", Endpoint: srv.URL}.Search(context.Background(), "q", 5)
	require.Error(t, err)
	var se *models.SearchError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Status)
	assert.ErrorIs(t, err, models.ErrSearch)
}

func TestSearch_InBandError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Google hasn't returned any results for this query."}`))
	}))
	defer srv.Close()

	_, err := Search{ApiKey: "k", Endpoint: srv.URL}.Search(context.Background(), "q", 5)
	assert.ErrorIs(t, err, models.ErrSearch)
}

func TestSearch_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	_, err := Search{ApiKey: "k", Endpoint: srv.URL}.Search(context.Background(), "q", 5)
	assert.ErrorIs(t, err, models.ErrSearch)
}

func TestSearch_MissingKey(t *testing.T) {
	_, err := Search{}.Search(context.Background(), "q", 5)
	assert.ErrorIs(t, err, models.ErrMissingAPIKey)
}

func TestSearch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := Search{ApiKey: "k", Endpoint: url}.Search(context.Background(), "q", 5)
	assert.ErrorIs(t, err, models.ErrSearch)
}

func TestSearch_TransportErrorHidesAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL + "/search"
	srv.Close()

	_, err := Search{ApiKey: "SECRET-KEY-123", Endpoint: endpoint}.Search(context.Background(), "q", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrSearch)
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
	assert.NotContains(t, err.Error(), "api_key")
	assert.Contains(t, err.Error(), endpoint)
}
