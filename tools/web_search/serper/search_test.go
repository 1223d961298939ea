package serper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammad-safakhou/researcher/tools/web_search/models"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "key", r.Header.Get("X-API-KEY"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "golang", body["q"])
		_, _ = w.Write([]byte(`{"organic":[{"title":"Go","link":"https://go.dev","snippet":"The Go language"}]}`))
	}))
	defer srv.Close()

	hits, err := Search{ApiKey: "key", Endpoint: srv.URL}.Search(context.Background(), "golang", 3)
	require.NoError(t, err)
	require.Equal(t, []models.Hit{{Title: "Go", Link: "https://go.dev", Snippet: "The Go language"}}, hits)
}

func TestSearch_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := Search{ApiKey: "bad", Endpoint: srv.URL}.Search(context.Background(), "golang", 3)
	assert.ErrorIs(t, err, models.ErrSearch)
}
