package brave

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "1", r.URL.Query().Get("count"))
		_, _ = w.Write([]byte(`{"web":{"results":[
			{"title":"<strong>Brave</strong> Search","url":"https://brave.com","description":"private"},
			{"title":"Other","url":"https://other.example","description":"x"}
		]}}`))
	}))
	defer srv.Close()

	hits, err := Search{ApiKey: "tok", Endpoint: srv.URL}.Search(context.Background(), "brave", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Brave Search", hits[0].Title)
	assert.Equal(t, "https://brave.com", hits[0].Link)
	assert.Equal(t, "private", hits[0].Snippet)
}
