package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRerankerDisabled(t *testing.T) {
	r := NewReranker(RerankConfig{Enabled: false})
	require.False(t, r.IsEnabled())
	_, err := r.Rerank(context.Background(), "q", []string{"doc"})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestRerankerParsesAndSortsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/rerank", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model     string   `json:"model"`
			Query     string   `json:"query"`
			Documents []string `json:"documents"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "test-rerank", req.Model)
		require.Len(t, req.Documents, 2)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"index": 0, "relevance_score": 0.3},
				{"index": 1, "relevance_score": 0.8},
			},
		})
	}))
	defer srv.Close()

	r := NewReranker(RerankConfig{
		Enabled: true,
		Model:   "test-rerank",
		APIKey:  "test-key",
		BaseURL: srv.URL,
	})
	results, err := r.Rerank(context.Background(), "query", []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, []RerankResult{
		{Index: 1, Score: 0.8},
		{Index: 0, Score: 0.3},
	}, results)
}

func TestRerankerHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := NewReranker(RerankConfig{Enabled: true, BaseURL: srv.URL})
	_, err := r.Rerank(context.Background(), "q", []string{"doc"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "model overloaded")
}

func TestRerankerEmptyDocuments(t *testing.T) {
	r := NewReranker(RerankConfig{Enabled: true, BaseURL: "http://localhost:1"})
	results, err := r.Rerank(context.Background(), "q", nil)
	require.NoError(t, err)
	require.Nil(t, results)
}
