package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// RerankConfig configures the cross-encoder rerank client. When Enabled is
// false the reranker reports itself unavailable and fusion stays on RRF.
type RerankConfig struct {
	Enabled bool
	Model   string
	APIKey  string
	BaseURL string
}

type httpReranker struct {
	client  *http.Client
	apiKey  string
	baseURL string
	model   string
	enabled bool
}

func NewReranker(cfg RerankConfig) IReranker {
	return &httpReranker{
		enabled: cfg.Enabled,
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (s *httpReranker) IsEnabled() bool {
	return s.enabled
}

func (s *httpReranker) Rerank(ctx context.Context, query string, documents []string) ([]RerankResult, error) {
	if !s.enabled {
		return nil, ErrUnavailable
	}
	if len(documents) == 0 {
		return nil, nil
	}
	reqBody := map[string]interface{}{
		"model":     s.model,
		"query":     query,
		"documents": documents,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	baseURL := strings.TrimRight(s.baseURL, "/")
	if strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/rerank"
	} else {
		baseURL += "/v1/rerank"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("rerank request failed: HTTP %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("rerank request failed: %s", strings.TrimSpace(string(body)))
	}

	var out struct {
		Results []struct {
			Index int     `json:"index"`
			Score float64 `json:"relevance_score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	results := make([]RerankResult, 0, len(out.Results))
	for _, r := range out.Results {
		results = append(results, RerankResult{Index: r.Index, Score: r.Score})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}
