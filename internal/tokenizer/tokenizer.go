package tokenizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Tokenizer segments raw text into search tokens. The segmentation service
// manages its own lifecycle; callers must not depend on any state surviving
// between calls.
type Tokenizer interface {
	Segment(ctx context.Context, text string, enableModel bool) ([]string, error)
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type httpTokenizer struct {
	baseURL string
	client  *http.Client
}

func NewHTTPTokenizer(cfg Config) Tokenizer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &httpTokenizer{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type segmentRequest struct {
	Text     string `json:"text"`
	UseModel bool   `json:"use_model"`
}

type segmentResponse struct {
	Tokens []string `json:"tokens"`
}

func (t *httpTokenizer) Segment(ctx context.Context, text string, enableModel bool) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	data, err := json.Marshal(segmentRequest{Text: text, UseModel: enableModel})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/segment", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("segment request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out segmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Tokens, nil
}
