package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	SQLitePath  string           `json:"sqlite_path"`
	PostgresDSN string           `json:"postgres_dsn"`
	Port        int              `json:"port"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Tokenizer   TokenizerConfig  `json:"tokenizer"`
	AI          AIConfig         `json:"ai"`
	Search      SearchConfig     `json:"search"`
}

type TokenizerConfig struct {
	BaseURL        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type AIConfig struct {
	EmbedProvider  string      `json:"embed_provider"`
	EmbedModel     string      `json:"embed_model"`
	EmbedData      interface{} `json:"embed_data"`
	EmbedCacheSize int         `json:"embed_cache_size"`
	RerankEnabled  bool        `json:"rerank_enabled"`
	RerankModel    string      `json:"rerank_model"`
	RerankBaseURL  string      `json:"rerank_base_url"`
	RerankAPIKey   string      `json:"rerank_api_key"`
}

// SearchConfig carries every budget and threshold of the engine. Nothing is
// ambient: all tuning flows in from here.
type SearchConfig struct {
	ShardByteBudget     int     `json:"shard_byte_budget"`
	ShardOverlapChars   int     `json:"shard_overlap_chars"`
	ChunkTokenBudget    int     `json:"chunk_token_budget"`
	SentenceLookback    int     `json:"sentence_lookback"`
	CandidateTTLSeconds int     `json:"candidate_ttl_seconds"`
	CandidateCacheSize  int     `json:"candidate_cache_size"`
	LexicalGroupSize    int     `json:"lexical_group_size"`
	VectorShardCount    int     `json:"vector_shard_count"`
	VectorTopK          int     `json:"vector_top_k"`
	SemanticThreshold   float32 `json:"semantic_threshold"`
	RRFConstant         int     `json:"rrf_constant"`
	TitleNearWindow     int     `json:"title_near_window"`
	ContentNearWindow   int     `json:"content_near_window"`
	ContentSnippetSize  int     `json:"content_snippet_size"`
	TitleSnippetSize    int     `json:"title_snippet_size"`
	EmbeddingDim        int     `json:"embedding_dim"`
	MarkdownContent     bool    `json:"markdown_content"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.SQLitePath == "" {
		return nil, fmt.Errorf("sqlite_path is required")
	}
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("postgres_dsn is required")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Tokenizer.BaseURL == "" {
		return nil, fmt.Errorf("tokenizer.base_url is required")
	}
	if cfg.Tokenizer.TimeoutSeconds <= 0 {
		cfg.Tokenizer.TimeoutSeconds = 5
	}
	if cfg.AI.EmbedProvider == "" {
		return nil, fmt.Errorf("ai.embed_provider is required")
	}
	if cfg.AI.EmbedCacheSize <= 0 {
		cfg.AI.EmbedCacheSize = 2048
	}
	cfg.Search = cfg.Search.withDefaults()
	return &cfg, nil
}

func (c SearchConfig) withDefaults() SearchConfig {
	if c.ShardByteBudget <= 0 {
		c.ShardByteBudget = 2 * 1024 * 1024
	}
	if c.ShardOverlapChars <= 0 {
		c.ShardOverlapChars = 500
	}
	if c.ChunkTokenBudget <= 0 {
		c.ChunkTokenBudget = 8096
	}
	if c.SentenceLookback <= 0 {
		c.SentenceLookback = 100
	}
	if c.CandidateTTLSeconds <= 0 {
		c.CandidateTTLSeconds = 300
	}
	if c.CandidateCacheSize <= 0 {
		c.CandidateCacheSize = 4096
	}
	if c.LexicalGroupSize <= 0 {
		c.LexicalGroupSize = 50
	}
	if c.VectorShardCount <= 0 {
		c.VectorShardCount = 5
	}
	if c.VectorTopK <= 0 {
		c.VectorTopK = 30
	}
	if c.SemanticThreshold <= 0 {
		c.SemanticThreshold = 0.4
	}
	if c.RRFConstant <= 0 {
		c.RRFConstant = 60
	}
	if c.TitleNearWindow <= 0 {
		c.TitleNearWindow = 20
	}
	if c.ContentNearWindow <= 0 {
		c.ContentNearWindow = 30
	}
	if c.ContentSnippetSize <= 0 {
		c.ContentSnippetSize = 32
	}
	if c.TitleSnippetSize <= 0 {
		c.TitleSnippetSize = 8
	}
	if c.EmbeddingDim <= 0 {
		c.EmbeddingDim = 1024
	}
	return c
}
