// Package config loads the service configuration from an optional YAML
// file with environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Index backends selectable via rag.index_backend.
const (
	IndexMemory   = "memory"
	IndexPGVector = "pgvector"
)

// OpenAI configures the OpenAI-compatible model endpoint used for both
// embeddings and chat completions.
type OpenAI struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	EmbedModel string `yaml:"embed_model"`
	ChatModel  string `yaml:"chat_model"`
}

// RAG configures the per-question pipeline. ChunkSize left at zero
// picks the preset for the chosen backend: 1000 for memory, 2000 for
// pgvector.
type RAG struct {
	IndexBackend    string `yaml:"index_backend"`
	ChunkSize       int    `yaml:"chunk_size"`
	ChunkOverlap    int    `yaml:"chunk_overlap"`
	TopK            int    `yaml:"top_k"`
	EmbedDim        int    `yaml:"embed_dim"`
	CallTimeoutSecs int    `yaml:"call_timeout_secs"`
}

// Config is the root configuration.
type Config struct {
	ServerAddr string `yaml:"server_addr"`
	PgConn     string `yaml:"pg_conn"`
	OpenAI     OpenAI `yaml:"openai"`
	RAG        RAG    `yaml:"rag"`
}

// Load reads the YAML file at path when given (or ./config.yaml when it
// exists), applies env overrides, then defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.ServerAddr = getenv("SERVER_ADDR", cfg.ServerAddr)
	cfg.PgConn = getenv("PG_CONN", cfg.PgConn)
	cfg.OpenAI.BaseURL = getenv("OPENAI_BASE_URL", cfg.OpenAI.BaseURL)
	cfg.OpenAI.APIKey = getenv("OPENAI_API_KEY", cfg.OpenAI.APIKey)
	cfg.OpenAI.EmbedModel = getenv("EMBED_MODEL", cfg.OpenAI.EmbedModel)
	cfg.OpenAI.ChatModel = getenv("LLM_MODEL", cfg.OpenAI.ChatModel)
	cfg.RAG.IndexBackend = getenv("RAG_INDEX_BACKEND", cfg.RAG.IndexBackend)
}

func applyDefaults(cfg *Config) {
	if cfg.ServerAddr == "" {
		cfg.ServerAddr = ":8080"
	}
	if cfg.PgConn == "" {
		cfg.PgConn = "host=localhost port=5432 user=postgres password=postgres dbname=debatehub sslmode=disable"
	}
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "http://localhost:1234/v1"
	}
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = "not-needed"
	}
	if cfg.OpenAI.EmbedModel == "" {
		cfg.OpenAI.EmbedModel = "text-embedding-nomic-embed-text-v1.5"
	}
	if cfg.OpenAI.ChatModel == "" {
		cfg.OpenAI.ChatModel = "google/gemma-3n-e4b"
	}
	if cfg.RAG.IndexBackend == "" {
		cfg.RAG.IndexBackend = IndexMemory
	}
	if cfg.RAG.ChunkSize == 0 {
		if cfg.RAG.IndexBackend == IndexPGVector {
			cfg.RAG.ChunkSize = 2000
		} else {
			cfg.RAG.ChunkSize = 1000
		}
	}
	if cfg.RAG.ChunkOverlap == 0 {
		// 200 would be illegal for small chunk sizes, scale it down
		cfg.RAG.ChunkOverlap = 200
		if cfg.RAG.ChunkOverlap >= cfg.RAG.ChunkSize {
			cfg.RAG.ChunkOverlap = cfg.RAG.ChunkSize / 5
		}
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 5
	}
	if cfg.RAG.EmbedDim == 0 {
		cfg.RAG.EmbedDim = 768
	}
	if cfg.RAG.CallTimeoutSecs == 0 {
		cfg.RAG.CallTimeoutSecs = 60
	}
}

func validate(cfg *Config) error {
	switch cfg.RAG.IndexBackend {
	case IndexMemory, IndexPGVector:
	default:
		return fmt.Errorf("unknown index backend %q", cfg.RAG.IndexBackend)
	}
	if cfg.RAG.ChunkOverlap < 0 || cfg.RAG.ChunkOverlap >= cfg.RAG.ChunkSize {
		return errors.New("chunk_overlap must be non-negative and smaller than chunk_size")
	}
	if cfg.RAG.TopK < 0 {
		return errors.New("top_k must not be negative")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
