package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"docsync-rag/internal/chunker"
	"docsync-rag/internal/models"
)

// LLMConfig points at one model endpoint. Key may carry a leading
// "Bearer " prefix; callers strip it.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai (default), ollama or googleai
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

// SourceConfig selects where documents come from.
type SourceConfig struct {
	Type string `yaml:"type"` // local or drive

	// Local directory of documents (type: local).
	Path string `yaml:"path"`

	// Google Drive settings (type: drive).
	CredentialsFile string `yaml:"credentials_file"`
	FolderID        string `yaml:"folder_id"`
}

// PgvectorConfig connects a Postgres instance with the pgvector extension.
type PgvectorConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

// PineconeConfig connects a Pinecone serverless index over REST.
type PineconeConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
}

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	Type      string          `yaml:"type"` // chromem (default), pgvector or pinecone
	Namespace string          `yaml:"namespace"`
	Path      string          `yaml:"path"` // chromem persistence directory
	Dimension int             `yaml:"dimension"`
	Pgvector  *PgvectorConfig `yaml:"pgvector,omitempty"`
	Pinecone  *PineconeConfig `yaml:"pinecone,omitempty"`
}

// RAGConfig tunes chunking, retrieval and the upsert throttle.
type RAGConfig struct {
	ChunkSize     int `yaml:"chunk_size"`
	ChunkOverlap  int `yaml:"chunk_overlap"`
	TopK          int `yaml:"top_k"`
	UpsertDelayMs int `yaml:"upsert_delay_ms"`
}

// SyncConfig controls the poll loop.
type SyncConfig struct {
	StatePath       string `yaml:"state_path"`
	IntervalMinutes int    `yaml:"interval_minutes"`
}

type Config struct {
	Source   SourceConfig `yaml:"source"`
	Store    StoreConfig  `yaml:"store"`
	EmbedLLM LLMConfig    `yaml:"embed_llm"`
	ChatLLM  LLMConfig    `yaml:"chat_llm"`
	RAG      RAGConfig    `yaml:"rag"`
	Sync     SyncConfig   `yaml:"sync"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// Defaults are populated before parsing so an explicit zero in the
	// file (chunk_overlap: 0, upsert_delay_ms: 0) is kept rather than
	// mistaken for an unset field.
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpsertDelay returns the pause inserted between chunk upserts.
func (c *RAGConfig) UpsertDelay() time.Duration {
	return time.Duration(c.UpsertDelayMs) * time.Millisecond
}

// Interval returns how long the poll loop waits between cycles.
func (c *SyncConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

func defaultConfig() Config {
	return Config{
		Source: SourceConfig{
			Type: "local",
			Path: "./documents",
		},
		Store: StoreConfig{
			Type:      "chromem",
			Namespace: models.DefaultNamespace,
			Path:      "./chromemdb",
			Dimension: 768,
		},
		EmbedLLM: LLMConfig{Provider: "openai"},
		ChatLLM:  LLMConfig{Provider: "openai"},
		RAG: RAGConfig{
			ChunkSize:     chunker.DefaultChunkSize,
			ChunkOverlap:  chunker.DefaultOverlap,
			TopK:          models.DefaultTopK,
			UpsertDelayMs: 100,
		},
		Sync: SyncConfig{
			StatePath:       "./processed_files.json",
			IntervalMinutes: 60,
		},
	}
}

func validate(cfg *Config) error {
	switch cfg.Source.Type {
	case "local":
	case "drive":
		if cfg.Source.CredentialsFile == "" || cfg.Source.FolderID == "" {
			return fmt.Errorf("drive source requires credentials_file and folder_id")
		}
	default:
		return fmt.Errorf("unknown source type: %s", cfg.Source.Type)
	}

	switch cfg.Store.Type {
	case "chromem":
	case "pgvector":
		if cfg.Store.Pgvector == nil || cfg.Store.Pgvector.URL == "" {
			return fmt.Errorf("pgvector store requires pgvector.url")
		}
	case "pinecone":
		if cfg.Store.Pinecone == nil || cfg.Store.Pinecone.Host == "" || cfg.Store.Pinecone.APIKey == "" {
			return fmt.Errorf("pinecone store requires pinecone.host and pinecone.api_key")
		}
	default:
		return fmt.Errorf("unknown store type: %s", cfg.Store.Type)
	}

	if cfg.Store.Dimension <= 0 {
		return fmt.Errorf("store.dimension must be positive, got %d", cfg.Store.Dimension)
	}
	if cfg.EmbedLLM.Model == "" {
		return fmt.Errorf("embed_llm.model is required")
	}
	if cfg.ChatLLM.Model == "" {
		return fmt.Errorf("chat_llm.model is required")
	}
	if cfg.RAG.ChunkOverlap >= cfg.RAG.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)",
			cfg.RAG.ChunkOverlap, cfg.RAG.ChunkSize)
	}
	return nil
}
