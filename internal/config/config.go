package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultVectorURL  = "http://localhost:6333"
	defaultDimension  = 768
	defaultChunkSize  = 1000
	defaultOverlap    = 200
	defaultBatchSize  = 16
	defaultTopK       = 5
	defaultCollection = "policy_documents"
	defaultDocsDir    = "./documents"
	defaultPort       = "8080"
)

// LLMConfig describes one OpenAI-compatible endpoint (embedding or chat).
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Key     string `yaml:"-"`
}

// RAGConfig holds chunking, batching and retrieval knobs.
type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	BatchSize    int `yaml:"batch_size"`
	// MaxRetries is the number of times a failed embedding batch is
	// retried before the run aborts. Zero means no retries.
	MaxRetries int `yaml:"max_retries"`
	TopK       int `yaml:"top_k"`
}

// VectorConfig selects and configures the vector store backend.
type VectorConfig struct {
	Backend    string `yaml:"backend"` // qdrant | chromem | postgres
	URL        string `yaml:"url"`
	Collection string `yaml:"collection"`
	Dimension  int    `yaml:"dimension"`
	// Path is the on-disk location for the chromem backend; empty means
	// an in-memory store.
	Path string `yaml:"path"`
}

// DatabaseConfig configures the postgres backend.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"-"`
	Debug    bool   `yaml:"debug"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type Config struct {
	DocsDir  string         `yaml:"docs_dir"`
	RAG      RAGConfig      `yaml:"rag"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	ChatLLM  LLMConfig      `yaml:"chat_llm"`
	Vector   VectorConfig   `yaml:"vector"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
}

// LoadConfig reads the YAML file at path, applies defaults and overlays
// environment variables. OPENROUTER_KEY is required; loading fails without it
// so a misconfigured process dies at startup instead of mid-ingestion.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyDefaults(&cfg)

	key := os.Getenv("OPENROUTER_KEY")
	if key == "" {
		return nil, errors.New("OPENROUTER_KEY is not set")
	}
	cfg.EmbedLLM.Key = key
	cfg.ChatLLM.Key = key

	if v := os.Getenv("VECTOR_DB_URL"); v != "" {
		cfg.Vector.URL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	cfg.Database.Password = os.Getenv("DATABASE_PASSWORD")

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.DocsDir == "" {
		cfg.DocsDir = defaultDocsDir
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = defaultChunkSize
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = defaultOverlap
	}
	if cfg.RAG.BatchSize == 0 {
		cfg.RAG.BatchSize = defaultBatchSize
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = defaultTopK
	}
	if cfg.Vector.Backend == "" {
		cfg.Vector.Backend = "qdrant"
	}
	if cfg.Vector.URL == "" {
		cfg.Vector.URL = defaultVectorURL
	}
	if cfg.Vector.Collection == "" {
		cfg.Vector.Collection = defaultCollection
	}
	if cfg.Vector.Dimension == 0 {
		cfg.Vector.Dimension = defaultDimension
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = defaultPort
	}
	if cfg.EmbedLLM.BaseURL == "" {
		cfg.EmbedLLM.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.ChatLLM.BaseURL == "" {
		cfg.ChatLLM.BaseURL = cfg.EmbedLLM.BaseURL
	}
}
