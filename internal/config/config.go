package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/futig/docqa-backend/internal/entity"
	pkgRetry "github.com/futig/docqa-backend/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr           string        `env:"SERVER_ADDR" envDefault:":8000"`
	ServerRequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"120s"`
	ServerWriteTimeout   time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"130s"`

	// Session store configuration
	SessionStore SessionStoreConfig `envPrefix:"SESSION_"`

	// Database configuration (session store backend)
	DatabaseURL         string               `env:"DATABASE_URL"`
	DBMaxConns          int                  `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int                  `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration        `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration        `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration        `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
	DBConnectRetry      pkgRetry.RetryConfig `envPrefix:"DB_CONNECT_RETRY_"`

	// Ingestion and index configuration
	Ingestion IngestionConfig `envPrefix:"INGEST_"`
	Index     IndexConfig     `envPrefix:"INDEX_"`

	// Answering configuration
	QA QAConfig `envPrefix:"QA_"`

	// External service configurations
	EmbeddingConnectorCfg EmbeddingConnectorConfig `envPrefix:"EMBEDDING_"`
	LLMConnectorCfg       LLMConnectorConfig       `envPrefix:"LLM_"`

	// Access credential for the model provider
	HFToken string `env:"HUGGINGFACEHUB_API_TOKEN"`

	// Prompt texts (loaded from YAML file)
	PromptsFile string `env:"PROMPTS_FILE"`
	Prompts     Prompts

	// Rate limiting for inbound requests, 0 disables it
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`
	RateLimitBurst     int `env:"RATE_LIMIT_BURST" envDefault:"10"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Telegram bot configuration (optional)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Environment (set from flag, not from env var)
	Environment string
}

// SessionStoreConfig selects the session memory backend
type SessionStoreConfig struct {
	Driver string        `env:"STORE" envDefault:"postgres"` // postgres or memory
	TTL    time.Duration `env:"TTL" envDefault:"24h"`        // memory driver only
}

type IngestionConfig struct {
	KnowledgeBaseDir string `env:"KNOWLEDGE_BASE_DIR" envDefault:"./knowledge_base"`
	ChunkSize        int    `env:"CHUNK_SIZE" envDefault:"2000"`
	ChunkOverlap     int    `env:"CHUNK_OVERLAP" envDefault:"200"`
}

type IndexConfig struct {
	PersistDir      string `env:"PERSIST_DIR" envDefault:"./chroma"`
	FreshnessPolicy string `env:"FRESHNESS_POLICY" envDefault:"reuse_if_present"`
}

type QAConfig struct {
	TopK             int     `env:"TOP_K" envDefault:"4"`
	MinScore         float32 `env:"MIN_SCORE" envDefault:"0"`
	CondenseQuestion bool    `env:"CONDENSE_QUESTION" envDefault:"true"`
	MemoryTrimPolicy string  `env:"MEMORY_TRIM_POLICY" envDefault:"none"` // none, window, summary
	MemoryWindow     int     `env:"MEMORY_WINDOW" envDefault:"10"`

	MaxQuestionLength  int `env:"MAX_QUESTION_LENGTH" envDefault:"4000"`
	MaxSessionIDLength int `env:"MAX_SESSION_ID_LENGTH" envDefault:"128"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string `env:"BOT_TOKEN"`
	UpdateTimeout      int    `env:"UPDATE_TIMEOUT" envDefault:"60"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	RateLimitBurst     int    `env:"RATE_LIMIT_BURST" envDefault:"5"`
	ShutdownTimeout    int    `env:"SHUTDOWN_TIMEOUT" envDefault:"30"` // seconds
	MaxSources         int    `env:"MAX_SOURCES" envDefault:"4"`
}

type EmbeddingConnectorConfig struct {
	HTTPClientConfig
	Model     string `env:"MODEL" envDefault:"sentence-transformers/all-mpnet-base-v2"`
	Endpoint  string `env:"ENDPOINT" envDefault:"/{model}/pipeline/feature-extraction"`
	BatchSize int    `env:"BATCH_SIZE" envDefault:"32"`
}

type LLMConnectorConfig struct {
	HTTPClientConfig
	Model       string  `env:"MODEL" envDefault:"meta-llama/Meta-Llama-3-8B-Instruct"`
	Endpoint    string  `env:"ENDPOINT" envDefault:"/chat/completions"`
	MaxTokens   int     `env:"MAX_TOKENS" envDefault:"1024"`
	Temperature float64 `env:"TEMPERATURE" envDefault:"0.1"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"120s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"110s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

const (
	SessionStorePostgres = "postgres"
	SessionStoreMemory   = "memory"

	defaultEmbeddingURL = "https://router.huggingface.co/hf-inference/models"
	defaultLLMURL       = "https://router.huggingface.co/v1"
)

var (
	freshnessPolicies = []string{"reuse_if_present", "rebuild_always", "rebuild_if_corpus_hash_changed"}
	trimPolicies      = []string{"none", "window", "summary"}
)

// LoadConfig reads the -env flag and loads configuration for that environment
func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	return LoadConfigFor(*envFlag)
}

// LoadConfigFor loads configuration for the given environment without touching flags
func LoadConfigFor(environment string) (*Config, error) {
	envFile := getEnvFile(environment)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = environment
	applyDefaults(cfg)

	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	prompts, err := LoadPrompts(cfg.PromptsFile)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	cfg.Prompts = *prompts

	return cfg, nil
}

// applyDefaults fills provider URLs and shares the model access token
func applyDefaults(cfg *Config) {
	if cfg.EmbeddingConnectorCfg.Url == "" {
		cfg.EmbeddingConnectorCfg.Url = defaultEmbeddingURL
	}
	if cfg.LLMConnectorCfg.Url == "" {
		cfg.LLMConnectorCfg.Url = defaultLLMURL
	}
	if cfg.EmbeddingConnectorCfg.Token == "" {
		cfg.EmbeddingConnectorCfg.Token = cfg.HFToken
	}
	if cfg.LLMConnectorCfg.Token == "" {
		cfg.LLMConnectorCfg.Token = cfg.HFToken
	}
}

func validateConfig(cfg *Config) error {
	var errors []string

	if !cfg.EnableMocks && cfg.HFToken == "" {
		errors = append(errors, "HUGGINGFACEHUB_API_TOKEN not set")
	}

	// Validate chunking configuration
	if cfg.Ingestion.ChunkSize < 1 {
		errors = append(errors, fmt.Sprintf("INGEST_CHUNK_SIZE must be positive, got %d", cfg.Ingestion.ChunkSize))
	}

	if cfg.Ingestion.ChunkOverlap < 0 || cfg.Ingestion.ChunkOverlap >= cfg.Ingestion.ChunkSize {
		errors = append(errors, fmt.Sprintf("INGEST_CHUNK_OVERLAP must be between 0 and INGEST_CHUNK_SIZE(%d) exclusive, got %d",
			cfg.Ingestion.ChunkSize, cfg.Ingestion.ChunkOverlap))
	}

	if !contains(freshnessPolicies, cfg.Index.FreshnessPolicy) {
		errors = append(errors, fmt.Sprintf("INDEX_FRESHNESS_POLICY must be one of %v, got %q", freshnessPolicies, cfg.Index.FreshnessPolicy))
	}

	// Validate answering configuration
	if cfg.QA.TopK < 1 || cfg.QA.TopK > 50 {
		errors = append(errors, fmt.Sprintf("QA_TOP_K must be between 1 and 50, got %d", cfg.QA.TopK))
	}

	if !contains(trimPolicies, cfg.QA.MemoryTrimPolicy) {
		errors = append(errors, fmt.Sprintf("QA_MEMORY_TRIM_POLICY must be one of %v, got %q", trimPolicies, cfg.QA.MemoryTrimPolicy))
	}

	if cfg.QA.MemoryTrimPolicy != "none" && cfg.QA.MemoryWindow < 1 {
		errors = append(errors, fmt.Sprintf("QA_MEMORY_WINDOW must be positive, got %d", cfg.QA.MemoryWindow))
	}

	if cfg.EmbeddingConnectorCfg.BatchSize < 1 || cfg.EmbeddingConnectorCfg.BatchSize > 512 {
		errors = append(errors, fmt.Sprintf("EMBEDDING_BATCH_SIZE must be between 1 and 512, got %d", cfg.EmbeddingConnectorCfg.BatchSize))
	}

	// Validate session store configuration
	switch cfg.SessionStore.Driver {
	case SessionStorePostgres:
		if cfg.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL must be set when SESSION_STORE=postgres")
		}
		if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
			errors = append(errors, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
		}
		if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
			errors = append(errors, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
		}
	case SessionStoreMemory:
	default:
		errors = append(errors, fmt.Sprintf("SESSION_STORE must be postgres or memory, got %q", cfg.SessionStore.Driver))
	}

	if cfg.RateLimitPerMinute < 0 || cfg.RateLimitBurst < 0 {
		errors = append(errors, "RATE_LIMIT_PER_MINUTE and RATE_LIMIT_BURST must not be negative")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%w:\n  - %s", entity.ErrInvalidConfig, strings.Join(errors, "\n  - "))
	}

	return nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
