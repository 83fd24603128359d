package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/docqa-backend/internal/api"
	askapi "github.com/futig/docqa-backend/internal/api/ask"
	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/index"
	"github.com/futig/docqa-backend/internal/integration/embedding"
	"github.com/futig/docqa-backend/internal/integration/llm"
	"github.com/futig/docqa-backend/internal/pkg/ratelimit"
	"github.com/futig/docqa-backend/internal/pkg/validator"
	"github.com/futig/docqa-backend/internal/repository"
	"github.com/futig/docqa-backend/internal/telegram"
	"github.com/futig/docqa-backend/internal/usecase/qa"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// CoreOptions adjust what NewCore sets up
type CoreOptions struct {
	// Rebuild forces a fresh index regardless of the configured freshness policy
	Rebuild bool
	// SkipIndex leaves the index and the answering use case unset
	SkipIndex bool
}

// Core holds the components shared by the HTTP server, the Telegram bot and the CLI
type Core struct {
	Config   *config.Config
	Logger   *zap.Logger
	Sessions repository.SessionTurnRepository
	Index    *index.Index
	QA       *qa.Usecase

	db *pgxpool.Pool
}

// Close releases the session store connections
func (c *Core) Close() {
	if c.db != nil {
		c.db.Close()
	}
	_ = c.Logger.Sync()
}

// LoadCore reads configuration for the environment and builds the core
func LoadCore(ctx context.Context, environment string, opts CoreOptions) (*Core, error) {
	cfg, err := config.LoadConfigFor(environment)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewCore(ctx, cfg, opts)
}

// NewCore wires the session store, model connectors, index and answering use case
func NewCore(ctx context.Context, cfg *config.Config, opts CoreOptions) (*Core, error) {
	logger, err := setupLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	core := &Core{Config: cfg, Logger: logger}

	if err := core.setupSessionStore(ctx); err != nil {
		return nil, err
	}

	if opts.SkipIndex {
		return core, nil
	}

	// Initialize external service connectors (with mock support)
	var embedder index.Embedder
	var llmConnector qa.LLMConnector

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		embedder = embedding.NewMockConnector(logger)
		llmConnector = llm.NewMockConnector(logger)
	} else {
		logger.Info("Using real connectors for external services",
			zap.String("embedding_model", cfg.EmbeddingConnectorCfg.Model),
			zap.String("llm_model", cfg.LLMConnectorCfg.Model),
		)
		embedder = embedding.NewConnector(cfg.EmbeddingConnectorCfg, logger)
		llmConnector = llm.NewConnector(cfg.LLMConnectorCfg, logger)
	}

	idx, err := buildIndex(ctx, cfg, embedder, opts.Rebuild, logger)
	if err != nil {
		core.Close()
		return nil, err
	}
	core.Index = idx

	qaOpts, err := qa.OptionsFromConfig(cfg.QA)
	if err != nil {
		core.Close()
		return nil, err
	}

	uc, err := qa.NewUsecase(
		core.Sessions,
		idx,
		llmConnector,
		validator.NewAskValidator(cfg.QA),
		cfg.Prompts,
		qaOpts,
		logger,
	)
	if err != nil {
		core.Close()
		return nil, fmt.Errorf("create qa usecase: %w", err)
	}
	core.QA = uc
	logger.Info("Use cases initialized")

	return core, nil
}

func (c *Core) setupSessionStore(ctx context.Context) error {
	switch c.Config.SessionStore.Driver {
	case config.SessionStoreMemory:
		c.Logger.Warn("Using in-memory session store, history is lost on restart",
			zap.Duration("ttl", c.Config.SessionStore.TTL),
		)
		c.Sessions = repository.NewSessionTurnMemory(c.Config.SessionStore.TTL)
		return nil
	default:
		db, err := setupDatabase(ctx, c.Config, c.Logger)
		if err != nil {
			return fmt.Errorf("setup database: %w", err)
		}

		c.Logger.Info("Running database migrations")
		if err := repository.RunMigrations(c.Config.DatabaseURL); err != nil {
			db.Close()
			return fmt.Errorf("run migrations: %w", err)
		}
		c.Logger.Info("Database migrations completed successfully")

		c.db = db
		c.Sessions = repository.NewSessionTurnPostgres(db)
		return nil
	}
}

// Build creates the HTTP application
func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	core, err := NewCore(ctx, cfg, CoreOptions{})
	if err != nil {
		return nil, err
	}
	logger := core.Logger

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	askHandler := askapi.NewHandler(core.QA)
	limiter := ratelimit.New(cfg.RateLimitPerMinute, cfg.RateLimitBurst)

	router := api.SetupRouter(askHandler, limiter, cfg.ServerRequestTimeout, logger)
	logger.Info("HTTP router configured")

	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		core:   core,
		logger: logger,
	}, nil
}

// BuildTelegramBot creates and initializes the Telegram bot
func BuildTelegramBot() (telegram.Bot, *Core, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	core, err := NewCore(ctx, cfg, CoreOptions{})
	if err != nil {
		return nil, nil, err
	}

	bot, err := telegram.NewBot(&cfg.TelegramCfg, core.QA, core.Logger)
	if err != nil {
		core.Close()
		return nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	core.Logger.Info("Telegram bot built successfully",
		zap.String("environment", cfg.Environment),
	)

	return bot, core, nil
}
