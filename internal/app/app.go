package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/xveoe/quiz-arena-fiesta-sub000/internal/category"
	"github.com/xveoe/quiz-arena-fiesta-sub000/internal/config"
	"github.com/xveoe/quiz-arena-fiesta-sub000/internal/db/repository"
	"github.com/xveoe/quiz-arena-fiesta-sub000/internal/game"
	"github.com/xveoe/quiz-arena-fiesta-sub000/internal/logging"
	"github.com/xveoe/quiz-arena-fiesta-sub000/internal/question"
	"github.com/xveoe/quiz-arena-fiesta-sub000/internal/question/ai"
	"github.com/xveoe/quiz-arena-fiesta-sub000/internal/server"
	"github.com/xveoe/quiz-arena-fiesta-sub000/pkg/http/ws"
)

// Application aggregates shared infrastructure (cache, optional DB, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool    *pgxpool.Pool
	redis   *redis.Client
	http    *http.Server
	warmer  *question.Warmer
	manager *game.Manager
	hub     *ws.Hub
}

// New bootstraps config, logger, optional Postgres/Redis and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	catalog := category.NewCatalog()
	bank := question.NewBank()

	var pool *pgxpool.Pool
	if cfg.Postgres.Enabled() {
		connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
			cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

		var err error
		pool, err = pgxpool.New(ctx, connString)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := loadCuratedBank(ctx, pool, bank, logger); err != nil {
			logger.Warn().Err(err).Msg("curated bank unavailable, using built-in bank only")
		}
	} else {
		logger.Info().Msg("postgres not configured, using built-in fallback bank")
	}

	var cache question.Cache
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		cache = question.NewRedisCache(redisClient, cfg.Generator.CacheTTL)
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("using redis question cache")
	} else {
		cache = question.NewMemoryCache()
		logger.Info().Msg("using in-process question cache")
	}

	var generator question.TextGenerator
	if cfg.Generator.URL != "" {
		generator = ai.NewClient(ai.Config{
			URL:     cfg.Generator.URL,
			APIKey:  cfg.Generator.APIKey,
			Timeout: cfg.Generator.HTTPTimeout,
		}, logger)
	} else {
		logger.Warn().Msg("generator not configured; all games will use the fallback bank")
	}

	provider := question.NewProvider(generator, cache, bank, catalog, logger)
	warmer := question.NewWarmer(provider, 32, logger, cfg.Generator.HTTPTimeout*2)

	manager := game.NewManager(provider, game.ManagerOptions{
		JudgeTokenSecret: []byte(cfg.Security.JudgeTokenSecret),
		JudgeTokenTTL:    cfg.Security.JudgeTokenTTL,
		Rules:            game.DefaultRulesConfig(),
	}, logger)

	hub := ws.NewHub(logger)
	defaults := game.SessionDefaults{
		QuestionCount:   cfg.Rules.DefaultQuestionCount,
		Difficulty:      cfg.Rules.DefaultDifficulty,
		TimePerQuestion: int(cfg.Rules.DefaultQuestionSeconds.Seconds()),
	}
	handlers := game.NewHTTPHandlers(manager, catalog, warmer, hub, defaults, logger)
	wsHandler := game.NewWSHandler(manager, hub, logger)

	apiServer := server.NewHTTPServer(cfg, handlers, wsHandler.Handle)

	return &Application{
		cfg:     cfg,
		logger:  logger,
		pool:    pool,
		redis:   redisClient,
		http:    apiServer,
		warmer:  warmer,
		manager: manager,
		hub:     hub,
	}, nil
}

// loadCuratedBank merges verified curated rows into the fallback bank.
func loadCuratedBank(ctx context.Context, pool *pgxpool.Pool, bank *question.Bank, logger zerolog.Logger) error {
	repo := repository.NewCuratedRepository(pool)
	rows, err := repo.FetchAll(ctx)
	if err != nil {
		return err
	}

	byCategory := make(map[string][]question.Question)
	for _, row := range rows {
		byCategory[row.Category] = append(byCategory[row.Category], question.Question{
			Prompt:  row.Prompt,
			Options: row.Options,
			Answer:  row.CorrectAnswer,
			Source:  question.SourceCurated,
		})
	}
	for cat, qs := range byCategory {
		bank.Add(cat, qs)
	}

	logger.Info().Int("rows", len(rows)).Msg("curated bank loaded")
	return nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go a.warmer.Run()

	reaperCtx, stopReaper := context.WithCancel(ctx)
	defer stopReaper()
	go a.manager.RunReaper(reaperCtx, a.cfg.Rules.SessionIdleTimeout/4, a.cfg.Rules.SessionIdleTimeout, a.hub.CloseSession)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.warmer.Stop()

	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
