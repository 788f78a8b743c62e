package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"quiz-arena"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres  Postgres
	Redis     Redis
	Security  Security
	Generator Generator
	Rules     Rules
	CORS      CORS
}

// Postgres captures connection info for the optional curated question bank.
// When PG_HOST is empty the service runs with the built-in bank only.
type Postgres struct {
	Host     string `env:"PG_HOST" envDefault:""`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER" envDefault:""`
	Password string `env:"PG_PASSWORD" envDefault:""`
	Database string `env:"PG_DATABASE" envDefault:""`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Enabled reports whether a curated bank connection is configured.
func (p Postgres) Enabled() bool { return p.Host != "" }

// Redis holds cache configuration. When REDIS_ADDR is empty the question
// cache falls back to the in-process implementation.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Enabled reports whether a shared Redis cache is configured.
func (r Redis) Enabled() bool { return r.Addr != "" }

// Security stores secrets for signing judge tokens.
type Security struct {
	JudgeTokenSecret string        `env:"JUDGE_TOKEN_SECRET,notEmpty"`
	JudgeTokenTTL    time.Duration `env:"JUDGE_TOKEN_TTL" envDefault:"6h"`
}

// Generator configures the remote text-generation endpoint.
type Generator struct {
	URL         string        `env:"GENERATOR_URL" envDefault:""`
	APIKey      string        `env:"GENERATOR_API_KEY" envDefault:""`
	HTTPTimeout time.Duration `env:"GENERATOR_HTTP_TIMEOUT" envDefault:"10s"`
	CacheTTL    time.Duration `env:"QUESTION_CACHE_TTL" envDefault:"30m"`
}

// Rules groups gameplay defaults applied to new sessions.
type Rules struct {
	DefaultQuestionCount   int           `env:"DEFAULT_QUESTION_COUNT" envDefault:"10"`
	DefaultQuestionSeconds time.Duration `env:"DEFAULT_PER_QUESTION_SECONDS" envDefault:"30s"`
	DefaultDifficulty      int           `env:"DEFAULT_DIFFICULTY" envDefault:"50"`
	SessionIdleTimeout     time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"2h"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load() (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
