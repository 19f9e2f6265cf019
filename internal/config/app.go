package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/lifecoach/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"COACH_RUNTIME_PATH" envDefault:".lifecoach"`

	// Storage backend: sqlite or memory
	Store     string `env:"COACH_STORE" envDefault:"sqlite"`
	PlansFile string `env:"COACH_PLANS_FILE"`

	// Transport Flags
	HTTPAddr       string   `env:"COACH_HTTP_ADDR" envDefault:":3000"`
	EnableTelegram bool     `env:"ENABLE_TELEGRAM" envDefault:"false"`
	TrustProxy     bool     `env:"COACH_TRUST_PROXY" envDefault:"false"`
	JWTSecret      string   `env:"COACH_JWT_SECRET"`
	CORSOrigins    []string `env:"COACH_CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	// Context Management
	MemorySessions   int           `env:"COACH_MEMORY_SESSIONS" envDefault:"3"`
	TranscriptTokens int           `env:"COACH_TRANSCRIPT_TOKENS" envDefault:"2000"`
	AttemptTimeout   time.Duration `env:"COACH_ATTEMPT_TIMEOUT" envDefault:"30s"`
	SummaryTimeout   time.Duration `env:"COACH_SUMMARY_TIMEOUT" envDefault:"20s"`

	// Retention
	RetentionTTL  time.Duration `env:"COACH_RETENTION_TTL" envDefault:"24h"`
	SweepInterval time.Duration `env:"COACH_SWEEP_INTERVAL" envDefault:"1h"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	c.RuntimePath = resolveRuntimePath(c.RuntimePath)
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetPersonaPath() string {
	return filepath.Join(c.RuntimePath, "PERSONA.md")
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "lifecoach.db")
}

func (c AppConfig) GetPlansPath() string {
	if c.PlansFile == "" || filepath.IsAbs(c.PlansFile) {
		return c.PlansFile
	}
	return filepath.Join(c.RuntimePath, c.PlansFile)
}

func (c AppConfig) GetEnvPath() string {
	return filepath.Join(c.RuntimePath, ".env")
}

func (c AppConfig) GetAttemptTimeout() time.Duration {
	return c.AttemptTimeout
}

func (c AppConfig) GetMemorySessions() int {
	return c.MemorySessions
}
