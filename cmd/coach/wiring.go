package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/lifecoach/internal/config"
	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/internal/providers/llm"
	"github.com/sandevgo/lifecoach/internal/service/gateway"
	"github.com/sandevgo/lifecoach/internal/service/memory"
	"github.com/sandevgo/lifecoach/internal/service/quota"
	"github.com/sandevgo/lifecoach/internal/storage/kv"
	"github.com/sandevgo/lifecoach/internal/storage/sqlite"
	"github.com/sandevgo/lifecoach/pkg/log"
	"github.com/sandevgo/lifecoach/pkg/srv"
)

// components is what every command needs: configuration, storage and quota.
type components struct {
	app      *config.AppConfig
	accounts *kv.Accounts
	catalog  *quota.Catalog
	ledger   *quota.Ledger
	cleanup  []srv.Service
}

func newComponents(ctx context.Context) (*components, error) {
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		return nil, fmt.Errorf("failed to init env: %w", err)
	}

	appCfg := config.NewAppConfig(ctx)

	store, cleanup, err := initStorage(ctx, appCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	catalog, err := quota.LoadCatalog(appCfg.GetPlansPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load plans: %w", err)
	}

	return &components{
		app:      appCfg,
		accounts: kv.NewAccounts(store),
		catalog:  catalog,
		ledger:   quota.NewLedger(kv.NewLimits(store)),
		cleanup:  cleanup,
	}, nil
}

func (c *components) Close(ctx context.Context) {
	for i := len(c.cleanup) - 1; i >= 0; i-- {
		if err := c.cleanup[i].Shutdown(ctx); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msg("cleanup failed")
		}
	}
}

func initStorage(ctx context.Context, cfg *config.AppConfig) (core.KVStore, []srv.Service, error) {
	switch cfg.Store {
	case "memory":
		log.FromCtx(ctx).Warn().Msg("using in-memory store, data is lost on exit")
		return kv.NewMemoryStore(), nil, nil
	case "sqlite", "":
		db, err := sqlite.NewDB(ctx, cfg.GetDatabasePath())
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewKVStore(db), []srv.Service{srv.NewCleanup(db.Close)}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// newGateway wires the LLM side: provider, dispatcher, memory and the gateway itself.
func newGateway(ctx context.Context, c *components) (*gateway.Gateway, error) {
	providerCfg := config.NewProviderConfig(ctx)

	provider, err := llm.NewProvider(ctx, providerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	dispatcher := llm.NewDispatcher(provider)
	candidates := providerCfg.GetCandidates()

	assembler := memory.NewAssembler(c.accounts, dispatcher, memory.Options{
		Candidates:       candidates,
		AttemptTimeout:   c.app.AttemptTimeout,
		SummaryTimeout:   c.app.SummaryTimeout,
		TranscriptTokens: c.app.TranscriptTokens,
	})

	return gateway.New(
		c.catalog,
		c.ledger,
		c.accounts,
		assembler,
		dispatcher,
		memory.NewSysPrompt(c.app),
		gateway.Options{
			Candidates:     candidates,
			AttemptTimeout: c.app.GetAttemptTimeout(),
			MemorySessions: c.app.GetMemorySessions(),
		},
	), nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
