package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sandevgo/lifecoach/internal/config"
	"github.com/sandevgo/lifecoach/internal/service/account"
	"github.com/sandevgo/lifecoach/internal/service/command"
	"github.com/sandevgo/lifecoach/internal/service/gateway"
	"github.com/sandevgo/lifecoach/internal/service/quota"
	"github.com/sandevgo/lifecoach/internal/storage/kv"
	"github.com/sandevgo/lifecoach/internal/transport/telegram"
	"github.com/sandevgo/lifecoach/internal/transport/web"
	"github.com/sandevgo/lifecoach/pkg/log"
	"github.com/sandevgo/lifecoach/pkg/srv"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and background services",
	Long:  `Starts the HTTP API, the quota retention sweeper and, when enabled, the Telegram bot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// logger setup
		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Str("version", rootCmd.Version).Msg("starting lifecoach")

		services, err := NewServices(ctx)
		if err != nil {
			return err
		}

		srv.StartServices(ctx, services)

		// Wait for shutdown signal
		srv.ShutdownServices(ctx, services)
		logger.Info().Msg("lifecoach has been shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// NewServices returns services in start order; shutdown runs in reverse.
func NewServices(ctx context.Context) (services []srv.Service, err error) {
	c, err := newComponents(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			c.Close(ctx)
		}
	}()
	services = append(services, c.cleanup...)

	gw, err := newGateway(ctx, c)
	if err != nil {
		return nil, err
	}

	services = append(services, quota.NewSweeper(c.ledger, c.app.SweepInterval, c.app.RetentionTTL))

	services = append(services, web.NewServer(web.Options{
		Addr:        c.app.HTTPAddr,
		JWTSecret:   c.app.JWTSecret,
		TrustProxy:  c.app.TrustProxy,
		CORSOrigins: c.app.CORSOrigins,
	}, gw, account.NewService(c.accounts, nil)))

	if c.app.EnableTelegram {
		bot, err := newTelegramBot(ctx, c, gw)
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	}

	return services, nil
}

func newTelegramBot(ctx context.Context, c *components, gw *gateway.Gateway) (*telegram.Bot, error) {
	tgCfg := config.NewTelegramConfig(ctx)
	history := kv.NewChatLog(tgCfg.HistoryLen, kv.WithIdleTTL(tgCfg.HistoryTTL))
	router := command.NewChatRouter("telegram", c.catalog, c.ledger, history)
	return telegram.NewBot(ctx, tgCfg, gw, router, history)
}
