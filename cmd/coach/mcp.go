package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sandevgo/lifecoach/internal/transport/mcp"
	"github.com/sandevgo/lifecoach/pkg/log"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve quota administration tools over MCP stdio",
	Long:  `Exposes plan listing, quota inspection, blocking and retention sweeps as MCP tools on stdin/stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// stdout carries the protocol
		var flushLog func()
		ctx, flushLog = setupLoggerTo(ctx, os.Stderr)
		defer flushLog()

		c, err := newComponents(ctx)
		if err != nil {
			return err
		}
		defer c.Close(ctx)

		log.FromCtx(ctx).Info().Msg("serving mcp on stdio")
		return mcp.NewServer(c.catalog, c.ledger).Serve(ctx, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
