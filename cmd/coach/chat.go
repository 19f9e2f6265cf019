package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sandevgo/lifecoach/internal/service/command"
	"github.com/sandevgo/lifecoach/internal/storage/kv"
	"github.com/sandevgo/lifecoach/internal/transport/cli"
	"github.com/spf13/cobra"
)

var chatAccount string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the coach in the terminal",
	Long:  `Runs the full gateway pipeline in-process. With --account the conversation is saved as a session of that account.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Keep the prompt clean, logs go to stderr
		var flushLog func()
		ctx, flushLog = setupLoggerTo(ctx, os.Stderr)
		defer flushLog()

		c, err := newComponents(ctx)
		if err != nil {
			return err
		}
		defer c.Close(ctx)

		gw, err := newGateway(ctx, c)
		if err != nil {
			return err
		}

		history := kv.NewChatLog(0)
		router := command.NewChatRouter("cli", c.catalog, c.ledger, history)

		rl, err := cli.NewReadLine(c.app, gw, router, history, chatAccount)
		if err != nil {
			return err
		}
		defer rl.Shutdown(ctx)

		return rl.Start(ctx)
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatAccount, "account", "a", "", "email of the account to chat as")
	rootCmd.AddCommand(chatCmd)
}
