package main

import (
	"context"
	"io"
	"os"

	"github.com/sandevgo/lifecoach/internal/config"
	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/internal/service/ui"
	"github.com/sandevgo/lifecoach/pkg/log"
	"github.com/spf13/cobra"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:     "coach",
	Short:   core.CoachName + ": AI life coaching gateway",
	Long:    `LifeCoach serves an AI coach over HTTP, Telegram and the terminal, with per-plan message quotas, model fallback and conversation memory.`,
	Version: core.CoachVersion,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	return setupLoggerTo(ctx, os.Stdout)
}

// setupLoggerTo is for commands that own stdout, like the MCP server.
func setupLoggerTo(ctx context.Context, out io.Writer) (context.Context, func()) {
	return log.NewContextWithLogger(ctx, log.Options{
		Debug: debug || config.IsDebug(),
		JSON:  config.IsJSONLog(),
		Out:   out,
	})
}

func CustomizeHelp(rootCmd *cobra.Command) {
	cobra.AddTemplateFunc("StyleTitle", func(s string) string { return ui.TitleStyle.Render(s) })
	cobra.AddTemplateFunc("StyleUsage", func(s string) string { return ui.UsageStyle.Render(s) })
	cobra.AddTemplateFunc("StyleFlag", func(s string) string { return ui.FlagStyle.Render(s) })
	cobra.AddTemplateFunc("StyleDesc", func(s string) string { return ui.DescStyle.Render(s) })

	template := `
{{StyleTitle "USAGE"}}
  {{StyleUsage .UseLine}}
{{if gt (len .Commands) 0}}{{StyleTitle "AVAILABLE COMMANDS"}}
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding}} {{StyleDesc .Short}}{{end}}
{{end}}{{end}}
{{if .HasAvailableLocalFlags}}{{StyleTitle "FLAGS"}}
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces | StyleFlag}}
{{end}}
`
	rootCmd.SetHelpTemplate(template)
}
