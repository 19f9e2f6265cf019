package main

import (
	"fmt"
	"slices"

	"github.com/sandevgo/lifecoach/internal/config"
	"github.com/sandevgo/lifecoach/internal/providers/llm"
	"github.com/sandevgo/lifecoach/internal/service/ui"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models offered by the configured provider",
	Long:  `Queries the provider's model list and marks the ones in the current fallback chains.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLoggerTo(cmd.Context(), cmd.ErrOrStderr())
		defer flushLog()

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}
		providerCfg := config.NewProviderConfig(ctx)

		provider, err := llm.NewProvider(ctx, providerCfg)
		if err != nil {
			return err
		}

		models, err := provider.Models(ctx)
		if err != nil {
			return fmt.Errorf("failed to list models: %w", err)
		}

		candidates := providerCfg.GetCandidates()
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.TitleStyle.Render(fmt.Sprintf("MODELS (%d)", len(models))))
		for _, m := range models {
			line := m.ID
			switch {
			case slices.Contains(candidates.Text, m.ID) && slices.Contains(candidates.Vision, m.ID):
				line += " " + ui.OKStyle.Render("[text, vision]")
			case slices.Contains(candidates.Text, m.ID):
				line += " " + ui.OKStyle.Render("[text]")
			case slices.Contains(candidates.Vision, m.ID):
				line += " " + ui.OKStyle.Render("[vision]")
			}
			if m.Name != "" && m.Name != m.ID {
				line += " " + ui.DescStyle.Render(m.Name)
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
