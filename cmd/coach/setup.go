package main

import (
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/lifecoach/internal/config"
	"github.com/sandevgo/lifecoach/internal/service/installer"
	"github.com/sandevgo/lifecoach/internal/service/ui"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup of the runtime directory",
	Long:  `Walks through provider, model and channel selection and writes .env, PERSONA.md and plans.toml into the runtime directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runtimePath := config.GetRuntimePath()

		state, err := installer.RunWizard(runtimePath)
		if err != nil {
			return fmt.Errorf("setup failed: %w", err)
		}

		// Make the fresh settings visible to anything run in this process
		if err := godotenv.Load(filepath.Join(state.RuntimePath, ".env")); err != nil {
			return fmt.Errorf("failed to load generated .env: %w", err)
		}

		fmt.Println(ui.TitleStyle.Render("Setup complete"))
		fmt.Println(ui.DescStyle.Render("Runtime directory: " + state.RuntimePath))
		fmt.Println(ui.DescStyle.Render("Run `coach serve` to start the gateway."))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
