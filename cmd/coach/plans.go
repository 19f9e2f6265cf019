package main

import (
	"fmt"

	"github.com/sandevgo/lifecoach/internal/service/command"
	"github.com/sandevgo/lifecoach/internal/service/ui"
	"github.com/spf13/cobra"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List the configured quota plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLoggerTo(cmd.Context(), cmd.ErrOrStderr())
		defer flushLog()

		c, err := newComponents(ctx)
		if err != nil {
			return err
		}
		defer c.Close(ctx)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.TitleStyle.Render("PLANS"))
		for _, p := range c.catalog.Plans() {
			fmt.Fprintln(out, ui.Field(p.Name, command.DescribePlan(p)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(plansCmd)
}
