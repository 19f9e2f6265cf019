package main

import (
	"fmt"
	"time"

	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/internal/service/identity"
	"github.com/sandevgo/lifecoach/internal/service/ui"
	"github.com/sandevgo/lifecoach/pkg/log"
	"github.com/spf13/cobra"
)

var (
	quotaTier string
	sweepTTL  time.Duration
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Inspect and administer message quotas",
	Long:  `Identities are either an account email or a raw ledger key such as an anonymous hash.`,
}

var quotaStatusCmd = &cobra.Command{
	Use:   "status <identity>",
	Short: "Show usage for an identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLoggerTo(cmd.Context(), cmd.ErrOrStderr())
		defer flushLog()

		c, err := newComponents(ctx)
		if err != nil {
			return err
		}
		defer c.Close(ctx)

		id := identity.FromOperator(args[0])
		st, err := c.ledger.Status(ctx, id, c.catalog.Lookup(quotaTier))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Field("Identity", st.Identity))
		fmt.Fprintln(out, ui.Field("Plan", st.Plan.Name))
		fmt.Fprintln(out, ui.Field("State", stateLabel(st)))
		if !st.Plan.Unbounded && !st.Blocked {
			fmt.Fprintln(out, ui.Field("Used", fmt.Sprintf("%d of %d", st.Used, st.Plan.MessageLimit)))
			fmt.Fprintln(out, ui.Field("Remaining", fmt.Sprint(st.Remaining)))
			fmt.Fprintln(out, ui.Field("Resets in", st.ResetIn.Round(time.Minute).String()))
		}
		if !st.LastSeen.IsZero() {
			fmt.Fprintln(out, ui.Field("Last seen", st.LastSeen.UTC().Format(time.DateTime)))
		}
		return nil
	},
}

var quotaBlockCmd = &cobra.Command{
	Use:   "block <identity>",
	Short: "Deny all further messages for an identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setBlocked(cmd, args[0], true)
	},
}

var quotaUnblockCmd = &cobra.Command{
	Use:   "unblock <identity>",
	Short: "Lift a block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setBlocked(cmd, args[0], false)
	},
}

var quotaSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Drop idle, unblocked quota records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLoggerTo(cmd.Context(), cmd.ErrOrStderr())
		defer flushLog()

		c, err := newComponents(ctx)
		if err != nil {
			return err
		}
		defer c.Close(ctx)

		ttl := sweepTTL
		if ttl <= 0 {
			ttl = c.app.RetentionTTL
		}
		removed, err := c.ledger.Sweep(ctx, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d record(s) idle for more than %s\n", removed, ttl)
		return nil
	},
}

func setBlocked(cmd *cobra.Command, raw string, blocked bool) error {
	ctx, flushLog := setupLoggerTo(cmd.Context(), cmd.ErrOrStderr())
	defer flushLog()

	c, err := newComponents(ctx)
	if err != nil {
		return err
	}
	defer c.Close(ctx)

	id := identity.FromOperator(raw)
	if blocked {
		err = c.ledger.Block(ctx, id)
	} else {
		err = c.ledger.Unblock(ctx, id)
	}
	if err != nil {
		return err
	}

	log.FromCtx(ctx).Info().Str("identity", id).Bool("blocked", blocked).Msg("quota block updated")
	fmt.Fprintln(cmd.OutOrStdout(), ui.Field(id, stateLabel(core.QuotaStatus{Blocked: blocked})))
	return nil
}

func stateLabel(st core.QuotaStatus) string {
	switch {
	case st.Blocked:
		return ui.BlockedStyle.Render("blocked")
	case st.Plan.Unbounded:
		return ui.OKStyle.Render("unlimited")
	case st.Remaining == 0 && st.Plan.MessageLimit > 0:
		return ui.WarnStyle.Render("limit reached")
	default:
		return ui.OKStyle.Render("active")
	}
}

func init() {
	quotaStatusCmd.Flags().StringVarP(&quotaTier, "tier", "t", "", "plan tier to evaluate against (default: anonymous plan)")
	quotaSweepCmd.Flags().DurationVar(&sweepTTL, "ttl", 0, "idle time before a record is dropped (default: COACH_RETENTION_TTL)")

	quotaCmd.AddCommand(quotaStatusCmd, quotaBlockCmd, quotaUnblockCmd, quotaSweepCmd)
	rootCmd.AddCommand(quotaCmd)
}
