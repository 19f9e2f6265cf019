package command

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/internal/service/identity"
)

type QuotaCommand struct {
	channel   string
	catalog   core.PlanCatalog
	quota     core.QuotaReporter
	formatter *ResponseFormatter
}

func NewQuotaCommand(channel string, catalog core.PlanCatalog, quota core.QuotaReporter) *QuotaCommand {
	return &QuotaCommand{
		channel:   channel,
		catalog:   catalog,
		quota:     quota,
		formatter: NewResponseFormatter(),
	}
}

func (c *QuotaCommand) Name() string {
	return "quota"
}

func (c *QuotaCommand) Description() string {
	return "Show how many messages you have left"
}

func (c *QuotaCommand) Execute(ctx context.Context, chatID string, args []string) (string, error) {
	id := identity.Resolve(identity.ForChat(c.channel, chatID))
	plan := c.catalog.Lookup("")

	status, err := c.quota.Status(ctx, id, plan)
	if err != nil {
		return "", fmt.Errorf("failed to read quota: %w", err)
	}

	if status.Blocked {
		return c.formatter.Combine(
			c.formatter.Info("Quota"),
			c.formatter.Label("Status", "blocked"),
		), nil
	}

	if plan.Unbounded {
		return c.formatter.Combine(
			c.formatter.Info("Quota"),
			c.formatter.Label("Plan", plan.Name),
			c.formatter.Label("Remaining", "unlimited"),
		), nil
	}

	sections := []string{
		c.formatter.Info("Quota"),
		c.formatter.Label("Plan", plan.Name),
		c.formatter.Label("Used", fmt.Sprintf("%d of %d", status.Used, plan.MessageLimit)),
		c.formatter.Label("Remaining", fmt.Sprintf("%d", status.Remaining)),
	}
	if status.ResetIn > 0 {
		sections = append(sections, c.formatter.Label("Resets in", formatWait(status.ResetIn)))
	}
	return c.formatter.Combine(sections...), nil
}

func formatWait(d time.Duration) string {
	mins := core.CeilMinutes(d)
	if mins < 60 {
		return fmt.Sprintf("%d min", mins)
	}
	return fmt.Sprintf("%dh %02dm", mins/60, mins%60)
}
