package command

import (
	"context"
	"fmt"

	"github.com/sandevgo/lifecoach/internal/core"
)

type PlansCommand struct {
	catalog   core.PlanCatalog
	formatter *ResponseFormatter
}

func NewPlansCommand(catalog core.PlanCatalog) *PlansCommand {
	return &PlansCommand{
		catalog:   catalog,
		formatter: NewResponseFormatter(),
	}
}

func (c *PlansCommand) Name() string {
	return "plans"
}

func (c *PlansCommand) Description() string {
	return "List the available plans"
}

func (c *PlansCommand) Execute(ctx context.Context, chatID string, args []string) (string, error) {
	plans := c.catalog.Plans()
	items := make([]string, 0, len(plans))
	for _, p := range plans {
		items = append(items, fmt.Sprintf("**%s**: %s", p.Name, DescribePlan(p)))
	}

	return c.formatter.Combine(
		c.formatter.Info("Plans"),
		c.formatter.List(items),
	), nil
}

func DescribePlan(p core.Plan) string {
	if p.Unbounded {
		return "unlimited messages"
	}
	return fmt.Sprintf("%d messages every %s", p.MessageLimit, formatWait(p.Window))
}
