package command

import (
	"context"
	"fmt"

	"github.com/sandevgo/lifecoach/internal/core"
)

type HelpCommand struct {
	list      func() []core.Command
	formatter *ResponseFormatter
}

func NewHelpCommand(list func() []core.Command) *HelpCommand {
	return &HelpCommand{
		list:      list,
		formatter: NewResponseFormatter(),
	}
}

func (c *HelpCommand) Name() string {
	return "help"
}

func (c *HelpCommand) Description() string {
	return "Show available commands"
}

func (c *HelpCommand) Execute(ctx context.Context, chatID string, args []string) (string, error) {
	cmds := c.list()
	items := make([]string, 0, len(cmds))
	for _, cmd := range cmds {
		items = append(items, fmt.Sprintf("`/%s` %s", cmd.Name(), cmd.Description()))
	}

	return c.formatter.Combine(
		c.formatter.Info(core.CoachName),
		"Send any message to talk to your coach.\n",
		c.formatter.List(items),
	), nil
}
