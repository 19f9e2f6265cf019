package command

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/pkg/log"
)

type Router struct {
	commands  map[string]core.Command
	formatter *ResponseFormatter
}

func New(commands []core.Command) *Router {
	c := &Router{
		commands:  make(map[string]core.Command),
		formatter: NewResponseFormatter(),
	}

	for _, cmd := range commands {
		c.Register(cmd)
	}
	return c
}

func (c *Router) Register(cmd core.Command) {
	c.commands[cmd.Name()] = cmd
}

// Execute reports false when input is not a command and should go to the coach.
// Telegram may suffix commands with the bot name ("/quota@coach_bot").
func (c *Router) Execute(ctx context.Context, chatID, input string) (string, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return "", false
	}

	parts := strings.Fields(input)
	name := strings.TrimPrefix(parts[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	name = strings.ToLower(name)
	args := parts[1:]

	cmd, ok := c.commands[name]
	if !ok {
		return fmt.Sprintf("Unknown command: /%s. Try /help", name), true
	}

	result, err := cmd.Execute(ctx, chatID, args)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Str("command", name).Msg("command failed")
		return c.formatter.Error(name, err), true
	}
	return result, true
}

func (c *Router) ListCommands() []core.Command {
	res := make([]core.Command, 0, len(c.commands))
	for _, cmd := range c.commands {
		res = append(res, cmd)
	}
	slices.SortFunc(res, func(a, b core.Command) int { return strings.Compare(a.Name(), b.Name()) })
	return res
}
