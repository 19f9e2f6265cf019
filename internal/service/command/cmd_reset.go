package command

import (
	"context"

	"github.com/sandevgo/lifecoach/internal/core"
)

type ResetCommand struct {
	chatLog   core.ChatLog
	formatter *ResponseFormatter
}

func NewResetCommand(chatLog core.ChatLog) *ResetCommand {
	return &ResetCommand{
		chatLog:   chatLog,
		formatter: NewResponseFormatter(),
	}
}

func (c *ResetCommand) Name() string {
	return "new"
}

func (c *ResetCommand) Description() string {
	return "Start a fresh conversation"
}

func (c *ResetCommand) Execute(ctx context.Context, chatID string, args []string) (string, error) {
	c.chatLog.Reset(chatID)
	return c.formatter.Success("Conversation cleared. What's on your mind?"), nil
}
