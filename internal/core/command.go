package core

import "context"

type CmdRouter interface {
	Execute(ctx context.Context, chatID, input string) (string, bool)
	ListCommands() []Command
}

type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, chatID string, args []string) (string, error)
}

// ChatLog keeps short per-chat history for transports without accounts.
type ChatLog interface {
	History(chatID string) []Message
	Append(chatID string, msgs ...Message)
	Reset(chatID string)
}
