package command

import (
	"github.com/sandevgo/lifecoach/internal/core"
)

// NewChatRouter wires the commands available to messenger chats.
func NewChatRouter(
	channel string,
	catalog core.PlanCatalog,
	quota core.QuotaReporter,
	chatLog core.ChatLog,
) *Router {
	r := New([]core.Command{
		NewResetCommand(chatLog),
		NewQuotaCommand(channel, catalog, quota),
		NewPlansCommand(catalog),
	})
	r.Register(NewHelpCommand(r.ListCommands))
	return r
}
