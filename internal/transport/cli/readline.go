package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sandevgo/lifecoach/internal/config"
	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/internal/service/gateway"
	"github.com/sandevgo/lifecoach/internal/service/identity"
	"github.com/sandevgo/lifecoach/pkg/log"
)

const (
	channelName = "cli"
	localChatID = "cli-local"
)

type Chatter interface {
	Chat(ctx context.Context, req gateway.Request) (gateway.Response, error)
}

// ReadLine is a terminal chat against the in-process gateway. With an
// account email the exchange is saved as a session of that account.
type ReadLine struct {
	chat      Chatter
	router    core.CmdRouter
	history   core.ChatLog
	account   string
	sessionID int64
	rl        *readline.Instance
}

func NewReadLine(
	cfg *config.AppConfig,
	chat Chatter,
	router core.CmdRouter,
	history core.ChatLog,
	account string,
) (*ReadLine, error) {
	// Ensure runtime directory exists
	if err := os.MkdirAll(cfg.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "you> ",
		HistoryFile:     filepath.Join(cfg.RuntimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		chat:    chat,
		router:  router,
		history: history,
		account: strings.TrimSpace(account),
		rl:      rl,
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Str("account", r.account).Msg("ReadLine chat started. Type 'exit' to quit.")

	for {
		// Check context before blocking read
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					return nil // Exit on Ctrl+C
				}
				continue
			} else if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}

		if reply, ok := r.router.Execute(ctx, localChatID, line); ok {
			if strings.HasPrefix(line, "/new") {
				r.sessionID = 0
			}
			fmt.Fprintln(r.rl.Stdout(), reply)
			continue
		}

		reply, err := r.send(ctx, line)
		if err != nil {
			logger.Debug().Err(err).Msg("chat failed")
			fmt.Fprintf(r.rl.Stdout(), "\033[38;5;240m%s\033[0m\n", gateway.Explain(err))
			continue
		}
		fmt.Fprintf(r.rl.Stdout(), "coach> %s\n", reply)
	}
}

func (r *ReadLine) send(ctx context.Context, line string) (string, error) {
	resp, err := r.chat.Chat(ctx, gateway.Request{
		Message: line,
		History: r.history.History(localChatID),
		Signals: identity.Signals{
			Origin:          channelName,
			ClientSignature: core.CoachUserAgent,
			AccountID:       r.account,
		},
		SessionID: r.sessionID,
	})
	if err != nil {
		return "", err
	}

	if resp.SessionID != 0 {
		r.sessionID = resp.SessionID
	}
	r.history.Append(localChatID,
		core.Message{Role: core.RoleUser, Content: line},
		core.Message{Role: core.RoleAssistant, Content: resp.Content},
	)
	return resp.Content, nil
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}
