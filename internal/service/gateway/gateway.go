// Package gateway turns one chat request into one reply: admission, memory,
// dispatch and session persistence, in that order.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/internal/service/identity"
	"github.com/sandevgo/lifecoach/pkg/log"
)

const (
	titleInstruction = "Write a very short title (3-5 words) for this chat. Only write the title, do not use quotes."
	titleFallbackLen = 30
)

type PromptBuilder interface {
	Build(digest string, acc *core.Account) string
}

type Options struct {
	Candidates     core.Candidates
	AttemptTimeout time.Duration
	MemorySessions int
	Now            func() time.Time
}

type Gateway struct {
	catalog    core.PlanCatalog
	ledger     core.Admitter
	accounts   core.AccountsRepository
	memory     core.Memory
	dispatcher core.Dispatcher
	prompt     PromptBuilder
	opts       Options
}

func New(
	catalog core.PlanCatalog,
	ledger core.Admitter,
	accounts core.AccountsRepository,
	memory core.Memory,
	dispatcher core.Dispatcher,
	prompt PromptBuilder,
	opts Options,
) *Gateway {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Gateway{
		catalog:    catalog,
		ledger:     ledger,
		accounts:   accounts,
		memory:     memory,
		dispatcher: dispatcher,
		prompt:     prompt,
		opts:       opts,
	}
}

// Chat returns *core.AdmissionError when the caller is over quota and
// *core.DispatchError when no candidate produced a reply. A reply that could
// not be saved is reported as core.ErrStorageFault.
func (g *Gateway) Chat(ctx context.Context, req Request) (Response, error) {
	if err := req.validate(); err != nil {
		return Response{}, err
	}
	turn, image, err := currentTurn(req.Message, req.Attachment)
	if err != nil {
		return Response{}, err
	}

	id := identity.Resolve(req.Signals)
	plan := g.catalog.Lookup(req.Tier)
	decision := g.ledger.Admit(ctx, id, plan)
	if !decision.Allowed {
		return Response{}, &core.AdmissionError{
			Reason:     decision.Reason,
			RetryAfter: decision.RetryAfter,
			Indefinite: decision.Indefinite,
		}
	}

	// Once admitted, the request runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	logger := log.FromCtx(ctx)

	accountID := strings.TrimSpace(req.Signals.AccountID)
	if accountID == "" {
		accountID = strings.TrimSpace(req.AccountEmail)
	}
	acc := g.loadAccount(ctx, accountID)

	var digest string
	if acc != nil {
		digest = g.memory.BuildContext(ctx, acc.Email, req.SessionID, g.opts.MemorySessions)
	}

	conv := core.Conversation{
		SystemInstructions: g.prompt.Build(digest, acc),
		PriorTurns:         priorTurns(req.History),
		CurrentTurn:        turn,
		Attachment:         image,
	}

	completion, err := g.dispatcher.Complete(ctx, conv, g.opts.Candidates.Prefer(req.Model), g.opts.AttemptTimeout)
	if err != nil {
		return Response{}, err
	}

	resp := Response{Content: completion.Content, Model: completion.Model}
	logger.Info().
		Str("plan", plan.Name).
		Str("model", completion.Model).
		Int("failed_attempts", len(completion.Attempts)).
		Bool("account", acc != nil).
		Msg("chat completed")

	if acc == nil {
		return resp, nil
	}

	sessionID, err := g.persist(ctx, acc, req, completion.Content)
	if err != nil {
		return Response{}, err
	}
	resp.SessionID = sessionID
	return resp, nil
}

func (g *Gateway) loadAccount(ctx context.Context, accountID string) *core.Account {
	if accountID == "" {
		return nil
	}
	acc, err := g.accounts.Find(ctx, accountID)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			log.FromCtx(ctx).Warn().Err(err).Msg("account lookup failed, continuing without account context")
		}
		return nil
	}
	return acc
}

// persist appends the exchange to the addressed session, creating a titled
// session when the id is unknown. New sessions go first, matching newest-first order.
func (g *Gateway) persist(ctx context.Context, acc *core.Account, req Request, reply string) (int64, error) {
	sessionID := req.SessionID
	var title string
	if sessionID == 0 || acc.Session(sessionID) == nil {
		sessionID = g.opts.Now().UnixMilli()
		title = g.title(ctx, req.Message, reply)
	}

	userContent := req.Message
	if req.Attachment != nil {
		userContent = strings.TrimSpace(userContent + "\n[attachment: " + req.Attachment.Name + "]")
	}

	_, err := g.accounts.Update(ctx, acc.Email, func(a *core.Account) error {
		s := a.Session(sessionID)
		if s == nil {
			if title == "" {
				title = fallbackTitle(req.Message)
			}
			a.Sessions = append([]core.Session{{ID: sessionID, Title: title}}, a.Sessions...)
			s = &a.Sessions[0]
		}
		s.Messages = append(s.Messages,
			core.Message{Role: core.RoleUser, Content: userContent},
			core.Message{Role: core.RoleAssistant, Content: reply},
		)
		return nil
	})
	if err != nil {
		if errors.Is(err, core.ErrStorageFault) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: save session: %w", core.ErrStorageFault, err)
	}
	return sessionID, nil
}

func (g *Gateway) title(ctx context.Context, message, reply string) string {
	conv := core.Conversation{
		SystemInstructions: titleInstruction,
		CurrentTurn:        "User: " + message + "\nAI: " + reply,
	}
	res, err := g.dispatcher.Complete(ctx, conv, core.Candidates{Text: g.opts.Candidates.Text}, g.opts.AttemptTimeout)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("title generation failed, using fallback")
		return fallbackTitle(message)
	}
	if t := cleanTitle(res.Content); t != "" {
		return t
	}
	return fallbackTitle(message)
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimPrefix(s, `'`)
	s = strings.TrimSuffix(s, `"`)
	s = strings.TrimSuffix(s, `'`)
	return strings.TrimSpace(s)
}

func fallbackTitle(message string) string {
	runes := []rune(message)
	if len(runes) > titleFallbackLen {
		runes = runes[:titleFallbackLen]
	}
	return string(runes) + "..."
}
