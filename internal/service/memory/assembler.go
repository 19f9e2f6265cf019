package memory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/pkg/log"
)

const (
	DefaultMaxSessions      = 3
	DefaultTranscriptTokens = 2000
	defaultSummaryTimeout   = 20 * time.Second

	DigestHeader = "PAST CONVERSATION SUMMARIES:\n"

	summaryInstruction = "Summarize the following conversation very briefly (1-2 sentences). Only provide the summary, nothing else."
	summaryPrefix      = "Conversation to summarize:\n\n"
)

type Options struct {
	Candidates       core.Candidates
	AttemptTimeout   time.Duration
	SummaryTimeout   time.Duration
	TranscriptTokens int
}

// Assembler builds a short digest of an account's other recent sessions.
type Assembler struct {
	accounts   core.AccountsRepository
	dispatcher core.Dispatcher
	opts       Options
}

func NewAssembler(accounts core.AccountsRepository, dispatcher core.Dispatcher, opts Options) *Assembler {
	if opts.SummaryTimeout <= 0 {
		opts.SummaryTimeout = defaultSummaryTimeout
	}
	if opts.TranscriptTokens == 0 {
		opts.TranscriptTokens = DefaultTranscriptTokens
	}
	// Summaries are text only.
	opts.Candidates = core.Candidates{Text: opts.Candidates.Text}

	return &Assembler{
		accounts:   accounts,
		dispatcher: dispatcher,
		opts:       opts,
	}
}

// BuildContext never fails: any problem degrades to an empty digest.
func (a *Assembler) BuildContext(ctx context.Context, accountID string, excludeSessionID int64, maxSessions int) string {
	logger := log.FromCtx(ctx)
	if accountID == "" {
		return ""
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}

	acc, err := a.accounts.Find(ctx, accountID)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			logger.Warn().Err(err).Msg("memory: failed to load account, continuing without digest")
		}
		return ""
	}

	sessions := recentSessions(acc.Sessions, excludeSessionID, maxSessions)
	if len(sessions) == 0 {
		return ""
	}

	summaries := make([]string, len(sessions))
	var wg sync.WaitGroup
	for i, s := range sessions {
		wg.Add(1)
		go func(i int, s core.Session) {
			defer wg.Done()
			summary, err := a.summarize(ctx, s)
			if err != nil {
				logger.Warn().Err(err).Int64("session_id", s.ID).Msg("memory: summary skipped")
				return
			}
			summaries[i] = summary
		}(i, s)
	}
	wg.Wait()

	var sb strings.Builder
	for _, s := range summaries {
		if s == "" {
			continue
		}
		if sb.Len() == 0 {
			sb.WriteString(DigestHeader)
		}
		sb.WriteString("- ")
		sb.WriteString(s)
		sb.WriteByte('\n')
	}
	if sb.Len() == 0 {
		return ""
	}
	sb.WriteByte('\n')

	logger.Debug().Int("sessions", len(sessions)).Msg("memory digest assembled")
	return sb.String()
}

// recentSessions picks up to limit non-empty sessions, newest first.
// Session ids are creation times in milliseconds.
func recentSessions(all []core.Session, exclude int64, limit int) []core.Session {
	picked := make([]core.Session, 0, len(all))
	for _, s := range all {
		if s.ID == exclude || len(s.Messages) == 0 {
			continue
		}
		picked = append(picked, s)
	}
	slices.SortStableFunc(picked, func(a, b core.Session) int {
		return cmp.Compare(b.ID, a.ID)
	})
	if len(picked) > limit {
		picked = picked[:limit]
	}
	return picked
}

func (a *Assembler) summarize(ctx context.Context, s core.Session) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.SummaryTimeout)
	defer cancel()

	transcript := Transcript(s.Messages, a.opts.TranscriptTokens)
	if transcript == "" {
		return "", fmt.Errorf("%w: session %d has no text", core.ErrSummarization, s.ID)
	}

	conv := core.Conversation{
		SystemInstructions: summaryInstruction,
		CurrentTurn:        summaryPrefix + transcript,
	}
	res, err := a.dispatcher.Complete(ctx, conv, a.opts.Candidates, a.opts.AttemptTimeout)
	if err != nil {
		return "", fmt.Errorf("%w: session %d: %w", core.ErrSummarization, s.ID, err)
	}
	return strings.TrimSpace(res.Content), nil
}
