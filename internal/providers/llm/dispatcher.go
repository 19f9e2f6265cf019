package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/pkg/log"
)

const DefaultAttemptTimeout = 30 * time.Second

// Dispatcher tries candidate models strictly in order, one attempt each,
// and returns the first non-empty completion.
type Dispatcher struct {
	provider core.AIProvider
}

func NewDispatcher(provider core.AIProvider) *Dispatcher {
	return &Dispatcher{provider: provider}
}

func (d *Dispatcher) Complete(
	ctx context.Context,
	conv core.Conversation,
	candidates core.Candidates,
	timeout time.Duration,
) (core.Completion, error) {
	logger := log.FromCtx(ctx)
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}

	models := candidates.Select(conv.NeedsVision())
	var failures []core.AttemptFailure

	for _, model := range models {
		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Msg("dispatch abandoned, context done")
			break
		}

		start := time.Now()
		content, err := d.attempt(ctx, model, conv, timeout)
		elapsed := time.Since(start)

		if err == nil {
			logger.Debug().
				Str("model", model).
				Dur("elapsed", elapsed).
				Int("failed_before", len(failures)).
				Msg("completion received")
			return core.Completion{Content: content, Model: model, Attempts: failures}, nil
		}

		failures = append(failures, core.AttemptFailure{Model: model, Err: err, Elapsed: elapsed})
		logger.Warn().
			Err(err).
			Str("model", model).
			Dur("elapsed", elapsed).
			Msg("model attempt failed, trying next candidate")
	}

	return core.Completion{}, &core.DispatchError{Attempts: failures}
}

// attempt runs one call under its own deadline. The deadline is released as
// soon as the call returns so nothing outlives the attempt.
func (d *Dispatcher) attempt(ctx context.Context, model string, conv core.Conversation, timeout time.Duration) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	content, err := d.provider.Chat(attemptCtx, model, conv)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("%w after %s: %w", core.ErrAttemptTimeout, timeout, err)
		}
		return "", err
	}
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}
