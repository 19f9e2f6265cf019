package quota

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/pkg/log"
)

type Option func(*Ledger)

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// Ledger counts admitted messages per identity over fixed windows.
//
// Every call reads and rewrites the whole limits collection without a
// transaction, so concurrent requests for the same identity may both see the
// old count. Accounting is approximate by design of the backing store.
type Ledger struct {
	limits core.LimitsRepository
	now    func() time.Time
	faults atomic.Int64
}

func NewLedger(limits core.LimitsRepository, opts ...Option) *Ledger {
	l := &Ledger{
		limits: limits,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit decides whether identity may send one more message under plan.
// Storage faults fail open: the request is allowed and the fault recorded.
func (l *Ledger) Admit(ctx context.Context, identity string, plan core.Plan) core.Decision {
	logger := log.FromCtx(ctx)
	now := l.now()

	records, err := l.limits.Load(ctx)
	if err != nil {
		return l.failOpen(ctx, identity, err)
	}

	rec, ok := records[identity]
	if !ok {
		rec = core.QuotaRecord{WindowStart: now}
	}
	rec.LastSeen = now

	if rec.Blocked {
		logger.Info().Str("identity", identity).Msg("blocked identity denied")
		return core.Decision{Indefinite: true, Reason: "identity is blocked"}
	}

	if now.Sub(rec.WindowStart) >= plan.Window {
		rec.MessageCount = 0
		rec.WindowStart = now
	}

	if plan.Unbounded {
		return core.Decision{Allowed: true}
	}

	if rec.MessageCount >= plan.MessageLimit {
		wait := plan.Window - now.Sub(rec.WindowStart)
		logger.Info().
			Str("identity", identity).
			Str("plan", plan.Name).
			Dur("retry_after", wait).
			Msg("message limit reached")
		return core.Decision{
			RetryAfter: wait,
			Reason:     fmt.Sprintf("message limit of %d per %s reached", plan.MessageLimit, plan.Window),
		}
	}

	rec.MessageCount++
	records[identity] = rec
	if err := l.limits.Save(ctx, records); err != nil {
		return l.failOpen(ctx, identity, err)
	}

	logger.Debug().
		Str("identity", identity).
		Uint("count", rec.MessageCount).
		Uint("limit", plan.MessageLimit).
		Msg("message admitted")
	return core.Decision{Allowed: true}
}

func (l *Ledger) failOpen(ctx context.Context, identity string, err error) core.Decision {
	l.faults.Add(1)
	log.FromCtx(ctx).Error().Err(err).Str("identity", identity).Msg("quota ledger unavailable, admitting request")
	return core.Decision{Allowed: true, Fault: err}
}

// Faults is the number of admissions that failed open since start.
func (l *Ledger) Faults() int64 {
	return l.faults.Load()
}

// Status reports usage without mutating the record.
func (l *Ledger) Status(ctx context.Context, identity string, plan core.Plan) (core.QuotaStatus, error) {
	records, err := l.limits.Load(ctx)
	if err != nil {
		return core.QuotaStatus{}, err
	}

	now := l.now()
	st := core.QuotaStatus{Identity: identity, Plan: plan, Remaining: plan.MessageLimit}
	rec, ok := records[identity]
	if !ok {
		return st, nil
	}

	st.Blocked = rec.Blocked
	st.LastSeen = rec.LastSeen
	if now.Sub(rec.WindowStart) < plan.Window {
		st.Used = rec.MessageCount
		st.ResetIn = plan.Window - now.Sub(rec.WindowStart)
	}
	if st.Used >= plan.MessageLimit {
		st.Remaining = 0
	} else {
		st.Remaining = plan.MessageLimit - st.Used
	}
	return st, nil
}

func (l *Ledger) Block(ctx context.Context, identity string) error {
	return l.setBlocked(ctx, identity, true)
}

func (l *Ledger) Unblock(ctx context.Context, identity string) error {
	return l.setBlocked(ctx, identity, false)
}

func (l *Ledger) setBlocked(ctx context.Context, identity string, blocked bool) error {
	records, err := l.limits.Load(ctx)
	if err != nil {
		return err
	}

	now := l.now()
	rec, ok := records[identity]
	if !ok {
		rec = core.QuotaRecord{WindowStart: now, LastSeen: now}
	}
	rec.Blocked = blocked
	records[identity] = rec

	if err := l.limits.Save(ctx, records); err != nil {
		return err
	}
	log.FromCtx(ctx).Info().Str("identity", identity).Bool("blocked", blocked).Msg("identity block state changed")
	return nil
}

// Sweep deletes records idle for longer than ttl and returns how many were removed.
// Blocked identities are kept so a block survives inactivity.
func (l *Ledger) Sweep(ctx context.Context, ttl time.Duration) (int, error) {
	records, err := l.limits.Load(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := l.now().Add(-ttl)
	removed := 0
	for id, rec := range records {
		if rec.Blocked {
			continue
		}
		seen := rec.LastSeen
		if seen.IsZero() {
			seen = rec.WindowStart
		}
		if seen.Before(cutoff) {
			delete(records, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}

	if err := l.limits.Save(ctx, records); err != nil {
		return 0, err
	}
	return removed, nil
}
