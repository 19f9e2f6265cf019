package quota

import (
	"context"
	"time"

	"github.com/sandevgo/lifecoach/pkg/log"
)

// Sweeper periodically drops inactive ledger records. A non-positive interval
// or TTL disables it.
type Sweeper struct {
	ledger   *Ledger
	Interval time.Duration
	TTL      time.Duration
}

func NewSweeper(ledger *Ledger, interval, ttl time.Duration) *Sweeper {
	return &Sweeper{
		ledger:   ledger,
		Interval: interval,
		TTL:      ttl,
	}
}

func (s *Sweeper) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	if s.Interval <= 0 || s.TTL <= 0 {
		logger.Warn().Dur("interval", s.Interval).Dur("ttl", s.TTL).Msg("quota sweeper disabled: interval and ttl must be positive")
		<-ctx.Done()
		return nil
	}
	logger.Info().Dur("interval", s.Interval).Dur("ttl", s.TTL).Msg("starting quota sweeper")

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) Shutdown(ctx context.Context) error {
	return nil
}

func (s *Sweeper) runOnce(ctx context.Context) {
	logger := log.FromCtx(ctx)

	removed, err := s.ledger.Sweep(ctx, s.TTL)
	if err != nil {
		logger.Error().Err(err).Msg("quota sweep failed")
		return
	}
	if removed > 0 {
		logger.Info().Int("removed", removed).Msg("inactive quota records removed")
	}
}
