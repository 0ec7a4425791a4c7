// Package supervisor authenticates against the exchange and drives the strategy
// loops, alone or concurrently, under one shared cancellation token.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"okx-trader/internal/exchange"
	"okx-trader/internal/strategy"
)

// Mode selects which strategy loops Run starts.
type Mode string

const (
	ModeGrid  Mode = "grid"
	ModeTrend Mode = "trend"
	ModeBoth  Mode = "both"
)

var (
	ErrAuthProbeFailed = errors.New("supervisor: authentication probe failed")
	ErrUnknownMode     = errors.New("supervisor: unknown mode")
	ErrStopped         = errors.New("supervisor: already stopped")
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeGrid, ModeTrend, ModeBoth:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

type Supervisor struct {
	ctx    context.Context
	cancel context.CancelFunc
	grid   strategy.Runner
	trend  strategy.Runner
	log    zerolog.Logger
}

// New probes the account balance before anything else. A failed probe is fatal:
// no supervisor is returned and no loop can start.
func New(ctx context.Context, ex exchange.Exchange, grid, trend strategy.Runner, log zerolog.Logger) (*Supervisor, error) {
	log = log.With().Str("component", "supervisor").Logger()
	bal, err := ex.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthProbeFailed, err)
	}
	log.Info().Stringer("total_eq", bal.TotalEquity).Msg("authenticated")

	ctx, cancel := context.WithCancel(ctx)
	return &Supervisor{
		ctx:    ctx,
		cancel: cancel,
		grid:   grid,
		trend:  trend,
		log:    log,
	}, nil
}

// Running is the non-blocking should-stop check.
func (s *Supervisor) Running() bool {
	return s.ctx.Err() == nil
}

// Stop flips the run state to stopped. It is one-way and safe to call repeatedly.
func (s *Supervisor) Stop() {
	if s.Running() {
		s.log.Info().Msg("stop requested")
	}
	s.cancel()
}

// Run blocks until the selected loops return. Grid and trend modes run the
// loop on the calling goroutine; both mode starts each loop on its own
// goroutine, waits for Stop, then joins them.
func (s *Supervisor) Run(mode Mode) error {
	if !s.Running() {
		return ErrStopped
	}
	switch mode {
	case ModeGrid:
		s.grid.Start(s.ctx)
	case ModeTrend:
		s.trend.Start(s.ctx)
	case ModeBoth:
		var g errgroup.Group
		for _, r := range []strategy.Runner{s.grid, s.trend} {
			r := r
			g.Go(func() error {
				r.Start(s.ctx)
				return nil
			})
		}
		s.log.Info().Msg("grid and trend strategies running")
		<-s.ctx.Done()
		s.log.Info().Msg("waiting for strategies to finish")
		if err := g.Wait(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return nil
}
