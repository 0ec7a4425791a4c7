package strategy

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"okx-trader/internal/metrics"
)

// Runner is a strategy loop the supervisor can drive.
type Runner interface {
	Name() string
	Start(ctx context.Context)
}

// loop runs iterate until ctx is canceled. The token is checked at the top of
// every iteration and during sleeps; an iteration already in progress finishes.
func loop(ctx context.Context, log zerolog.Logger, name string, interval, retryDelay time.Duration, iterate func(context.Context) error) {
	for ctx.Err() == nil {
		wait := interval
		if err := iterate(ctx); err != nil {
			metrics.IterationsTotal.WithLabelValues(name, "error").Inc()
			log.Error().Err(err).Dur("retry_in", retryDelay).Msg("iteration failed")
			wait = retryDelay
		} else {
			metrics.IterationsTotal.WithLabelValues(name, "ok").Inc()
		}
		if !sleep(ctx, wait) {
			return
		}
	}
}

// sleep waits for d and reports false when ctx was canceled first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func seconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}
