package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"okx-trader/internal/exchange"
)

type fakeExchange struct {
	balanceErr error
	probes     atomic.Int32
}

func (e *fakeExchange) Balance(ctx context.Context) (*exchange.Balance, error) {
	e.probes.Add(1)
	if e.balanceErr != nil {
		return nil, e.balanceErr
	}
	return &exchange.Balance{TotalEquity: decimal.NewFromInt(1000)}, nil
}
func (e *fakeExchange) LastPrice(ctx context.Context, instID string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (e *fakeExchange) Candles(ctx context.Context, instID, bar string, limit int) ([]exchange.Candle, error) {
	return nil, nil
}
func (e *fakeExchange) CancelAllOrders(ctx context.Context, instID string) error { return nil }
func (e *fakeExchange) PlaceOrder(ctx context.Context, order *exchange.OrderIntent) (*exchange.OrderResponse, error) {
	return &exchange.OrderResponse{}, nil
}

type fakeRunner struct {
	name    string
	started chan struct{}
	starts  atomic.Int32
}

func newFakeRunner(name string) *fakeRunner {
	return &fakeRunner{name: name, started: make(chan struct{}, 1)}
}

func (r *fakeRunner) Name() string { return r.name }

func (r *fakeRunner) Start(ctx context.Context) {
	r.starts.Add(1)
	r.started <- struct{}{}
	<-ctx.Done()
}

func waitStarted(t *testing.T, r *fakeRunner) {
	t.Helper()
	select {
	case <-r.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("%s runner was not started", r.name)
	}
}

func runAsync(s *Supervisor, mode Mode) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(mode) }()
	return errCh
}

func TestNewFailsOnAuthProbe(t *testing.T) {
	ex := &fakeExchange{balanceErr: errors.New("401 unauthorized")}
	grid, trend := newFakeRunner("grid"), newFakeRunner("trend")

	s, err := New(context.Background(), ex, grid, trend, zerolog.Nop())
	if !errors.Is(err, ErrAuthProbeFailed) {
		t.Fatalf("expected ErrAuthProbeFailed, got %v", err)
	}
	if s != nil {
		t.Fatalf("expected no supervisor on failed probe")
	}
	if grid.starts.Load() != 0 || trend.starts.Load() != 0 {
		t.Fatalf("no loop may start without a successful probe")
	}
}

func TestRunBothConcurrently(t *testing.T) {
	ex := &fakeExchange{}
	grid, trend := newFakeRunner("grid"), newFakeRunner("trend")
	s, err := New(context.Background(), ex, grid, trend, zerolog.Nop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if ex.probes.Load() != 1 {
		t.Fatalf("expected a single auth probe, got %d", ex.probes.Load())
	}

	errCh := runAsync(s, ModeBoth)
	waitStarted(t, grid)
	waitStarted(t, trend)
	if !s.Running() {
		t.Fatalf("expected supervisor to be running")
	}

	s.Stop()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after Stop")
	}
	if s.Running() {
		t.Fatalf("expected supervisor to be stopped")
	}
}

func TestRunSingleMode(t *testing.T) {
	tests := []struct {
		mode    Mode
		started string
	}{
		{ModeGrid, "grid"},
		{ModeTrend, "trend"},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			grid, trend := newFakeRunner("grid"), newFakeRunner("trend")
			s, err := New(context.Background(), &fakeExchange{}, grid, trend, zerolog.Nop())
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			errCh := runAsync(s, tt.mode)
			want, other := grid, trend
			if tt.started == "trend" {
				want, other = trend, grid
			}
			waitStarted(t, want)
			s.Stop()
			if err := <-errCh; err != nil {
				t.Fatalf("Run returned error: %v", err)
			}
			if other.starts.Load() != 0 {
				t.Fatalf("%s runner must not start in %s mode", other.name, tt.mode)
			}
		})
	}
}

func TestRunAfterStop(t *testing.T) {
	s, err := New(context.Background(), &fakeExchange{}, newFakeRunner("grid"), newFakeRunner("trend"), zerolog.Nop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	s.Stop()
	s.Stop()
	if err := s.Run(ModeGrid); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"grid": ModeGrid, " Trend ": ModeTrend, "BOTH": ModeBoth} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("scalp"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}
