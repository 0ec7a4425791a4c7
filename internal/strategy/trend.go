package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"okx-trader/internal/config"
	"okx-trader/internal/exchange"
)

const (
	TrendOrderSize = "1"
	TrendBar       = "15m"
	TrendCandles   = 50

	fastPeriod = 5
	slowPeriod = 20

	defaultTrendInterval   = 300 * time.Second
	defaultTrendRetryDelay = 60 * time.Second
)

var (
	stopLossPct   = decimal.NewFromFloat(0.02)
	takeProfitPct = decimal.NewFromFloat(0.04)
	one           = decimal.NewFromInt(1)
)

type TrendSignal struct {
	Side   string // "" when there is no clear trend
	Latest decimal.Decimal
	Fast   decimal.Decimal
	Slow   decimal.Decimal
}

// SMA averages the last period values.
func SMA(values []decimal.Decimal, period int) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range values[len(values)-period:] {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(period)))
}

// Evaluate compares the latest close with the 5 and 20 period averages.
// closes must be oldest first.
func Evaluate(closes []decimal.Decimal) (TrendSignal, error) {
	if len(closes) < slowPeriod {
		return TrendSignal{}, fmt.Errorf("trend: need %d closes, got %d", slowPeriod, len(closes))
	}
	sig := TrendSignal{
		Latest: closes[len(closes)-1],
		Fast:   SMA(closes, fastPeriod),
		Slow:   SMA(closes, slowPeriod),
	}
	switch {
	case sig.Latest.GreaterThan(sig.Fast) && sig.Fast.GreaterThan(sig.Slow):
		sig.Side = exchange.SideBuy
	case sig.Latest.LessThan(sig.Fast) && sig.Fast.LessThan(sig.Slow):
		sig.Side = exchange.SideSell
	}
	return sig, nil
}

type TrendStrategy struct {
	cfg        config.TrendConfig
	exchange   exchange.Exchange
	log        zerolog.Logger
	interval   time.Duration
	retryDelay time.Duration
}

func NewTrendStrategy(cfg config.TrendConfig, ex exchange.Exchange, log zerolog.Logger) *TrendStrategy {
	return &TrendStrategy{
		cfg:        cfg,
		exchange:   ex,
		log:        log.With().Str("strategy", "trend").Str("inst_id", cfg.Symbol).Logger(),
		interval:   seconds(cfg.IntervalSec, defaultTrendInterval),
		retryDelay: seconds(cfg.RetryDelaySec, defaultTrendRetryDelay),
	}
}

func (s *TrendStrategy) Name() string { return "trend" }

func (s *TrendStrategy) Start(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Str("leverage", s.cfg.Leverage).Msg("starting trend strategy")
	loop(ctx, s.log, s.Name(), s.interval, s.retryDelay, s.iterate)
	s.log.Info().Msg("trend strategy stopped")
}

// iterate has no position memory: a persisting trend submits a new order every time.
func (s *TrendStrategy) iterate(ctx context.Context) error {
	candles, err := s.exchange.Candles(ctx, s.cfg.Symbol, TrendBar, TrendCandles)
	if err != nil {
		return fmt.Errorf("trend: couldn't get candles: %w", err)
	}
	closes := make([]decimal.Decimal, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	sig, err := Evaluate(closes)
	if err != nil {
		return err
	}
	log := s.log.With().Stringer("latest", sig.Latest).Stringer("ma5", sig.Fast).Stringer("ma20", sig.Slow).Logger()
	if sig.Side == "" {
		log.Info().Msg("no clear trend")
		return nil
	}

	order := s.marketOrder(sig.Side, sig.Latest)
	res, err := s.exchange.PlaceOrder(ctx, order)
	if err != nil {
		return fmt.Errorf("trend: couldn't place %s order: %w", sig.Side, err)
	}
	log.Info().Str("side", sig.Side).Str("ord_id", res.OrderID).Msg("placed trend order")
	return nil
}

func (s *TrendStrategy) marketOrder(side string, latest decimal.Decimal) *exchange.OrderIntent {
	tp := latest.Mul(one.Add(takeProfitPct))
	sl := latest.Mul(one.Sub(stopLossPct))
	if side == exchange.SideSell {
		tp = latest.Mul(one.Sub(takeProfitPct))
		sl = latest.Mul(one.Add(stopLossPct))
	}
	return &exchange.OrderIntent{
		InstID:    s.cfg.Symbol,
		TradeMode: exchange.TradeModeCross,
		Side:      side,
		OrderType: exchange.OrderTypeMarket,
		Size:      TrendOrderSize,
		Leverage:  s.cfg.Leverage,
		AlgoOrds: []exchange.AttachAlgo{{
			TakeProfitTriggerPx: tp.Round(4).String(),
			TakeProfitOrdPx:     "-1",
			StopLossTriggerPx:   sl.Round(4).String(),
			StopLossOrdPx:       "-1",
		}},
	}
}
