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
	GridOrderSize = "100"

	defaultGridInterval   = 60 * time.Second
	defaultGridRetryDelay = 30 * time.Second
)

var gridStep = decimal.NewFromFloat(0.01)

type GridLevels struct {
	Size decimal.Decimal
	Buy  decimal.Decimal
	Sell decimal.Decimal
}

// ComputeGrid places one level 1% below and one 1% above price, rounded to 4 places.
func ComputeGrid(price decimal.Decimal) GridLevels {
	size := price.Mul(gridStep).Round(4)
	return GridLevels{
		Size: size,
		Buy:  price.Sub(size).Round(4),
		Sell: price.Add(size).Round(4),
	}
}

type GridStrategy struct {
	cfg        config.GridConfig
	exchange   exchange.Exchange
	log        zerolog.Logger
	interval   time.Duration
	retryDelay time.Duration
}

func NewGridStrategy(cfg config.GridConfig, ex exchange.Exchange, log zerolog.Logger) *GridStrategy {
	return &GridStrategy{
		cfg:        cfg,
		exchange:   ex,
		log:        log.With().Str("strategy", "grid").Str("inst_id", cfg.Symbol).Logger(),
		interval:   seconds(cfg.IntervalSec, defaultGridInterval),
		retryDelay: seconds(cfg.RetryDelaySec, defaultGridRetryDelay),
	}
}

func (s *GridStrategy) Name() string { return "grid" }

func (s *GridStrategy) Start(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Msg("starting grid strategy")
	loop(ctx, s.log, s.Name(), s.interval, s.retryDelay, s.iterate)
	s.log.Info().Msg("grid strategy stopped")
}

// iterate refreshes the grid. Any failure aborts the remaining steps.
func (s *GridStrategy) iterate(ctx context.Context) error {
	price, err := s.exchange.LastPrice(ctx, s.cfg.Symbol)
	if err != nil {
		return fmt.Errorf("grid: couldn't get price: %w", err)
	}
	levels := ComputeGrid(price)
	s.log.Info().
		Stringer("price", price).
		Stringer("buy", levels.Buy).
		Stringer("sell", levels.Sell).
		Msg("grid levels")

	if err := s.exchange.CancelAllOrders(ctx, s.cfg.Symbol); err != nil {
		return fmt.Errorf("grid: couldn't cancel open orders: %w", err)
	}

	for _, order := range []*exchange.OrderIntent{
		s.limitOrder(exchange.SideBuy, levels.Buy),
		s.limitOrder(exchange.SideSell, levels.Sell),
	} {
		res, err := s.exchange.PlaceOrder(ctx, order)
		if err != nil {
			return fmt.Errorf("grid: couldn't place %s at %s: %w", order.Side, order.Price, err)
		}
		s.log.Info().Str("side", order.Side).Str("px", order.Price).Str("ord_id", res.OrderID).Msg("placed grid order")
	}
	return nil
}

func (s *GridStrategy) limitOrder(side string, price decimal.Decimal) *exchange.OrderIntent {
	return &exchange.OrderIntent{
		InstID:    s.cfg.Symbol,
		TradeMode: exchange.TradeModeCash,
		Side:      side,
		OrderType: exchange.OrderTypeLimit,
		Price:     price.String(),
		Size:      GridOrderSize,
	}
}
