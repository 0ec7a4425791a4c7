package strategy

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"okx-trader/internal/exchange"
)

type mockExchange struct {
	mu         sync.Mutex
	calls      []string
	prices     []decimal.Decimal
	priceErrs  []error
	candles    []exchange.Candle
	cancelErr  error
	placeErr   error
	orders     []*exchange.OrderIntent
	priceCalls int
}

func (e *mockExchange) record(call string) {
	e.calls = append(e.calls, call)
}

func (e *mockExchange) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

func (e *mockExchange) Orders() []*exchange.OrderIntent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*exchange.OrderIntent(nil), e.orders...)
}

func (e *mockExchange) Balance(ctx context.Context) (*exchange.Balance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("balance")
	return &exchange.Balance{}, nil
}

func (e *mockExchange) LastPrice(ctx context.Context, instID string) (decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("price")
	n := e.priceCalls
	e.priceCalls++
	if n < len(e.priceErrs) && e.priceErrs[n] != nil {
		return decimal.Zero, e.priceErrs[n]
	}
	if len(e.prices) == 0 {
		return decimal.NewFromInt(100), nil
	}
	if n >= len(e.prices) {
		n = len(e.prices) - 1
	}
	return e.prices[n], nil
}

func (e *mockExchange) Candles(ctx context.Context, instID, bar string, limit int) ([]exchange.Candle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record(fmt.Sprintf("candles %s %s %d", instID, bar, limit))
	return e.candles, nil
}

func (e *mockExchange) CancelAllOrders(ctx context.Context, instID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("cancel " + instID)
	return e.cancelErr
}

func (e *mockExchange) PlaceOrder(ctx context.Context, order *exchange.OrderIntent) (*exchange.OrderResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("order " + order.Side)
	if e.placeErr != nil {
		return nil, e.placeErr
	}
	e.orders = append(e.orders, order)
	return &exchange.OrderResponse{OrderID: fmt.Sprintf("%d", len(e.orders)), Code: "0"}, nil
}

func candlesFromCloses(closes ...float64) []exchange.Candle {
	out := make([]exchange.Candle, len(closes))
	for i, c := range closes {
		out[i] = exchange.Candle{Close: decimal.NewFromFloat(c)}
	}
	return out
}
