package exchange

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Exchange defines the venue operations the strategy loops and supervisor rely on
type Exchange interface {
	// Account
	Balance(ctx context.Context) (*Balance, error)

	// Market Data
	LastPrice(ctx context.Context, instID string) (decimal.Decimal, error)
	Candles(ctx context.Context, instID, bar string, limit int) ([]Candle, error)

	// Trading
	CancelAllOrders(ctx context.Context, instID string) error
	PlaceOrder(ctx context.Context, order *OrderIntent) (*OrderResponse, error)
}

const (
	SideBuy  = "buy"
	SideSell = "sell"

	OrderTypeLimit  = "limit"
	OrderTypeMarket = "market"

	TradeModeCash  = "cash"
	TradeModeCross = "cross"
)

type Balance struct {
	TotalEquity decimal.Decimal
	UpdatedAt   time.Time
}

type Candle struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// OrderIntent is sent verbatim as the order request body.
type OrderIntent struct {
	InstID    string       `json:"instId"`
	TradeMode string       `json:"tdMode"`
	Side      string       `json:"side"`
	OrderType string       `json:"ordType"`
	Price     string       `json:"px,omitempty"`
	Size      string       `json:"sz"`
	Leverage  string       `json:"lever,omitempty"`
	AlgoOrds  []AttachAlgo `json:"attachAlgoOrds,omitempty"`
}

// AttachAlgo carries the stop-loss / take-profit bracket attached to an order.
type AttachAlgo struct {
	TakeProfitTriggerPx string `json:"tpTriggerPx,omitempty"`
	TakeProfitOrdPx     string `json:"tpOrdPx,omitempty"`
	StopLossTriggerPx   string `json:"slTriggerPx,omitempty"`
	StopLossOrdPx       string `json:"slOrdPx,omitempty"`
}

type OrderResponse struct {
	OrderID string `json:"ordId"`
	Code    string `json:"sCode"`
	Msg     string `json:"sMsg"`
}
