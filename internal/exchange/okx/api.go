package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"okx-trader/internal/exchange"
	"okx-trader/internal/metrics"
)

type balanceData struct {
	TotalEq string `json:"totalEq"`
	UTime   string `json:"uTime"`
}

type tickerData struct {
	InstID string `json:"instId"`
	Last   string `json:"last"`
}

// decode unwraps the envelope into out, failing on a non-zero code.
func (r *Response) decode(out any) error {
	if r.Code != "0" {
		return &APIError{Code: r.Code, Msg: r.Msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(r.Data, out); err != nil {
		return fmt.Errorf("okx: couldn't decode data: %w", err)
	}
	return nil
}

func (c *Client) Balance(ctx context.Context) (*exchange.Balance, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/account/balance", nil)
	if err != nil {
		return nil, err
	}
	var data []balanceData
	if err := resp.decode(&data); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("okx: no balance data returned")
	}
	bal := &exchange.Balance{}
	if data[0].TotalEq != "" {
		if bal.TotalEquity, err = decimal.NewFromString(data[0].TotalEq); err != nil {
			return nil, fmt.Errorf("okx: couldn't parse total equity %q: %w", data[0].TotalEq, err)
		}
	}
	if ms, err := strconv.ParseInt(data[0].UTime, 10, 64); err == nil {
		bal.UpdatedAt = time.UnixMilli(ms).UTC()
	}
	return bal, nil
}

func (c *Client) LastPrice(ctx context.Context, instID string) (decimal.Decimal, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/market/ticker?instId="+url.QueryEscape(instID), nil)
	if err != nil {
		return decimal.Zero, err
	}
	var data []tickerData
	if err := resp.decode(&data); err != nil {
		return decimal.Zero, err
	}
	if len(data) == 0 {
		return decimal.Zero, fmt.Errorf("okx: no ticker data returned for %s", instID)
	}
	price, err := decimal.NewFromString(data[0].Last)
	if err != nil {
		return decimal.Zero, fmt.Errorf("okx: couldn't parse last price %q: %w", data[0].Last, err)
	}
	return price, nil
}

// Candles returns candles oldest first. OKX answers newest first.
func (c *Client) Candles(ctx context.Context, instID, bar string, limit int) ([]exchange.Candle, error) {
	endpoint := fmt.Sprintf("/market/candles?instId=%s&bar=%s&limit=%d", url.QueryEscape(instID), url.QueryEscape(bar), limit)
	resp, err := c.Do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	if err := resp.decode(&rows); err != nil {
		return nil, err
	}
	candles := make([]exchange.Candle, 0, len(rows))
	for _, row := range rows {
		candle, err := parseCandle(row)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}
	slices.Reverse(candles)
	return candles, nil
}

// parseCandle reads [ts, o, h, l, c, vol, ...].
func parseCandle(row []string) (exchange.Candle, error) {
	if len(row) < 6 {
		return exchange.Candle{}, fmt.Errorf("okx: malformed candle %v", row)
	}
	ms, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return exchange.Candle{}, fmt.Errorf("okx: couldn't parse candle time %q: %w", row[0], err)
	}
	var vals [5]decimal.Decimal
	for i := range vals {
		if vals[i], err = decimal.NewFromString(row[i+1]); err != nil {
			return exchange.Candle{}, fmt.Errorf("okx: couldn't parse candle field %q: %w", row[i+1], err)
		}
	}
	return exchange.Candle{
		Time:   time.UnixMilli(ms).UTC(),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

func (c *Client) CancelAllOrders(ctx context.Context, instID string) error {
	resp, err := c.Do(ctx, http.MethodPost, "/trade/cancel-all-orders", map[string]string{"instId": instID})
	if err != nil {
		return err
	}
	return resp.decode(nil)
}

func (c *Client) PlaceOrder(ctx context.Context, order *exchange.OrderIntent) (*exchange.OrderResponse, error) {
	resp, err := c.Do(ctx, http.MethodPost, "/trade/order", order)
	if err != nil {
		return nil, err
	}
	var data []exchange.OrderResponse
	if err := resp.decode(&data); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("okx: no order data returned")
	}
	if data[0].Code != "" && data[0].Code != "0" {
		return nil, &APIError{Code: data[0].Code, Msg: data[0].Msg}
	}
	metrics.OrdersTotal.WithLabelValues(order.InstID, order.Side).Inc()
	return &data[0], nil
}
