package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	DefaultPublicURL = "wss://ws.okx.com:8443/ws/v5/public"
	TickersChannel   = "tickers"

	pingInterval = 25 * time.Second
)

// OKXWSClient streams public market data from the OKX v5 WebSocket API
type OKXWSClient struct {
	url      string
	log      zerolog.Logger
	conn     *websocket.Conn
	mu       sync.RWMutex
	writeMu  sync.Mutex
	handlers map[string]func(Ticker)
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	err      error
}

type wsArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type wsRequest struct {
	Op   string  `json:"op"`
	Args []wsArg `json:"args"`
}

type wsMessage struct {
	Event string          `json:"event,omitempty"`
	Code  string          `json:"code,omitempty"`
	Msg   string          `json:"msg,omitempty"`
	Arg   wsArg           `json:"arg"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type Ticker struct {
	InstID string `json:"instId"`
	Last   string `json:"last"`
	BidPx  string `json:"bidPx"`
	AskPx  string `json:"askPx"`
	Vol24h string `json:"vol24h"`
	Ts     string `json:"ts"`
}

func NewOKXWSClient(url string, log zerolog.Logger) *OKXWSClient {
	if url == "" {
		url = DefaultPublicURL
	}
	return &OKXWSClient{
		url:      url,
		log:      log.With().Str("component", "okx-ws").Logger(),
		handlers: make(map[string]func(Ticker)),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (c *OKXWSClient) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to OKX WebSocket: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.log.Info().Str("url", c.url).Msg("websocket connected")

	go c.handleMessages()
	go c.handlePingPong()

	return nil
}

func handlerKey(channel, instID string) string {
	return channel + ":" + instID
}

// SubscribeTickers registers handler for every ticker push on instID.
func (c *OKXWSClient) SubscribeTickers(instID string, handler func(Ticker)) error {
	c.mu.Lock()
	c.handlers[handlerKey(TickersChannel, instID)] = handler
	c.mu.Unlock()

	return c.sendJSON(wsRequest{Op: "subscribe", Args: []wsArg{{Channel: TickersChannel, InstID: instID}}})
}

func (c *OKXWSClient) UnsubscribeTickers(instID string) error {
	c.mu.Lock()
	delete(c.handlers, handlerKey(TickersChannel, instID))
	c.mu.Unlock()

	return c.sendJSON(wsRequest{Op: "unsubscribe", Args: []wsArg{{Channel: TickersChannel, InstID: instID}}})
}

func (c *OKXWSClient) connection() (*websocket.Conn, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil {
		return nil, errors.New("websocket not connected")
	}
	return c.conn, nil
}

func (c *OKXWSClient) sendJSON(msg interface{}) error {
	conn, err := c.connection()
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

func (c *OKXWSClient) sendText(text string) error {
	conn, err := c.connection()
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// Done is closed when the read loop exits; Err then reports why.
func (c *OKXWSClient) Done() <-chan struct{} { return c.doneCh }

func (c *OKXWSClient) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

func (c *OKXWSClient) handleMessages() {
	defer close(c.doneCh)
	conn, err := c.connection()
	if err != nil {
		return
	}
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.stopCh:
			default:
				c.log.Warn().Err(err).Msg("websocket read failed")
				c.mu.Lock()
				c.err = err
				c.mu.Unlock()
			}
			return
		}
		if string(raw) == "pong" {
			continue
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Warn().Err(err).Msg("failed to decode websocket message")
			continue
		}

		switch msg.Event {
		case "subscribe", "unsubscribe":
			c.log.Info().Str("event", msg.Event).Str("channel", msg.Arg.Channel).Str("inst_id", msg.Arg.InstID).Msg("subscription updated")
		case "error":
			c.log.Error().Str("code", msg.Code).Str("msg", msg.Msg).Msg("websocket error event")
		case "":
			c.dispatch(msg)
		}
	}
}

func (c *OKXWSClient) dispatch(msg wsMessage) {
	if msg.Arg.Channel != TickersChannel || len(msg.Data) == 0 {
		return
	}
	c.mu.RLock()
	handler, ok := c.handlers[handlerKey(msg.Arg.Channel, msg.Arg.InstID)]
	c.mu.RUnlock()
	if !ok || handler == nil {
		return
	}

	var tickers []Ticker
	if err := json.Unmarshal(msg.Data, &tickers); err != nil {
		c.log.Warn().Err(err).Msg("failed to decode ticker payload")
		return
	}
	for _, t := range tickers {
		handler(t)
	}
}

// handlePingPong keeps the connection alive; OKX drops it after 30s of silence.
func (c *OKXWSClient) handlePingPong() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-c.doneCh:
			return
		case <-ticker.C:
			if err := c.sendText("ping"); err != nil {
				c.log.Warn().Err(err).Msg("websocket ping failed")
			}
		}
	}
}

func (c *OKXWSClient) Close() error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stopCh)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}
