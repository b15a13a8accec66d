package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"TrendPulse/pkg/logger"
)

// Client consumes a trade WebSocket feed and records last trades into an
// Overlay. It reconnects forever until the context is cancelled; the
// pipeline works without it, so stream errors never propagate.
type Client struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	overlay        *Overlay
	log            *logger.Logger

	conn *websocket.Conn
}

func NewClient(apiKey, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration, overlay *Overlay, log *logger.Logger) *Client {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		overlay:        overlay,
		log:            log,
	}
}

type wsTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	T int64   `json:"t"` // ms
}

type wsMessage struct {
	Type string    `json:"type"`
	Data []wsTrade `json:"data"`
}

// Run drives the connect/subscribe/read cycle until ctx is cancelled.
// Intended to run on its own goroutine.
func (c *Client) Run(ctx context.Context) {
	for {
		if err := c.connect(ctx); err != nil {
			c.log.Warn("stream connect failed", logger.Error(err))
		} else {
			c.readLoop(ctx)
		}

		select {
		case <-ctx.Done():
			c.Close()
			return
		case <-time.After(c.reconnectDelay):
		}
	}
}

func (c *Client) connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("stream connect: %w", err)
	}
	c.conn = conn

	for _, s := range c.symbols {
		msg := map[string]string{"type": "subscribe", "symbol": s}
		if err := conn.WriteJSON(msg); err != nil {
			conn.Close()
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
	}
	c.log.Info("stream connected", logger.Int("symbols", len(c.symbols)))
	return nil
}

func (c *Client) readLoop(ctx context.Context) {
	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()
	go c.pingLoop(pingCtx)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, b, err := c.conn.ReadMessage()
		if err != nil {
			c.log.Warn("stream read failed", logger.Error(err))
			return
		}

		var m wsMessage
		if err := json.Unmarshal(b, &m); err != nil || m.Type != "trade" {
			// ignore non-trade frames
			continue
		}
		for _, d := range m.Data {
			c.overlay.Record(normalizeSymbol(d.S), d.P, time.UnixMilli(d.T))
		}
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.conn != nil {
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}
}

// Close closes the current connection, if any.
func (c *Client) Close() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// normalizeSymbol strips exchange decorations from streamed symbols so they
// match the bare universe symbols, e.g. "NSE:TCS" and "TCS.NS" become "TCS".
func normalizeSymbol(s string) string {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	return s
}
