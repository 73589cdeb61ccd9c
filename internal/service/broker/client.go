// Package broker implements the market gateway clients: the WebSocket
// quote stream and the REST candle endpoint.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"IntraScan/internal/domain/models"
	drepo "IntraScan/internal/domain/repository"
	"IntraScan/pkg/logger"

	"github.com/gorilla/websocket"
)

// Client implements a MarketStream over the broker's WebSocket feed.
// Subscriptions are always issued wholesale: every Subscribe call replaces
// the previous token set on the broker side.
type Client struct {
	wsURL          string
	apiKey         string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool

	// last subscription, replayed on reconnect
	lastTokens []string
	lastMode   models.SubscribeMode
	lastDepth  int
}

// NewClient creates a broker MarketStream.
func NewClient(wsURL, apiKey string, reconnectDelay, pingInterval time.Duration, log *logger.Logger) drepo.MarketStream {
	return &Client{
		wsURL:          wsURL,
		apiKey:         apiKey,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.wsURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("broker connect: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	c.log.Info("broker stream connected")
	return nil
}

type subscribeFrame struct {
	Type   string   `json:"type"`
	Tokens []string `json:"tokens"`
	Mode   string   `json:"mode"`
	Depth  int      `json:"depth,omitempty"`
}

// Subscribe replaces the active subscription with the given token set.
func (c *Client) Subscribe(ctx context.Context, tokens []string, mode models.SubscribeMode, depth int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || !c.connected {
		return fmt.Errorf("broker not connected")
	}
	frame := subscribeFrame{Type: "subscribe", Tokens: tokens, Mode: string(mode), Depth: depth}
	if err := c.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("broker subscribe: %w", err)
	}
	c.lastTokens = append([]string(nil), tokens...)
	c.lastMode = mode
	c.lastDepth = depth
	c.log.Info("broker subscription replaced",
		logger.Int("tokens", len(tokens)),
		logger.String("mode", string(mode)))
	return nil
}

type quoteFrame struct {
	Token  string   `json:"token"`
	LTP    float64  `json:"ltp"`
	Volume float64  `json:"vol"`
	OI     *float64 `json:"oi"`
	Open   *float64 `json:"o"`
	High   *float64 `json:"h"`
	Low    *float64 `json:"l"`
	Close  *float64 `json:"c"`
	Bid    *float64 `json:"bid"`
	Ask    *float64 `json:"ask"`
	BidQty *float64 `json:"bidQty"`
	AskQty *float64 `json:"askQty"`
	TS     int64    `json:"ts"`
}

type streamFrame struct {
	Type string       `json:"type"`
	Data []quoteFrame `json:"data"`
}

// Read streams ticks and errors. Malformed or non-quote frames are
// skipped; a transport error ends both channels.
func (c *Client) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	ticks := make(chan *models.Tick, 4096)
	errs := make(chan error, 1)

	go c.pingLoop(ctx)

	go func() {
		defer close(ticks)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()
			if conn == nil {
				errs <- fmt.Errorf("broker conn nil")
				return
			}
			_, b, err := conn.ReadMessage()
			if err != nil {
				errs <- fmt.Errorf("broker read: %w", err)
				return
			}
			var frame streamFrame
			if err := json.Unmarshal(b, &frame); err != nil {
				continue
			}
			if frame.Type != "quote" {
				continue
			}
			for _, q := range frame.Data {
				tick := &models.Tick{
					Token:     q.Token,
					LTP:       q.LTP,
					Volume:    q.Volume,
					OI:        q.OI,
					Open:      q.Open,
					High:      q.High,
					Low:       q.Low,
					Close:     q.Close,
					Bid:       q.Bid,
					Ask:       q.Ask,
					BidQty:    q.BidQty,
					AskQty:    q.AskQty,
					Timestamp: q.TS,
				}
				select {
				case ticks <- tick:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return ticks, errs
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()
			if conn != nil {
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}
}

// Reconnect closes, redials and replays the last subscription.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	tokens, mode, depth := c.lastTokens, c.lastMode, c.lastDepth
	c.mu.Unlock()
	if len(tokens) == 0 {
		return nil
	}
	return c.Subscribe(ctx, tokens, mode, depth)
}

// Close closes the WebSocket connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// IsConnected indicates transport status.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
