package infra

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// FeedHandler processes frames from a feed subscription.
type FeedHandler interface {
	// GetURL returns the websocket endpoint to subscribe to.
	GetURL() string

	// OnConnect is called after each successful (re)connection.
	OnConnect(ctx context.Context) error

	// OnMessage is called for every received frame.
	OnMessage(message []byte) error

	// ID identifies the subscription in logs.
	ID() string
}

// FeedClient maintains a websocket subscription with automatic reconnect.
// Dropped connections are re-dialed with exponential backoff.
type FeedClient struct {
	handler FeedHandler
	logger  *slog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
}

// NewFeedClient creates a client for the given handler.
func NewFeedClient(handler FeedHandler, logger *slog.Logger) *FeedClient {
	return &FeedClient{
		handler: handler,
		logger:  logger,
	}
}

// Start launches the connection loop in a background goroutine.
func (c *FeedClient) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.runLoop(ctx)
}

// Stop closes the connection and waits for the loop to exit.
func (c *FeedClient) Stop() {
	if c.cancel != nil {
		c.cancel()
	}

	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.mu.Unlock()

	if c.done != nil {
		<-c.done
	}
}

// runLoop dials, reads until failure, then backs off and re-dials.
func (c *FeedClient) runLoop(ctx context.Context) {
	defer close(c.done)

	retryCount := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := c.connect(ctx); err != nil {
			delay := CalculateBackoff(retryCount)
			c.logger.Warn("feed connection failed",
				"id", c.handler.ID(),
				"retry", retryCount,
				"backoff", delay.String(),
				"error", err)
			retryCount++

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}

		retryCount = 0

		if err := c.readLoop(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("feed connection lost",
				"id", c.handler.ID(),
				"error", err)
		}
	}
}

func (c *FeedClient) connect(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.handler.GetURL(), nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.logger.Info("feed connected", "id", c.handler.ID())

	if err := c.handler.OnConnect(ctx); err != nil {
		conn.Close()
		return err
	}

	return nil
}

func (c *FeedClient) readLoop(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})
	conn.SetReadDeadline(time.Now().Add(90 * time.Second))

	defer conn.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(90 * time.Second))

		if err := c.handler.OnMessage(message); err != nil {
			c.logger.Warn("feed message handler failed",
				"id", c.handler.ID(),
				"error", err)
		}
	}
}

// Send writes a frame to the server. Safe for concurrent use.
func (c *FeedClient) Send(message []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, message)
}
