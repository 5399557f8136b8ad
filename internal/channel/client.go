package channel

import (
	"context"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/fresque-dev/fresque/internal/logging"
	"github.com/fresque-dev/fresque/pkg/schema"
)

// Intent is one outbound message on the event channel.
type Intent struct {
	Intent string         `json:"intent"`
	Data   map[string]any `json:"data,omitempty"`
}

// Client is the explicit lifecycle object of one channel connection. Dial
// opens the socket and starts the read loop; Close tears both down. The
// client never reconnects on its own; the owner dials again after observing
// a disconnect.
type Client struct {
	url    string
	hub    *Hub
	logger *slog.Logger

	// onState observes transport transitions: true on successful dial,
	// false when the read loop ends for any reason.
	onState func(connected bool)

	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{}
}

// NewClient builds a client for the given endpoint, publishing inbound
// events to hub. onState is optional.
func NewClient(url string, hub *Hub, onState func(connected bool), logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{url: url, hub: hub, onState: onState, logger: logger}
}

// Dial opens the connection and starts the read loop. Dialing an already
// connected client is a channel error.
func (c *Client) Dial(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return schema.NewError(schema.ErrCodeChannel, "already connected")
	}

	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeChannel, "dial %s: %s", c.url, err.Error()).WithCause(err)
	}

	c.conn = conn
	c.done = make(chan struct{})
	go c.readLoop(conn, c.done)

	if c.onState != nil {
		c.onState(true)
	}
	return nil
}

// Close closes the connection and waits for the read loop to stop. Closing
// a disconnected client is a no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	conn, done := c.conn, c.done
	c.conn, c.done = nil, nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	err := conn.Close(websocket.StatusNormalClosure, "client closing")
	<-done
	return err
}

// readLoop publishes inbound events until the connection drops.
func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	ctx := context.Background()
	for {
		var event Event
		if err := wsjson.Read(ctx, conn, &event); err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				c.logger.Info("channel closed", slog.Int("status", int(status)))
			} else {
				c.logger.Warn("channel read failed", slog.String("error", err.Error()))
			}
			break
		}
		if err := c.hub.Publish(ctx, event); err != nil {
			break
		}
	}

	c.mu.Lock()
	if c.conn == conn {
		c.conn, c.done = nil, nil
	}
	c.mu.Unlock()

	if c.onState != nil {
		c.onState(false)
	}
}

// send writes one intent. Sending while disconnected is a channel error;
// intents are not queued.
func (c *Client) send(ctx context.Context, intent Intent) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return schema.NewErrorf(schema.ErrCodeChannel, "not connected, dropping intent %q", intent.Intent)
	}
	if err := wsjson.Write(ctx, conn, intent); err != nil {
		return schema.NewErrorf(schema.ErrCodeChannel, "send %q: %s", intent.Intent, err.Error()).WithCause(err)
	}
	return nil
}

// SubscribeGraph asks the platform to start pushing status events for one
// graph.
func (c *Client) SubscribeGraph(ctx context.Context, graphID string) error {
	ctx = logging.WithGraphID(ctx, graphID)
	return c.send(ctx, Intent{Intent: schema.IntentSubscribeDAG, Data: map[string]any{"dag": graphID}})
}

// UnsubscribeGraph stops status pushes for one graph.
func (c *Client) UnsubscribeGraph(ctx context.Context, graphID string) error {
	ctx = logging.WithGraphID(ctx, graphID)
	return c.send(ctx, Intent{Intent: schema.IntentUnsubscribeDAG, Data: map[string]any{"dag": graphID}})
}

// AcquireLock requests an edit lock. The answer arrives as a lock_state
// event; denial flips the view read-only and is never an error.
func (c *Client) AcquireLock(ctx context.Context, lockID string) error {
	return c.send(ctx, Intent{Intent: schema.IntentAcquireLock, Data: map[string]any{"lockId": lockID}})
}

// ReleaseLock gives an edit lock back.
func (c *Client) ReleaseLock(ctx context.Context, lockID string) error {
	return c.send(ctx, Intent{Intent: schema.IntentReleaseLock, Data: map[string]any{"lockId": lockID}})
}

// EnterChat joins a chat room.
func (c *Client) EnterChat(ctx context.Context, room string) error {
	return c.send(ctx, Intent{Intent: schema.IntentEnterChat, Data: map[string]any{"room": room}})
}

// LeaveChat leaves a chat room.
func (c *Client) LeaveChat(ctx context.Context, room string) error {
	return c.send(ctx, Intent{Intent: schema.IntentLeaveChat, Data: map[string]any{"room": room}})
}

// SendChat posts a message to a chat room.
func (c *Client) SendChat(ctx context.Context, room, content string) error {
	return c.send(ctx, Intent{Intent: schema.IntentChatMessage,
		Data: map[string]any{"room": room, "content": content}})
}

// SubscribeRunningCount starts running-job counter pushes.
func (c *Client) SubscribeRunningCount(ctx context.Context) error {
	return c.send(ctx, Intent{Intent: schema.IntentSubscribeRunning})
}

// UnsubscribeRunningCount stops running-job counter pushes.
func (c *Client) UnsubscribeRunningCount(ctx context.Context) error {
	return c.send(ctx, Intent{Intent: schema.IntentUnsubRunning})
}
