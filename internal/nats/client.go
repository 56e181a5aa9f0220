package nats

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/smazurov/kiosk/internal/events"
)

const flushTimeout = 2 * time.Second

// Client publishes run events for one kiosk node and receives control
// commands. Gracefully degrades when NATS is unavailable.
type Client struct {
	url    string
	node   string
	conn   *nats.Conn
	sub    *nats.Subscription
	logger *slog.Logger
	mu     sync.RWMutex
	onStop func(reason string)

	connected bool
}

// NewClient creates a client for node. The node name is made subject safe.
func NewClient(url, node string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	node = NodeToken(node)
	return &Client{
		url:    url,
		node:   node,
		logger: logger.With("component", "nats-client", "node", node),
	}
}

// Node returns the subject token of this client.
func (c *Client) Node() string {
	return c.node
}

// Connect establishes a connection to the NATS server.
// The client stays usable as a no-op when this fails.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	opts := []nats.Option{
		nats.Name("javakiosk-" + c.node),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			c.mu.Lock()
			c.connected = false
			c.mu.Unlock()
			if err != nil {
				c.logger.Warn("NATS disconnected", "error", err)
			} else {
				c.logger.Debug("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			c.mu.Lock()
			c.connected = true
			c.mu.Unlock()
			c.logger.Info("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(c.url, opts...)
	if err != nil {
		c.logger.Warn("Failed to connect to NATS, running in offline mode", "error", err)
		return err
	}

	c.conn = conn
	c.connected = true
	c.logger.Info("Connected to NATS", "url", c.url)

	c.subscribeControlLocked()
	return nil
}

// subscribeControlLocked subscribes to control commands (must hold lock).
func (c *Client) subscribeControlLocked() {
	if c.conn == nil {
		return
	}

	sub, err := c.conn.Subscribe(SubjectControl(c.node), c.handleControl)
	if err != nil {
		c.logger.Warn("Failed to subscribe to control commands", "error", err)
		return
	}
	// Make sure the server knows about the subscription before returning
	if err := c.conn.FlushTimeout(flushTimeout); err != nil {
		c.logger.Debug("Control subscription flush failed", "error", err)
	}
	c.sub = sub
}

func (c *Client) handleControl(msg *nats.Msg) {
	ctrl, err := UnmarshalControl(msg.Data)
	if err != nil {
		c.logger.Warn("Failed to unmarshal control message", "error", err)
		return
	}

	c.logger.Info("Received control command", "action", ctrl.Action, "reason", ctrl.Reason)

	switch ctrl.Action {
	case ActionStop:
		c.mu.RLock()
		onStop := c.onStop
		c.mu.RUnlock()
		if onStop != nil {
			onStop(ctrl.Reason)
		}
	default:
		c.logger.Warn("Ignoring unknown control action", "action", ctrl.Action)
	}
}

// OnStop sets the callback for stop commands.
func (c *Client) OnStop(fn func(reason string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStop = fn
}

// Publish sends v as JSON on kiosk.<node>.<kind>.
// No-op if not connected.
func (c *Client) Publish(kind string, v any) {
	c.mu.RLock()
	conn := c.conn
	connected := c.connected
	c.mu.RUnlock()

	if conn == nil || !connected {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to marshal message", "kind", kind, "error", err)
		return
	}

	if err := conn.Publish(Subject(c.node, kind), data); err != nil {
		c.logger.Warn("Failed to publish", "kind", kind, "error", err)
	}
}

// Bridge forwards run events from bus to NATS until the returned function is called.
func (c *Client) Bridge(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.StateChangedEvent) { c.Publish("state", e) }),
		bus.Subscribe(func(e events.StepFinishedEvent) { c.Publish("steps", e) }),
		bus.Subscribe(func(e events.SignalSentEvent) { c.Publish("signals", e) }),
		bus.Subscribe(func(e events.CancelRequestedEvent) { c.Publish("cancel", e) }),
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, unsub := range unsubs {
				unsub()
			}
		})
	}
}

// IsConnected returns true if connected to NATS.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.conn != nil
}

// Close flushes pending messages and closes the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sub != nil {
		_ = c.sub.Unsubscribe()
		c.sub = nil
	}

	if c.conn != nil {
		if err := c.conn.FlushTimeout(flushTimeout); err != nil {
			c.logger.Debug("Flush before close failed", "error", err)
		}
		c.conn.Close()
		c.conn = nil
	}

	c.connected = false
	c.logger.Debug("NATS client closed")
}
