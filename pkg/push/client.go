package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gamefold/gamefold-go/pkg/log"
	"github.com/gamefold/gamefold-go/pkg/subscriptions"
	"github.com/gorilla/websocket"
)

const (
	initialReconnectWait = time.Second
	maxReconnectWait     = 30 * time.Second
)

// Handler is invoked with the raw payload of an inbound push message.
type Handler func(payload json.RawMessage)

// Client maintains the persistent push channel to the backend. Inbound
// messages are dispatched by event name to registered handlers on the
// read-loop goroutine, in arrival order. Outbound sends are fire-and-forget.
type Client struct {
	url    string
	apiKey string
	dialer *websocket.Dialer

	lock       sync.Mutex
	conn       *websocket.Conn
	writeLock  sync.Mutex
	connecting chan struct{}
	connectErr error
	closed     bool
	room       string

	handlersLock sync.Mutex
	handlers     map[string]*subscriptions.Registry[json.RawMessage]
}

type NewClientOptions struct {
	// URL is the websocket endpoint, e.g. wss://host/push.
	URL    string
	APIKey string
	Dialer *websocket.Dialer
}

// NewClient creates a new push channel client. The channel is not opened
// until Connect is called.
func NewClient(opts NewClientOptions) *Client {
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &Client{
		url:      opts.URL,
		apiKey:   opts.APIKey,
		dialer:   dialer,
		handlers: make(map[string]*subscriptions.Registry[json.RawMessage]),
	}
}

// Connect establishes the push channel. Concurrent calls while a dial is
// in flight wait for that dial instead of opening duplicate channels.
// Connecting an already connected client is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.lock.Lock()
	if c.conn != nil {
		c.lock.Unlock()
		return nil
	}
	if c.connecting != nil {
		// coalesce into the in-flight attempt
		connecting := c.connecting
		c.lock.Unlock()
		select {
		case <-connecting:
		case <-ctx.Done():
			return &ConnectionError{Err: ctx.Err()}
		}
		c.lock.Lock()
		defer c.lock.Unlock()
		return c.connectErr
	}
	connecting := make(chan struct{})
	c.connecting = connecting
	c.closed = false
	c.lock.Unlock()

	err := c.dial(ctx)

	c.lock.Lock()
	c.connectErr = err
	c.connecting = nil
	close(connecting)
	c.lock.Unlock()

	return err
}

func (c *Client) dial(ctx context.Context) error {
	log.Info("Connecting to push channel at %s", c.url)
	header := http.Header{}
	if c.apiKey != "" {
		header.Set("Authorization", "Bearer "+c.apiKey)
	}
	conn, _, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return &ConnectionError{Err: fmt.Errorf("failed to dial %s: %v", c.url, err)}
	}

	c.lock.Lock()
	if c.closed {
		// Disconnect won the race while the dial was in flight
		c.lock.Unlock()
		conn.Close()
		log.Debug("Discarding push channel dialed after Disconnect")
		return nil
	}
	c.conn = conn
	room := c.room
	c.lock.Unlock()

	go c.readLoop(conn)

	// re-subscribe to the active room after a reconnect
	if room != "" {
		c.sendMessage(eventRoomJoin, roomPayload{SessionID: room})
	}

	return nil
}

// Disconnect closes the push channel intentionally and suppresses any
// pending reconnection attempt.
func (c *Client) Disconnect() {
	c.lock.Lock()
	c.closed = true
	c.room = ""
	conn := c.conn
	c.conn = nil
	c.lock.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// IsConnected reports whether the channel is currently open.
func (c *Client) IsConnected() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.conn != nil
}

// JoinRoom subscribes the channel to a session's room. The room is
// re-joined automatically after a reconnect.
func (c *Client) JoinRoom(sessionID string) {
	c.lock.Lock()
	c.room = sessionID
	c.lock.Unlock()
	c.sendMessage(eventRoomJoin, roomPayload{SessionID: sessionID})
}

// LeaveRoom unsubscribes the channel from its current room.
func (c *Client) LeaveRoom() {
	c.lock.Lock()
	room := c.room
	c.room = ""
	c.lock.Unlock()
	if room == "" {
		return
	}
	c.sendMessage(eventRoomLeave, roomPayload{SessionID: room})
}

// Send sends a fire-and-forget message. If the channel is not open the
// message is dropped at the transport layer.
func (c *Client) Send(event string, payload interface{}) {
	c.sendMessage(event, payload)
}

func (c *Client) sendMessage(event string, payload interface{}) {
	c.lock.Lock()
	conn := c.conn
	c.lock.Unlock()
	if conn == nil {
		log.Debug("Push channel not open, dropping %s message", event)
		return
	}

	msg := &Message{Event: event}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			log.Error("Failed to marshal %s push message: %v", event, err)
			return
		}
		msg.Payload = b
	}
	b, err := json.Marshal(msg)
	if err != nil {
		log.Error("Failed to marshal push message: %v", err)
		return
	}

	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Debug("Failed to write %s message to push channel: %v", event, err)
	}
}

// On registers a handler for inbound messages with the given event name.
// Multiple handlers per event are invoked in registration order.
func (c *Client) On(event string, handler Handler) subscriptions.UnregisterFunc {
	c.handlersLock.Lock()
	registry, ok := c.handlers[event]
	if !ok {
		registry = subscriptions.NewRegistry[json.RawMessage]()
		c.handlers[event] = registry
	}
	c.handlersLock.Unlock()
	return registry.Register(subscriptions.Handler[json.RawMessage](handler))
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("Error reading push channel message: %v", err)
			}
			c.handleDisconnect(conn)
			return
		}

		msg := &Message{}
		if err := json.Unmarshal(b, msg); err != nil {
			log.Error("Failed to unmarshal push channel message: %v", err)
			continue
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg *Message) {
	log.Trace("Received push message %s", msg.Event)
	c.handlersLock.Lock()
	registry := c.handlers[msg.Event]
	c.handlersLock.Unlock()
	if registry == nil {
		log.Debug("No handlers for push event %s", msg.Event)
		return
	}
	registry.NotifyAll(msg.Payload)
}

func (c *Client) handleDisconnect(conn *websocket.Conn) {
	conn.Close()

	c.lock.Lock()
	if c.conn != conn {
		// a newer connection has already replaced this one
		c.lock.Unlock()
		return
	}
	c.conn = nil
	closed := c.closed
	c.lock.Unlock()

	if closed {
		log.Debug("Push channel closed by client")
		return
	}

	log.Warn("Push channel closed unexpectedly, reconnecting")
	go c.reconnectLoop()
}

func (c *Client) reconnectLoop() {
	wait := initialReconnectWait
	for {
		time.Sleep(wait)

		c.lock.Lock()
		if c.closed || c.conn != nil {
			c.lock.Unlock()
			return
		}
		c.lock.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), maxReconnectWait)
		err := c.dial(ctx)
		cancel()
		if err == nil {
			log.Info("Push channel reconnected")
			return
		}

		log.Warn("Push channel reconnect failed: %v", err)
		wait *= 2
		if wait > maxReconnectWait {
			wait = maxReconnectWait
		}
	}
}
