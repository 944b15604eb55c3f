// Package messaging connects the service to an external WhatsApp
// bridge over a websocket link. The bridge pushes lifecycle events
// (QR code, authentication, readiness, disconnects) that the client
// republishes on the event bus, and accepts outbound send commands.
package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Blindtools/Api/internal/domain/eventbus"
	"github.com/Blindtools/Api/internal/domain/messaging/store"
	"github.com/Blindtools/Api/internal/platform/config"
	"github.com/Blindtools/Api/internal/platform/errors"
	"github.com/Blindtools/Api/internal/utils"

	evbus "github.com/asaskevich/EventBus"
	"github.com/gorilla/websocket"
)

const (
	defaultReconnectDelay = 5 * time.Second
	sendTimeout           = 30 * time.Second
	writeDeadline         = 10 * time.Second
	storeTimeout          = 5 * time.Second

	// credentialSessionID keys the single session this client manages.
	credentialSessionID = "default"
)

// frame is the wire format exchanged with the bridge. Inbound frames
// carry Event, outbound frames carry Action. ID correlates a command
// with its acknowledgement.
type frame struct {
	ID      int             `json:"id,omitempty"`
	Event   string          `json:"event,omitempty"`
	Action  string          `json:"action,omitempty"`
	To      string          `json:"to,omitempty"`
	Message string          `json:"message,omitempty"`
	Buttons []Button        `json:"buttons,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	OK      bool            `json:"ok,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Client maintains the bridge connection and translates its events.
type Client struct {
	cfg    *config.MessagingConfig
	logger *utils.Logger
	bus    evbus.Bus
	store  store.Store

	mu      sync.Mutex
	conn    *websocket.Conn
	nextID  int
	pending map[int]chan frame

	// writeMu serializes WriteJSON calls, the websocket allows a
	// single concurrent writer.
	writeMu sync.Mutex

	stopOnce sync.Once
	stop     chan struct{}
}

// NewClient builds a bridge client. The store may be nil, in which case
// credentials are not persisted and every restart needs a fresh QR scan.
func NewClient(cfg *config.MessagingConfig, bus evbus.Bus, st store.Store, logger *utils.Logger) *Client {
	return &Client{
		cfg:     cfg,
		logger:  logger,
		bus:     bus,
		store:   st,
		nextID:  1,
		pending: make(map[int]chan frame),
		stop:    make(chan struct{}),
	}
}

// Start dials the bridge and keeps the connection alive until the
// context is canceled, reconnecting with a fixed delay after failures.
func (c *Client) Start(ctx context.Context) error {
	const op = "messaging.Start"

	if c.cfg.GatewayURL == "" {
		return errors.New(errors.KindConfig, op, "messaging gateway URL not configured")
	}
	delay := c.cfg.ReconnectDelay.Std()
	if delay <= 0 {
		delay = defaultReconnectDelay
	}

	go func() {
		for {
			if err := c.runOnce(ctx); err != nil {
				c.logger.WarnTag("WA", "gateway connection lost: %v", err)
				c.bus.Publish(eventbus.TopicDisconnected, err.Error())
			}
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-time.After(delay):
			}
		}
	}()
	return nil
}

// Stop closes the connection and halts reconnection attempts.
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()
}

func (c *Client) runOnce(ctx context.Context) error {
	const op = "messaging.runOnce"

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.cfg.GatewayURL, nil)
	if err != nil {
		return errors.Wrap(errors.KindTransport, op, "failed to dial messaging gateway", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.logger.InfoTag("WA", "connected to gateway %s", c.cfg.GatewayURL)

	if c.store != nil {
		c.restoreSession(ctx, conn)
	}

	defer func() {
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		conn.Close()
		c.failPending()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.stop:
			return nil
		default:
		}

		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			return errors.Wrap(errors.KindTransport, op, "gateway read failed", err)
		}
		c.dispatch(f)
	}
}

func (c *Client) dispatch(f frame) {
	if f.ID != 0 && f.Event == "" {
		c.mu.Lock()
		ch, ok := c.pending[f.ID]
		if ok {
			delete(c.pending, f.ID)
		}
		c.mu.Unlock()
		if ok {
			ch <- f
		}
		return
	}

	switch f.Event {
	case "qr":
		var qr string
		if err := json.Unmarshal(f.Data, &qr); err != nil {
			qr = string(f.Data)
		}
		c.bus.Publish(eventbus.TopicQR, qr)
	case "authenticated":
		if c.store != nil && len(f.Data) > 0 {
			sctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
			err := c.store.Save(sctx, store.SessionRecord{
				SessionID:   credentialSessionID,
				Credentials: f.Data,
				State:       "authenticated",
				UpdatedAt:   time.Now(),
			})
			cancel()
			if err != nil {
				c.logger.WarnTag("WA", "failed to persist session credentials: %v", err)
			}
		}
		c.bus.Publish(eventbus.TopicAuthenticated)
	case "ready":
		c.bus.Publish(eventbus.TopicReady)
	case "disconnected":
		var reason string
		if err := json.Unmarshal(f.Data, &reason); err != nil {
			reason = string(f.Data)
		}
		c.bus.Publish(eventbus.TopicDisconnected, reason)
	default:
		c.logger.DebugTag("WA", "ignoring gateway event %q", f.Event)
	}
}

// restoreSession offers stored credentials to the bridge so an
// authenticated session survives a restart. The acknowledgement is
// consumed asynchronously by the read loop; a rejected restore clears
// the stale record so the next login falls back to a QR scan.
func (c *Client) restoreSession(ctx context.Context, conn *websocket.Conn) {
	rec, err := c.store.Load(ctx, credentialSessionID)
	if err != nil || len(rec.Credentials) == 0 {
		return
	}

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	ch := make(chan frame, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	err = conn.WriteJSON(frame{ID: id, Action: "restore", Data: rec.Credentials})
	c.writeMu.Unlock()
	if err != nil {
		c.dropPending(id)
		return
	}
	c.logger.InfoTag("WA", "offered stored session credentials to gateway")

	go func() {
		select {
		case ack, ok := <-ch:
			if !ok || ack.OK {
				return
			}
			c.logger.WarnTag("WA", "gateway rejected stored session: %s", ack.Error)
			dctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
			defer cancel()
			if err := c.store.Delete(dctx, credentialSessionID); err != nil {
				c.logger.WarnTag("WA", "failed to clear rejected session: %v", err)
			}
		case <-time.After(sendTimeout):
			c.dropPending(id)
		}
	}()
}

func (c *Client) dropPending(id int) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) failPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

// SendText delivers a plain text message to the resolved destination.
func (c *Client) SendText(ctx context.Context, to, message string) error {
	return c.send(ctx, frame{Action: "send_text", To: to, Message: message})
}

// SendButtons delivers an interactive message with tappable buttons.
func (c *Client) SendButtons(ctx context.Context, to, message string, buttons []Button) error {
	return c.send(ctx, frame{Action: "send_buttons", To: to, Message: message, Buttons: buttons})
}

func (c *Client) send(ctx context.Context, f frame) error {
	const op = "messaging.send"

	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return errors.New(errors.KindNotReady, op,
			"WhatsApp session is not ready. Please scan the QR code first.")
	}
	f.ID = c.nextID
	c.nextID++
	ch := make(chan frame, 1)
	c.pending[f.ID] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	err := conn.WriteJSON(f)
	c.writeMu.Unlock()
	if err != nil {
		c.dropPending(f.ID)
		return errors.Wrap(errors.KindTransport, op, "gateway write failed", err)
	}

	select {
	case <-ctx.Done():
		c.dropPending(f.ID)
		return errors.Wrap(errors.KindTransport, op, "send canceled", ctx.Err())
	case <-time.After(sendTimeout):
		c.dropPending(f.ID)
		return errors.New(errors.KindTransport, op, "gateway acknowledgement timed out")
	case ack, ok := <-ch:
		if !ok {
			return errors.New(errors.KindTransport, op, "connection closed before acknowledgement")
		}
		if !ack.OK {
			msg := ack.Error
			if msg == "" {
				msg = "gateway rejected the message"
			}
			return errors.New(errors.KindProvider, op, msg)
		}
		return nil
	}
}
