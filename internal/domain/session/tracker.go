package session

import (
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"

	"github.com/Blindtools/Api/internal/domain/eventbus"
	"github.com/Blindtools/Api/internal/platform/errors"
	"github.com/Blindtools/Api/internal/utils"
)

// State of the long-lived messaging connection.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateAwaitingAuth  State = "awaiting-authentication"
	StateAuthenticated State = "authenticated"
	StateReady         State = "ready"
	StateDisconnected  State = "disconnected"
)

// transitions is the event-to-state table. The table is total: any event
// may arrive in any state because the gateway can cycle through re-login
// indefinitely.
var transitions = map[string]State{
	eventbus.TopicQR:            StateAwaitingAuth,
	eventbus.TopicAuthenticated: StateAuthenticated,
	eventbus.TopicReady:         StateReady,
	eventbus.TopicDisconnected:  StateDisconnected,
}

// Tracker is the single process-wide readiness record for the messaging
// session. It is mutated only by the gateway's event stream and read by any
// number of request handlers.
type Tracker struct {
	mu               sync.RWMutex
	state            State
	qr               string
	disconnectReason string
	lastChange       time.Time
	logger           *utils.Logger
}

func NewTracker(logger *utils.Logger) *Tracker {
	if logger == nil {
		logger = utils.DefaultLogger
	}
	return &Tracker{
		state:      StateUninitialized,
		lastChange: time.Now(),
		logger:     logger,
	}
}

// Attach subscribes the tracker to the gateway event topics on the given
// bus. Called once at startup.
func (t *Tracker) Attach(bus evbus.Bus) error {
	if err := bus.Subscribe(eventbus.TopicQR, t.onQR); err != nil {
		return err
	}
	if err := bus.Subscribe(eventbus.TopicAuthenticated, func() { t.apply(eventbus.TopicAuthenticated) }); err != nil {
		return err
	}
	if err := bus.Subscribe(eventbus.TopicReady, func() { t.apply(eventbus.TopicReady) }); err != nil {
		return err
	}
	return bus.Subscribe(eventbus.TopicDisconnected, t.onDisconnected)
}

func (t *Tracker) onQR(payload string) {
	t.mu.Lock()
	t.qr = payload
	t.mu.Unlock()
	t.apply(eventbus.TopicQR)
}

func (t *Tracker) onDisconnected(reason string) {
	t.mu.Lock()
	t.disconnectReason = reason
	t.mu.Unlock()
	t.apply(eventbus.TopicDisconnected)
}

func (t *Tracker) apply(event string) {
	next, ok := transitions[event]
	if !ok {
		return
	}

	t.mu.Lock()
	prev := t.state
	t.state = next
	t.lastChange = time.Now()
	if next == StateReady {
		// A live session no longer needs the QR payload.
		t.qr = ""
	}
	if next != StateDisconnected {
		t.disconnectReason = ""
	}
	t.mu.Unlock()

	if prev != next {
		t.logger.InfoTag("SESSION", "state %s -> %s", prev, next)
	}
}

func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// QR returns the most recent QR payload, empty once the session is live.
func (t *Tracker) QR() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.qr
}

func (t *Tracker) DisconnectReason() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.disconnectReason
}

func (t *Tracker) Ready() bool {
	return t.State() == StateReady
}

// RequireReady gates message-send operations. Every state except ready
// rejects the send before the external client is touched.
func (t *Tracker) RequireReady() error {
	if t.Ready() {
		return nil
	}
	return errors.New(errors.KindNotReady, "session.require_ready",
		"WhatsApp session is not ready. Please scan the QR code first.")
}

// Snapshot reports the tracker contents for the status endpoint.
type Snapshot struct {
	State            State     `json:"state"`
	Ready            bool      `json:"ready"`
	HasQR            bool      `json:"has_qr"`
	DisconnectReason string    `json:"disconnect_reason,omitempty"`
	Since            time.Time `json:"since"`
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Snapshot{
		State:            t.state,
		Ready:            t.state == StateReady,
		HasQR:            t.qr != "",
		DisconnectReason: t.disconnectReason,
		Since:            t.lastChange,
	}
}
