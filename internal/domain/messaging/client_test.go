package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Blindtools/Api/internal/domain/eventbus"
	"github.com/Blindtools/Api/internal/domain/messaging/store"
	"github.com/Blindtools/Api/internal/platform/config"
	platformtesting "github.com/Blindtools/Api/internal/platform/testing"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

// fakeGateway is a minimal bridge stand-in that emits a scripted login
// sequence and acknowledges every send command.
func fakeGateway(t *testing.T, connected chan<- *websocket.Conn) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		connected <- conn
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws://" + strings.TrimPrefix(srv.URL, "http://")
}

// waitConnected blocks until the client has recorded its side of the
// websocket, since the server handler can observe the handshake first.
func waitConnected(t *testing.T, c *Client) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		c.mu.Lock()
		ok := c.conn != nil
		c.mu.Unlock()
		if ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("client never connected")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClientPublishesGatewayEvents(t *testing.T) {
	logger := platformtesting.SetupTestLogger(t)
	connected := make(chan *websocket.Conn, 1)
	srv := fakeGateway(t, connected)
	defer srv.Close()

	bus := eventbus.New()
	qrCh := make(chan string, 1)
	readyCh := make(chan struct{}, 1)
	if err := bus.Subscribe(eventbus.TopicQR, func(qr string) { qrCh <- qr }); err != nil {
		t.Fatalf("subscribe qr: %v", err)
	}
	if err := bus.Subscribe(eventbus.TopicReady, func() { readyCh <- struct{}{} }); err != nil {
		t.Fatalf("subscribe ready: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := NewClient(&config.MessagingConfig{GatewayURL: wsURL(srv)}, bus, nil, logger)
	if err := client.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer client.Stop()

	conn := <-connected
	defer conn.Close()

	qrPayload, _ := json.Marshal("2@abcdef==")
	if err := conn.WriteJSON(frame{Event: "qr", Data: qrPayload}); err != nil {
		t.Fatalf("write qr: %v", err)
	}
	if err := conn.WriteJSON(frame{Event: "ready"}); err != nil {
		t.Fatalf("write ready: %v", err)
	}

	select {
	case qr := <-qrCh:
		if qr != "2@abcdef==" {
			t.Fatalf("unexpected qr payload: %q", qr)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for qr event")
	}
	select {
	case <-readyCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for ready event")
	}
}

func TestClientSendTextAcknowledged(t *testing.T) {
	logger := platformtesting.SetupTestLogger(t)
	connected := make(chan *websocket.Conn, 1)
	srv := fakeGateway(t, connected)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := NewClient(&config.MessagingConfig{GatewayURL: wsURL(srv)}, eventbus.New(), nil, logger)
	if err := client.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer client.Stop()

	conn := <-connected
	defer conn.Close()
	waitConnected(t, client)

	go func() {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Errorf("gateway read: %v", err)
			return
		}
		if f.Action != "send_text" || f.To != "15551234567@c.us" || f.Message != "hello" {
			t.Errorf("unexpected command frame: %+v", f)
		}
		_ = conn.WriteJSON(frame{ID: f.ID, OK: true})
	}()

	sendCtx, sendCancel := context.WithTimeout(ctx, 2*time.Second)
	defer sendCancel()
	if err := client.SendText(sendCtx, "15551234567@c.us", "hello"); err != nil {
		t.Fatalf("SendText error: %v", err)
	}
}

func TestClientSendRejectedByGateway(t *testing.T) {
	logger := platformtesting.SetupTestLogger(t)
	connected := make(chan *websocket.Conn, 1)
	srv := fakeGateway(t, connected)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := NewClient(&config.MessagingConfig{GatewayURL: wsURL(srv)}, eventbus.New(), nil, logger)
	if err := client.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer client.Stop()

	conn := <-connected
	defer conn.Close()
	waitConnected(t, client)

	go func() {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			return
		}
		_ = conn.WriteJSON(frame{ID: f.ID, OK: false, Error: "number not on WhatsApp"})
	}()

	err := client.SendButtons(ctx, "15551234567@c.us", "pick one", []Button{{ID: "1", Body: "Yes"}})
	if err == nil {
		t.Fatalf("expected gateway rejection")
	}
	if !strings.Contains(err.Error(), "number not on WhatsApp") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClientSendWithoutConnection(t *testing.T) {
	logger := platformtesting.SetupTestLogger(t)
	client := NewClient(&config.MessagingConfig{GatewayURL: "ws://127.0.0.1:1"}, eventbus.New(), nil, logger)

	err := client.SendText(context.Background(), "15551234567@c.us", "hello")
	if err == nil {
		t.Fatalf("expected error when not connected")
	}
}

// stubStore records credential operations so tests can observe what the
// client persists.
type stubStore struct {
	mu      sync.Mutex
	rec     store.SessionRecord
	hasRec  bool
	saved   chan store.SessionRecord
	deleted chan string
}

func newStubStore() *stubStore {
	return &stubStore{
		saved:   make(chan store.SessionRecord, 1),
		deleted: make(chan string, 1),
	}
}

func (s *stubStore) Save(_ context.Context, rec store.SessionRecord) error {
	s.mu.Lock()
	s.rec = rec
	s.hasRec = true
	s.mu.Unlock()
	s.saved <- rec
	return nil
}

func (s *stubStore) Load(_ context.Context, sessionID string) (store.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasRec {
		return store.SessionRecord{}, fmt.Errorf("session not found: %s", sessionID)
	}
	return s.rec, nil
}

func (s *stubStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	s.hasRec = false
	s.mu.Unlock()
	s.deleted <- sessionID
	return nil
}

func (s *stubStore) List(_ context.Context) ([]string, error) { return nil, nil }

func (s *stubStore) Stats(_ context.Context) (map[string]any, error) { return nil, nil }

func (s *stubStore) Close(_ context.Context) error { return nil }

func TestClientPersistsCredentialsOnAuthenticated(t *testing.T) {
	logger := platformtesting.SetupTestLogger(t)
	connected := make(chan *websocket.Conn, 1)
	srv := fakeGateway(t, connected)
	defer srv.Close()

	st := newStubStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := NewClient(&config.MessagingConfig{GatewayURL: wsURL(srv)}, eventbus.New(), st, logger)
	if err := client.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer client.Stop()

	conn := <-connected
	defer conn.Close()

	creds := json.RawMessage(`{"token":"abc123"}`)
	if err := conn.WriteJSON(frame{Event: "authenticated", Data: creds}); err != nil {
		t.Fatalf("write authenticated: %v", err)
	}

	select {
	case rec := <-st.saved:
		if rec.SessionID != "default" {
			t.Fatalf("unexpected session id: %q", rec.SessionID)
		}
		if rec.State != "authenticated" {
			t.Fatalf("unexpected state: %q", rec.State)
		}
		if !bytes.Equal(rec.Credentials, creds) {
			t.Fatalf("unexpected credentials: %s", rec.Credentials)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("credentials were never saved")
	}
}

func TestClientOffersStoredCredentialsOnConnect(t *testing.T) {
	logger := platformtesting.SetupTestLogger(t)
	connected := make(chan *websocket.Conn, 1)
	srv := fakeGateway(t, connected)
	defer srv.Close()

	creds := json.RawMessage(`{"token":"abc123"}`)
	st := newStubStore()
	st.rec = store.SessionRecord{SessionID: "default", Credentials: creds, State: "authenticated"}
	st.hasRec = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := NewClient(&config.MessagingConfig{GatewayURL: wsURL(srv)}, eventbus.New(), st, logger)
	if err := client.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer client.Stop()

	conn := <-connected
	defer conn.Close()

	var f frame
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("gateway read: %v", err)
	}
	if f.Action != "restore" {
		t.Fatalf("unexpected action: %q", f.Action)
	}
	if !bytes.Equal(f.Data, creds) {
		t.Fatalf("unexpected restore payload: %s", f.Data)
	}
	_ = conn.WriteJSON(frame{ID: f.ID, OK: true})
}

func TestClientClearsRejectedCredentials(t *testing.T) {
	logger := platformtesting.SetupTestLogger(t)
	connected := make(chan *websocket.Conn, 1)
	srv := fakeGateway(t, connected)
	defer srv.Close()

	st := newStubStore()
	st.rec = store.SessionRecord{
		SessionID:   "default",
		Credentials: json.RawMessage(`{"token":"stale"}`),
		State:       "authenticated",
	}
	st.hasRec = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := NewClient(&config.MessagingConfig{GatewayURL: wsURL(srv)}, eventbus.New(), st, logger)
	if err := client.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer client.Stop()

	conn := <-connected
	defer conn.Close()

	var f frame
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("gateway read: %v", err)
	}
	_ = conn.WriteJSON(frame{ID: f.ID, OK: false, Error: "session expired"})

	select {
	case id := <-st.deleted:
		if id != "default" {
			t.Fatalf("unexpected deleted session id: %q", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("stale credentials were never cleared")
	}
}

func TestClientSendCanceledDropsPending(t *testing.T) {
	logger := platformtesting.SetupTestLogger(t)
	connected := make(chan *websocket.Conn, 1)
	srv := fakeGateway(t, connected)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := NewClient(&config.MessagingConfig{GatewayURL: wsURL(srv)}, eventbus.New(), nil, logger)
	if err := client.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer client.Stop()

	conn := <-connected
	defer conn.Close()
	waitConnected(t, client)

	// The gateway swallows the command without acknowledging it.
	go func() {
		var f frame
		_ = conn.ReadJSON(&f)
	}()

	sendCtx, sendCancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer sendCancel()
	err := client.SendText(sendCtx, "15551234567@c.us", "hello")
	if err == nil {
		t.Fatalf("expected cancellation error")
	}

	client.mu.Lock()
	n := len(client.pending)
	client.mu.Unlock()
	if n != 0 {
		t.Fatalf("pending map still holds %d entries", n)
	}
}
