package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Blindtools/Api/internal/core/providers"
	"github.com/Blindtools/Api/internal/core/providers/llm"
	"github.com/Blindtools/Api/internal/platform/errors"
	platformtesting "github.com/Blindtools/Api/internal/platform/testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type scriptedLLM struct {
	chunks []string
	seen   [][]providers.Message
}

func (s *scriptedLLM) Initialize() error { return nil }
func (s *scriptedLLM) Cleanup() error    { return nil }
func (s *scriptedLLM) Model() string     { return "scripted" }

func (s *scriptedLLM) Chat(ctx context.Context, msgs []providers.Message) (string, error) {
	return strings.Join(s.chunks, ""), nil
}

func (s *scriptedLLM) ChatStream(ctx context.Context, msgs []providers.Message) (<-chan string, error) {
	copied := make([]providers.Message, len(msgs))
	copy(copied, msgs)
	s.seen = append(s.seen, copied)

	ch := make(chan string, len(s.chunks))
	for _, chunk := range s.chunks {
		ch <- chunk
	}
	close(ch)
	return ch, nil
}

func dialRelay(t *testing.T, provider func() (llm.Provider, error), system string) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := platformtesting.SetupTestLogger(t)

	relay := NewRelay(provider, system, logger)
	engine := gin.New()
	if err := relay.Register(context.Background(), engine.Group("")); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial relay: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) outboundFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f outboundFrame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestRelayStreamsReply(t *testing.T) {
	backend := &scriptedLLM{chunks: []string{"hel", "lo"}}
	conn := dialRelay(t, func() (llm.Provider, error) { return backend, nil }, "be brief")

	if err := conn.WriteJSON(inboundFrame{Message: "hi"}); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	var reply string
	for {
		f := readFrame(t, conn)
		if f.Type == "done" {
			break
		}
		if f.Type != "delta" {
			t.Fatalf("unexpected frame: %+v", f)
		}
		reply += f.Content
	}
	if reply != "hello" {
		t.Fatalf("reply = %q, want hello", reply)
	}

	if len(backend.seen) != 1 {
		t.Fatalf("expected one provider call, got %d", len(backend.seen))
	}
	msgs := backend.seen[0]
	if msgs[0].Role != providers.RoleSystem || msgs[0].Content != "be brief" {
		t.Fatalf("system prompt missing: %+v", msgs)
	}
	if msgs[len(msgs)-1].Content != "hi" {
		t.Fatalf("user message missing: %+v", msgs)
	}
}

func TestRelayKeepsHistory(t *testing.T) {
	backend := &scriptedLLM{chunks: []string{"ok"}}
	conn := dialRelay(t, func() (llm.Provider, error) { return backend, nil }, "")

	for _, msg := range []string{"first", "second"} {
		if err := conn.WriteJSON(inboundFrame{Message: msg}); err != nil {
			t.Fatalf("write frame: %v", err)
		}
		for {
			if f := readFrame(t, conn); f.Type == "done" {
				break
			}
		}
	}

	if len(backend.seen) != 2 {
		t.Fatalf("expected two provider calls, got %d", len(backend.seen))
	}
	second := backend.seen[1]
	// first user message, assistant reply, second user message
	if len(second) != 3 {
		t.Fatalf("history not carried: %+v", second)
	}
	if second[1].Role != providers.RoleAssistant || second[1].Content != "ok" {
		t.Fatalf("assistant turn missing: %+v", second)
	}
}

func TestRelayEmptyMessage(t *testing.T) {
	backend := &scriptedLLM{chunks: []string{"ok"}}
	conn := dialRelay(t, func() (llm.Provider, error) { return backend, nil }, "")

	if err := conn.WriteJSON(inboundFrame{}); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	f := readFrame(t, conn)
	if f.Type != "error" || f.Error != "Message is required" {
		t.Fatalf("unexpected frame: %+v", f)
	}
}

func TestRelayProviderUnavailable(t *testing.T) {
	conn := dialRelay(t, func() (llm.Provider, error) {
		return nil, errors.New(errors.KindUnavailable, "test", "No chat provider configured")
	}, "")

	if err := conn.WriteJSON(inboundFrame{Message: "hi"}); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	f := readFrame(t, conn)
	if f.Type != "error" || !strings.Contains(f.Error, "No chat provider configured") {
		t.Fatalf("unexpected frame: %+v", f)
	}
}
