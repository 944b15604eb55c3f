// Package ws provides the live chat relay: a websocket session where
// each inbound text message is streamed through the chat provider and
// the reply is delivered as incremental delta frames.
package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Blindtools/Api/internal/core/providers"
	"github.com/Blindtools/Api/internal/core/providers/llm"
	"github.com/Blindtools/Api/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const historyLimit = 20

// inboundFrame is one client message.
type inboundFrame struct {
	Message string `json:"message"`
}

// outboundFrame is one server message. Type is "delta" while streaming,
// "done" when a reply completes and "error" on failure.
type outboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Relay upgrades chat websocket sessions.
type Relay struct {
	logger   *utils.Logger
	provider func() (llm.Provider, error)
	system   string
	upgrader websocket.Upgrader
}

// NewRelay builds the relay. The provider func resolves the chat
// backend per session so configuration reloads take effect.
func NewRelay(provider func() (llm.Provider, error), systemPrompt string, logger *utils.Logger) *Relay {
	return &Relay{
		logger:   logger,
		provider: provider,
		system:   systemPrompt,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
	}
}

// Register attaches the websocket route.
func (r *Relay) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.GET("/ws", r.handle)
	r.logger.InfoTag("WS", "live chat relay registered")
	return nil
}

func (r *Relay) handle(c *gin.Context) {
	conn, err := r.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		r.logger.WarnTag("WS", "upgrade failed: %v", err)
		return
	}
	session := &chatSession{
		relay: r,
		conn:  conn,
	}
	session.run(c.Request.Context())
}

// chatSession holds one connection's conversation history.
type chatSession struct {
	relay   *Relay
	conn    *websocket.Conn
	writeMu sync.Mutex
	history []providers.Message
}

func (s *chatSession) run(ctx context.Context) {
	defer s.conn.Close()

	if s.relay.system != "" {
		s.history = append(s.history, providers.Message{
			Role:    providers.RoleSystem,
			Content: s.relay.system,
		})
	}

	for {
		var in inboundFrame
		if err := s.conn.ReadJSON(&in); err != nil {
			s.relay.logger.DebugTag("WS", "session closed: %v", err)
			return
		}
		if in.Message == "" {
			s.write(outboundFrame{Type: "error", Error: "Message is required"})
			continue
		}
		s.respond(ctx, in.Message)
	}
}

func (s *chatSession) respond(ctx context.Context, message string) {
	provider, err := s.relay.provider()
	if err != nil {
		s.write(outboundFrame{Type: "error", Error: err.Error()})
		return
	}

	s.history = append(s.history, providers.Message{
		Role:    providers.RoleUser,
		Content: message,
	})
	s.trimHistory()

	stream, err := provider.ChatStream(ctx, s.history)
	if err != nil {
		s.write(outboundFrame{Type: "error", Error: err.Error()})
		return
	}

	var reply string
	for chunk := range stream {
		reply += chunk
		if !s.write(outboundFrame{Type: "delta", Content: chunk}) {
			return
		}
	}
	s.history = append(s.history, providers.Message{
		Role:    providers.RoleAssistant,
		Content: reply,
	})
	s.write(outboundFrame{Type: "done"})
}

// trimHistory drops the oldest exchanges while keeping the system
// prompt in first position.
func (s *chatSession) trimHistory() {
	if len(s.history) <= historyLimit {
		return
	}
	keepFrom := len(s.history) - historyLimit
	if s.relay.system != "" {
		trimmed := make([]providers.Message, 0, historyLimit+1)
		trimmed = append(trimmed, s.history[0])
		trimmed = append(trimmed, s.history[keepFrom:]...)
		s.history = trimmed
		return
	}
	s.history = s.history[keepFrom:]
}

func (s *chatSession) write(frame outboundFrame) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(frame); err != nil {
		s.relay.logger.DebugTag("WS", "write failed: %v", err)
		return false
	}
	return true
}
