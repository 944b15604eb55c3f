// Package whatsapp exposes the messaging endpoints backed by the bridge
// client and the session tracker.
package whatsapp

import (
	"context"

	"github.com/Blindtools/Api/internal/domain/envelope"
	"github.com/Blindtools/Api/internal/domain/messaging"
	"github.com/Blindtools/Api/internal/domain/session"
	"github.com/Blindtools/Api/internal/platform/errors"
	httptransport "github.com/Blindtools/Api/internal/transport/http"
	"github.com/Blindtools/Api/internal/utils"

	"github.com/gin-gonic/gin"
)

// Sender is the outbound half of the bridge client.
type Sender interface {
	SendText(ctx context.Context, to, message string) error
	SendButtons(ctx context.Context, to, message string, buttons []messaging.Button) error
}

// Service handles send operations and session readouts.
type Service struct {
	logger  *utils.Logger
	tracker *session.Tracker
	sender  Sender
}

func NewService(tracker *session.Tracker, sender Sender, logger *utils.Logger) (*Service, error) {
	if tracker == nil {
		return nil, errors.New(errors.KindConfig, "whatsapp.NewService", "session tracker is required")
	}
	return &Service{
		logger:  logger,
		tracker: tracker,
		sender:  sender,
	}, nil
}

// Register attaches the messaging routes.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.POST("/send-text", s.handleSendText)
	router.POST("/send-buttons", s.handleSendButtons)
	router.GET("/session/status", s.handleStatus)
	router.GET("/session/qr", s.handleQR)

	s.logger.InfoTag("HTTP", "whatsapp routes registered")
	return nil
}

type sendTextRequest struct {
	Number  string `json:"number"`
	Message string `json:"message"`
	IsGroup bool   `json:"isGroup"`
}

type sendButtonsRequest struct {
	Number  string             `json:"number"`
	Message string             `json:"message"`
	Buttons []messaging.Button `json:"buttons"`
	IsGroup bool               `json:"isGroup"`
}

func (s *Service) handleSendText(c *gin.Context) {
	const op = "whatsapp.handleSendText"
	c.Set("capability", "send-message")

	var req sendTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, errors.Wrap(errors.KindValidation, op, "Invalid JSON body", err))
		return
	}
	if req.Number == "" || req.Message == "" {
		httptransport.RespondError(c, errors.New(errors.KindValidation, op,
			"Number and message are required"))
		return
	}
	if err := s.tracker.RequireReady(); err != nil {
		httptransport.RespondError(c, err)
		return
	}

	to, err := messaging.ResolveDestination(req.Number, req.IsGroup)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	if err := s.sender.SendText(c.Request.Context(), to, req.Message); err != nil {
		httptransport.RespondError(c, err)
		return
	}

	httptransport.RespondSuccess(c, envelope.Fields{
		"message": "Message sent successfully",
		"to":      to,
	})
}

func (s *Service) handleSendButtons(c *gin.Context) {
	const op = "whatsapp.handleSendButtons"
	c.Set("capability", "send-message")

	var req sendButtonsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, errors.Wrap(errors.KindValidation, op, "Invalid JSON body", err))
		return
	}
	if req.Number == "" || req.Message == "" || len(req.Buttons) == 0 {
		httptransport.RespondError(c, errors.New(errors.KindValidation, op,
			"Number, message and buttons are required"))
		return
	}
	for _, b := range req.Buttons {
		if b.Body == "" {
			httptransport.RespondError(c, errors.New(errors.KindValidation, op,
				"Every button needs a body"))
			return
		}
	}
	if err := s.tracker.RequireReady(); err != nil {
		httptransport.RespondError(c, err)
		return
	}

	to, err := messaging.ResolveDestination(req.Number, req.IsGroup)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	if err := s.sender.SendButtons(c.Request.Context(), to, req.Message, req.Buttons); err != nil {
		httptransport.RespondError(c, err)
		return
	}

	httptransport.RespondSuccess(c, envelope.Fields{
		"message": "Buttons sent successfully",
		"to":      to,
	})
}

func (s *Service) handleStatus(c *gin.Context) {
	snap := s.tracker.Snapshot()
	fields := envelope.Fields{
		"state":  string(snap.State),
		"ready":  snap.Ready,
		"has_qr": snap.HasQR,
		"since":  snap.Since,
	}
	if snap.DisconnectReason != "" {
		fields["disconnect_reason"] = snap.DisconnectReason
	}
	httptransport.RespondSuccess(c, fields)
}

func (s *Service) handleQR(c *gin.Context) {
	const op = "whatsapp.handleQR"

	qr := s.tracker.QR()
	if qr == "" {
		httptransport.RespondError(c, errors.New(errors.KindNotReady, op,
			"No QR code available. The session may already be authenticated."))
		return
	}
	httptransport.RespondSuccess(c, envelope.Fields{"qr": qr})
}
