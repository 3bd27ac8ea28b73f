package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/trusthire/backend/internal/storage/models"
	"github.com/trusthire/backend/internal/verify"
	"github.com/trusthire/backend/pkg/logger"
)

// WebSocketHandler streams a verification run: one event per evidence
// item as it lands, then the final report. Progress events arrive from
// the orchestrator's collection loop, so writes never interleave.
type WebSocketHandler struct {
	service *verify.Service
}

func NewWebSocketHandler(service *verify.Service) *WebSocketHandler {
	return &WebSocketHandler{service: service}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type       string                  `json:"type"`
			Claim      *models.CandidateClaim  `json:"claim"`
			ResumeText string                  `json:"resume_text,omitempty"`
			Document   *models.DocumentSignals `json:"document,omitempty"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			logger.Error("Failed to read WebSocket message", zap.Error(err))
			break
		}

		if msg.Type != "verify" {
			continue
		}
		if msg.Claim == nil {
			h.sendError(c, "claim is required")
			continue
		}

		logger.Info("Processing WebSocket verification",
			zap.String("candidate", msg.Claim.FullName))

		err := h.streamRun(c, verify.Request{
			Claim:      msg.Claim,
			ResumeText: msg.ResumeText,
			Document:   msg.Document,
		})
		if err != nil {
			logger.Error("Failed to stream verification", zap.Error(err))
			h.sendError(c, "Failed to run verification")
		}
	}
}

func (h *WebSocketHandler) streamRun(c *websocket.Conn, req verify.Request) error {
	ctx := context.Background()

	h.sendStatus(c, "verification started")

	rep, err := h.service.Verify(ctx, req, func(item models.EvidenceItem) {
		c.WriteJSON(map[string]interface{}{
			"type":     "evidence",
			"source":   item.Source,
			"category": item.Category,
			"target":   item.Target,
			"found":    item.Found,
			"error":    item.Err,
		})
	})
	if err != nil {
		var vErr *models.ValidationError
		if errors.As(err, &vErr) {
			h.sendError(c, vErr.Error())
			return nil
		}
		return err
	}

	return c.WriteJSON(map[string]interface{}{
		"type":          "complete",
		"report_id":     rep.ID,
		"overall_score": rep.OverallScore,
		"report":        rep,
	})
}

func (h *WebSocketHandler) sendStatus(c *websocket.Conn, content string) {
	c.WriteJSON(map[string]interface{}{
		"type":    "status",
		"content": content,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}
