package handler

import (
	"errors"
	"net/http"

	"guardian/internal/catalog"
	"guardian/internal/logger"
	"guardian/internal/model"
	"guardian/internal/service"

	"github.com/gin-gonic/gin"
)

const sessionFailed = "Failed to create session"

type VoiceHandler struct {
	rt  *service.RealtimeService
	cat *catalog.Catalog
}

func NewVoiceHandler(rt *service.RealtimeService, cat *catalog.Catalog) *VoiceHandler {
	return &VoiceHandler{rt: rt, cat: cat}
}

// POST /api/voice/session  body: {"language":"en","systemPrompt":""}
//
// The upstream session object, including its ephemeral client secret, is
// returned as-is.
func (h *VoiceHandler) Session(c *gin.Context) {
	var req model.VoiceSessionRequest
	if !bind(c, &req) {
		return
	}
	uid := scope(c).UserID
	raw, err := h.rt.CreateSession(c.Request.Context(), req.Language, req.SystemPrompt)
	if err != nil {
		status := http.StatusInternalServerError
		var ue *service.UpstreamError
		if errors.As(err, &ue) {
			status = ue.Status
		}
		logger.Error("voice.session_failed", "uid", uid, "status", status, "err", err)
		c.JSON(status, gin.H{"error": sessionFailed})
		return
	}
	logger.Info("voice.session", "uid", uid, "language", h.cat.Language(req.Language).Code)
	c.Data(http.StatusOK, "application/json", raw)
}

// GET /api/voice/languages
func (h *VoiceHandler) Languages(c *gin.Context) {
	c.JSON(http.StatusOK, h.cat.Languages)
}
