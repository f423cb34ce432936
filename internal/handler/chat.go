package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"guardian/internal/catalog"
	"guardian/internal/logger"
	"guardian/internal/model"
	"guardian/internal/service"

	"github.com/gin-gonic/gin"
)

const chatFailed = "An error occurred"

type ChatHandler struct {
	coach *service.CoachService
	cat   *catalog.Catalog
}

func NewChatHandler(coach *service.CoachService, cat *catalog.Catalog) *ChatHandler {
	return &ChatHandler{coach: coach, cat: cat}
}

// POST /api/chat  body: {"messages":[{"role":"user","content":"..."}]}
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if !bind(c, &req) {
		return
	}
	uid := scope(c).UserID
	logger.Info("chat", "uid", uid, "turns", len(req.Messages))

	reply, err := h.coach.Reply(c.Request.Context(), req.Messages)
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Msg})
			return
		}
		logger.Error("chat.upstream_failed", "uid", uid, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": upstreamText(err)})
		return
	}
	c.JSON(http.StatusOK, model.ChatResponse{Message: reply})
}

type sseWriter struct {
	w http.Flusher
	f gin.ResponseWriter
}

func (s *sseWriter) event(name string, data any) {
	j, _ := json.Marshal(data)
	fmt.Fprintf(s.f, "event: %s\ndata: %s\n\n", name, j)
	s.w.Flush()
}

func (s *sseWriter) token(t string) {
	s.event("token", map[string]string{"token": t})
}

func (s *sseWriter) done() {
	s.event("done", map[string]string{})
}

// POST /api/chat/stream
func (h *ChatHandler) ChatStream(c *gin.Context) {
	var req model.ChatRequest
	if !bind(c, &req) {
		return
	}
	if err := service.ValidateMessages(req.Messages); err != nil {
		fail(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	uid := scope(c).UserID
	logger.Info("chat.stream", "uid", uid, "turns", len(req.Messages))
	sse := &sseWriter{w: c.Writer, f: c.Writer}
	if _, err := h.coach.Stream(c.Request.Context(), req.Messages, sse.token); err != nil {
		logger.Error("chat.upstream_failed", "uid", uid, "stream", true, "err", err)
		sse.event("error", map[string]string{"error": upstreamText(err)})
		return
	}
	sse.done()
}

// GET /api/coach/prompts
func (h *ChatHandler) Prompts(c *gin.Context) {
	c.JSON(http.StatusOK, h.cat.Forms.Coach)
}

func upstreamText(err error) string {
	var ue *service.UpstreamError
	if errors.As(err, &ue) && ue.Message != "" {
		return ue.Message
	}
	return chatFailed
}
