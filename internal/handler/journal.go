package handler

import (
	"net/http"

	"guardian/internal/catalog"
	"guardian/internal/model"
	"guardian/internal/service"

	"github.com/gin-gonic/gin"
)

type JournalHandler struct {
	svc *service.JournalService
	cat *catalog.Catalog
}

func NewJournalHandler(svc *service.JournalService, cat *catalog.Catalog) *JournalHandler {
	return &JournalHandler{svc: svc, cat: cat}
}

func journalInput(c *gin.Context) (service.JournalInput, bool) {
	var req model.JournalRequest
	if !bind(c, &req) {
		return service.JournalInput{}, false
	}
	return service.JournalInput{
		EntryType:  req.EntryType,
		Content:    req.Content,
		MoodBefore: req.MoodBefore,
		MoodAfter:  req.MoodAfter,
	}, true
}

// GET /api/journal?type=&q=
func (h *JournalHandler) List(c *gin.Context) {
	entries, err := h.svc.List(c.Request.Context(), scope(c), c.Query("type"), c.Query("q"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// POST /api/journal
func (h *JournalHandler) Create(c *gin.Context) {
	in, ok := journalInput(c)
	if !ok {
		return
	}
	e, err := h.svc.Create(c.Request.Context(), scope(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// PUT /api/journal/:id
func (h *JournalHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	in, ok := journalInput(c)
	if !ok {
		return
	}
	e, err := h.svc.Update(c.Request.Context(), scope(c), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// DELETE /api/journal/:id
func (h *JournalHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), scope(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /api/journal/stats
func (h *JournalHandler) Stats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context(), scope(c), clientNow(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GET /api/journal/prompts
func (h *JournalHandler) Prompts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"entry_types": h.cat.Forms.JournalEntryTypes,
		"moods":       h.cat.Forms.Moods,
	})
}
