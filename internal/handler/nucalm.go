package handler

import (
	"net/http"

	"guardian/internal/catalog"
	"guardian/internal/model"
	"guardian/internal/service"

	"github.com/gin-gonic/gin"
)

// NucalmHandler serves the recovery-session log.
type NucalmHandler struct {
	svc *service.NucalmService
	cat *catalog.Catalog
}

func NewNucalmHandler(svc *service.NucalmService, cat *catalog.Catalog) *NucalmHandler {
	return &NucalmHandler{svc: svc, cat: cat}
}

func nucalmInput(c *gin.Context) (service.NucalmInput, bool) {
	var req model.NucalmRequest
	if !bind(c, &req) {
		return service.NucalmInput{}, false
	}
	in := service.NucalmInput{
		DurationMinutes: req.DurationMinutes,
		SessionType:     req.SessionType,
		MoodBefore:      req.MoodBefore,
		MoodAfter:       req.MoodAfter,
		StressBefore:    req.StressBefore,
		StressAfter:     req.StressAfter,
		HRVBefore:       req.HRVBefore,
		HRVAfter:        req.HRVAfter,
		Notes:           req.Notes,
	}
	date, err := parseDate(req.SessionDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session_date"})
		return service.NucalmInput{}, false
	}
	if date != nil {
		in.SessionDate = *date
	}
	return in, true
}

// GET /api/nucalm
func (h *NucalmHandler) List(c *gin.Context) {
	rows, err := h.svc.List(c.Request.Context(), scope(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// POST /api/nucalm
func (h *NucalmHandler) Create(c *gin.Context) {
	in, ok := nucalmInput(c)
	if !ok {
		return
	}
	row, err := h.svc.Create(c.Request.Context(), scope(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

// PUT /api/nucalm/:id
func (h *NucalmHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	in, ok := nucalmInput(c)
	if !ok {
		return
	}
	row, err := h.svc.Update(c.Request.Context(), scope(c), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// DELETE /api/nucalm/:id
func (h *NucalmHandler) Delete(c *gin.Context) {
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

// GET /api/nucalm/stats
func (h *NucalmHandler) Stats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context(), scope(c), clientNow(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GET /api/nucalm/types
func (h *NucalmHandler) Types(c *gin.Context) {
	c.JSON(http.StatusOK, h.cat.Forms.NucalmSessionTypes)
}
