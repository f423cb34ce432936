package handler

import (
	"net/http"

	"guardian/internal/catalog"
	"guardian/internal/model"
	"guardian/internal/service"

	"github.com/gin-gonic/gin"
)

type InterventionHandler struct {
	svc *service.InterventionService
	cat *catalog.Catalog
}

func NewInterventionHandler(svc *service.InterventionService, cat *catalog.Catalog) *InterventionHandler {
	return &InterventionHandler{svc: svc, cat: cat}
}

// GET /api/interventions?category=
func (h *InterventionHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories":    h.cat.Forms.InterventionCategories,
		"interventions": h.svc.Catalog(c.Query("category")),
	})
}

// GET /api/interventions/:id
func (h *InterventionHandler) Get(c *gin.Context) {
	iv, err := h.svc.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, iv)
}

// POST /api/interventions/:id/completions
func (h *InterventionHandler) Complete(c *gin.Context) {
	var req model.CompletionRequest
	if !bind(c, &req) {
		return
	}
	row, err := h.svc.Complete(c.Request.Context(), scope(c), c.Param("id"), req.DurationSeconds, req.Notes)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

// GET /api/interventions/completions
func (h *InterventionHandler) Completions(c *gin.Context) {
	rows, err := h.svc.Completions(c.Request.Context(), scope(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GET /api/interventions/stats
func (h *InterventionHandler) Stats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context(), scope(c), clientNow(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
