package handler

import (
	"net/http"

	"guardian/internal/catalog"
	"guardian/internal/model"
	"guardian/internal/service"

	"github.com/gin-gonic/gin"
)

type AssessmentHandler struct {
	svc *service.AssessmentService
	cat *catalog.Catalog
}

func NewAssessmentHandler(svc *service.AssessmentService, cat *catalog.Catalog) *AssessmentHandler {
	return &AssessmentHandler{svc: svc, cat: cat}
}

// GET /api/assessments
func (h *AssessmentHandler) Definitions(c *gin.Context) {
	c.JSON(http.StatusOK, h.cat.Assessments)
}

// GET /api/assessments/:type
func (h *AssessmentHandler) Definition(c *gin.Context) {
	a, ok := h.cat.Assessment(c.Param("type"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, a)
}

// POST /api/assessments/:type/responses
func (h *AssessmentHandler) Submit(c *gin.Context) {
	var req model.AssessmentRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.svc.Submit(c.Request.Context(), scope(c), c.Param("type"), req.Responses)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GET /api/assessments/responses?type=
func (h *AssessmentHandler) Responses(c *gin.Context) {
	rows, err := h.svc.List(c.Request.Context(), scope(c), c.Query("type"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GET /api/assessments/responses/latest
func (h *AssessmentHandler) Latest(c *gin.Context) {
	latest, err := h.svc.Latest(c.Request.Context(), scope(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, latest)
}
