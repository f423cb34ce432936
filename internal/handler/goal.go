package handler

import (
	"net/http"

	"guardian/internal/catalog"
	"guardian/internal/model"
	"guardian/internal/service"

	"github.com/gin-gonic/gin"
)

type GoalHandler struct {
	svc *service.GoalService
	cat *catalog.Catalog
}

func NewGoalHandler(svc *service.GoalService, cat *catalog.Catalog) *GoalHandler {
	return &GoalHandler{svc: svc, cat: cat}
}

func goalInput(c *gin.Context) (service.GoalInput, bool) {
	var req model.GoalRequest
	if !bind(c, &req) {
		return service.GoalInput{}, false
	}
	target, err := parseDate(req.TargetDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target_date"})
		return service.GoalInput{}, false
	}
	return service.GoalInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		TargetValue:  req.TargetValue,
		CurrentValue: req.CurrentValue,
		Unit:         req.Unit,
		TargetDate:   target,
	}, true
}

// GET /api/goals?filter=all|active|completed
func (h *GoalHandler) List(c *gin.Context) {
	goals, err := h.svc.List(c.Request.Context(), scope(c), c.Query("filter"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

// GET /api/goals/:id
func (h *GoalHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	g, err := h.svc.Get(c.Request.Context(), scope(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// POST /api/goals
func (h *GoalHandler) Create(c *gin.Context) {
	in, ok := goalInput(c)
	if !ok {
		return
	}
	g, err := h.svc.Create(c.Request.Context(), scope(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

// PUT /api/goals/:id
func (h *GoalHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	in, ok := goalInput(c)
	if !ok {
		return
	}
	g, err := h.svc.Update(c.Request.Context(), scope(c), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// PUT /api/goals/:id/progress
func (h *GoalHandler) Progress(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req model.ProgressRequest
	if !bind(c, &req) {
		return
	}
	g, err := h.svc.SetProgress(c.Request.Context(), scope(c), id, *req.CurrentValue)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// POST /api/goals/:id/toggle
func (h *GoalHandler) Toggle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	g, err := h.svc.Toggle(c.Request.Context(), scope(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// DELETE /api/goals/:id
func (h *GoalHandler) Delete(c *gin.Context) {
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

// GET /api/goals/stats
func (h *GoalHandler) Stats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context(), scope(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GET /api/goals/categories
func (h *GoalHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, h.cat.Forms.GoalCategories)
}
