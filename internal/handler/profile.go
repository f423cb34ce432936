package handler

import (
	"net/http"

	"guardian/internal/model"
	"guardian/internal/service"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profile   *service.ProfileService
	dashboard *service.DashboardService
}

func NewProfileHandler(profile *service.ProfileService, dashboard *service.DashboardService) *ProfileHandler {
	return &ProfileHandler{profile: profile, dashboard: dashboard}
}

// GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	p, err := h.profile.Get(c.Request.Context(), scope(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PUT /api/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	var req model.ProfileRequest
	if !bind(c, &req) {
		return
	}
	p, err := h.profile.Update(c.Request.Context(), scope(c), req.FullName)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/dashboard
func (h *ProfileHandler) Dashboard(c *gin.Context) {
	d, err := h.dashboard.Get(c.Request.Context(), scope(c), clientNow(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
