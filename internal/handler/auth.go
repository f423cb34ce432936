package handler

import (
	"net/http"

	"guardian/internal/logger"
	"guardian/internal/middleware"
	"guardian/internal/model"
	"guardian/internal/service"
	"guardian/internal/store"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth    *service.AuthService
	profile *service.ProfileService
	tokens  *middleware.Tokens
}

func NewAuthHandler(auth *service.AuthService, profile *service.ProfileService, tokens *middleware.Tokens) *AuthHandler {
	return &AuthHandler{auth: auth, profile: profile, tokens: tokens}
}

// POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if !bind(c, &req) {
		return
	}
	u, err := h.auth.Signup(c.Request.Context(), service.SignupInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FullName:        req.FullName,
	})
	if err != nil {
		fail(c, err)
		return
	}
	logger.Info("signup.ok", "uid", u.ID)
	h.issue(c, http.StatusCreated, model.UserView{ID: u.ID, Email: u.Email, FullName: req.FullName})
}

// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !bind(c, &req) {
		return
	}
	u, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		logger.Warn("login.failed", "email", req.Email, "err", err)
		fail(c, err)
		return
	}
	logger.Info("login.ok", "uid", u.ID)

	view := model.UserView{ID: u.ID, Email: u.Email}
	if p, err := h.profile.Get(c.Request.Context(), store.Scope{UserID: u.ID}); err == nil {
		view.FullName = p.FullName
	}
	h.issue(c, http.StatusOK, view)
}

// POST /api/logout
//
// Tokens are stateless; the client drops its copy.
func (h *AuthHandler) Logout(c *gin.Context) {
	logger.Info("logout", "uid", scope(c).UserID)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *AuthHandler) issue(c *gin.Context, status int, u model.UserView) {
	token, err := h.tokens.Issue(u.ID, u.Email)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(status, model.LoginResponse{Token: token, User: u})
}
