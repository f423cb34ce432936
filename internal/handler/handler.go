package handler

import (
	"errors"
	"net/http"
	"time"

	"guardian/internal/logger"
	"guardian/internal/middleware"
	"guardian/internal/service"
	"guardian/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderTimezone lets clients pass their IANA zone so that day-based stats
// follow the user's calendar rather than the server's.
const HeaderTimezone = "X-Timezone"

// scope is the per-request session every service call acts for.
func scope(c *gin.Context) store.Scope {
	uid, _ := c.Get(middleware.CtxUserID)
	id, _ := uid.(uuid.UUID)
	return store.Scope{UserID: id}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// clientNow is the current time in the caller's zone, from the tz query
// parameter or the X-Timezone header. Unknown zones fall back to UTC.
func clientNow(c *gin.Context) time.Time {
	name := c.Query("tz")
	if name == "" {
		name = c.GetHeader(HeaderTimezone)
	}
	loc := time.UTC
	if name != "" {
		if l, err := time.LoadLocation(name); err == nil {
			loc = l
		}
	}
	return time.Now().In(loc)
}

// parseDate accepts YYYY-MM-DD or RFC 3339. Empty input yields nil.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return false
	}
	return true
}

// fail maps service errors onto HTTP statuses.
func fail(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Msg})
	case errors.Is(err, store.ErrNoScope):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrUnknownAssessment),
		errors.Is(err, service.ErrUnknownIntervention),
		errors.Is(err, service.ErrUnknownArticle):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		logger.Error("request.failed", "path", c.Request.URL.Path, "uid", scope(c).UserID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
