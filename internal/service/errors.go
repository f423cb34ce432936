package service

import (
	"context"
	"errors"
	"fmt"

	"guardian/internal/cache"
	"guardian/internal/logger"
	"guardian/internal/store"
)

var (
	ErrNotFound            = store.ErrNotFound
	ErrInvalidInput        = errors.New("invalid input")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUnknownAssessment   = errors.New("unknown assessment")
	ErrUnknownIntervention = errors.New("unknown intervention")
	ErrUnknownArticle      = errors.New("unknown article")
)

// ValidationError carries a message that is safe to show to the user.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// UpstreamError is a non-success answer from an AI provider.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
}

// DashboardKey is the cache key of a user's dashboard summary.
func DashboardKey(sc store.Scope) string { return "dashboard:" + sc.UserID.String() }

// invalidate drops the cached dashboard after a write. Failures only cost freshness.
func invalidate(ctx context.Context, c cache.Cache, sc store.Scope) {
	if c == nil {
		return
	}
	if err := c.Delete(ctx, DashboardKey(sc)); err != nil {
		logger.Warn("cache.invalidate_failed", "uid", sc.UserID, "err", err)
	}
}
