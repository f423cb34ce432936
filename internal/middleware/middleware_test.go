package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"guardian/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func protected(t *Tokens) *gin.Engine {
	r := gin.New()
	r.GET("/me", JWTAuth(t), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": c.MustGet(CtxUserID).(uuid.UUID).String()})
	})
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	tokens := NewTokens("s3cret", 7*24*time.Hour)
	r := protected(tokens)
	uid := uuid.New()

	token, err := tokens.Issue(uid, "a@example.com")
	require.NoError(t, err)

	w := get(r, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":"`+uid.String()+`"}`, w.Body.String())
	assert.Empty(t, w.Header().Get("X-New-Token"))

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "garbage").Code)

	other, err := NewTokens("other", time.Hour).Issue(uid, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, other).Code)
}

func TestJWTAuthRenewsNearExpiry(t *testing.T) {
	tokens := NewTokens("s3cret", 2*time.Hour)
	token, err := tokens.Issue(uuid.New(), "a@example.com")
	require.NoError(t, err)

	w := get(protected(tokens), token)
	require.Equal(t, http.StatusOK, w.Code)
	fresh := w.Header().Get("X-New-Token")
	require.NotEmpty(t, fresh)
	_, _, _, err = tokens.Parse(fresh)
	assert.NoError(t, err)
}

func TestJWTAuthRejectsExpiredAndForeignAlg(t *testing.T) {
	tokens := NewTokens("s3cret", time.Hour)
	r := protected(tokens)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid": uuid.NewString(), "exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, expired).Code)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"uid": uuid.NewString()}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, noExp).Code)

	badUID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid": 42, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, badUID).Code)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logger.New(&buf, "debug"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(HeaderRequestID, "rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "rid-1", w.Header().Get(HeaderRequestID))
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, "http.request", line["msg"])
	assert.Equal(t, "/boom", line["path"])
	assert.Equal(t, float64(500), line["status"])

	buf.Reset()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	_, err := uuid.Parse(w.Header().Get(HeaderRequestID))
	assert.NoError(t, err)
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
}
