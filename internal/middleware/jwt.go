package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	CtxUserID    = "user_id"
	CtxUserEmail = "user_email"

	renewWithin = 24 * time.Hour
)

// Tokens signs and verifies the HS256 session tokens handed out at login.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

func (t *Tokens) Issue(uid uuid.UUID, email string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":   uid.String(),
		"email": email,
		"exp":   time.Now().Add(t.ttl).Unix(),
	}).SignedString(t.secret)
}

// Parse validates a token and returns its subject.
func (t *Tokens) Parse(raw string) (uuid.UUID, string, time.Time, error) {
	token, err := jwt.Parse(raw, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return uuid.Nil, "", time.Time{}, fmt.Errorf("invalid token: %w", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	uidStr, _ := claims["uid"].(string)
	uid, err := uuid.Parse(uidStr)
	if err != nil {
		return uuid.Nil, "", time.Time{}, fmt.Errorf("invalid uid claim: %w", err)
	}
	email, _ := claims["email"].(string)
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return uuid.Nil, "", time.Time{}, fmt.Errorf("invalid exp claim: %w", err)
	}
	return uid, email, exp.Time, nil
}

// JWTAuth rejects requests without a valid bearer token and stores the user
// id under CtxUserID. Tokens within a day of expiry are renewed through the
// X-New-Token response header.
func JWTAuth(t *Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		uid, email, exp, err := t.Parse(auth[7:])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(CtxUserID, uid)
		c.Set(CtxUserEmail, email)

		if time.Until(exp) < renewWithin {
			if fresh, err := t.Issue(uid, email); err == nil {
				c.Header("X-New-Token", fresh)
			}
		}

		c.Next()
	}
}
