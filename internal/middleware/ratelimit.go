package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/trustreach/verifyd/internal/verification"
	appErrors "github.com/trustreach/verifyd/pkg/errors"
	"github.com/trustreach/verifyd/pkg/logger"
	"github.com/trustreach/verifyd/pkg/response"
)

// KeyFunc derives the rate limiting bucket for a request.
type KeyFunc func(c *gin.Context) string

// KeyByClientIP buckets requests per (clientIP, route). It is the default
// keying strategy for the verification endpoints.
func KeyByClientIP(c *gin.Context) string {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	return c.ClientIP() + "|" + path
}

const maxKeyedBodyBytes = 64 << 10

// KeyByRequestEmail buckets issuance requests by the normalized email in the
// JSON payload, so one address cannot be flooded from rotating IPs. Falls
// back to client IP keying when the body carries no email.
func KeyByRequestEmail(c *gin.Context) string {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxKeyedBodyBytes+1))
	// Stitch the unread remainder back on so the handler always sees the
	// full body, whatever was peeked here.
	c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), c.Request.Body))
	if err != nil || len(body) > maxKeyedBodyBytes {
		return KeyByClientIP(c)
	}

	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return KeyByClientIP(c)
	}

	email := verification.NormalizeEmail(payload.Email)
	if email == "" {
		return KeyByClientIP(c)
	}
	return "email|" + email
}

// RateLimit limits requests per key within a fixed window. When the store
// fails the request is allowed through so that a limiter outage never takes
// the verification flow down with it.
func RateLimit(store RateStore, maxRequests int, window time.Duration, keyFn KeyFunc) gin.HandlerFunc {
	if keyFn == nil {
		keyFn = KeyByClientIP
	}

	return func(c *gin.Context) {
		if store == nil || maxRequests <= 0 || window <= 0 {
			c.Next()
			return
		}

		key := keyFn(c)
		count, ttl, err := store.Increment(c.Request.Context(), key, window)
		if err != nil {
			logger.WithModule("http").Warn("rate limit store unavailable, allowing request",
				zap.Error(err),
			)
			c.Next()
			return
		}

		remaining := maxRequests - count
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(ttl.Seconds())))

		if count > maxRequests {
			c.Abort()
			response.Error(c, appErrors.ErrRateLimit)
			return
		}

		c.Next()
	}
}
