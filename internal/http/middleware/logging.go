// Package middleware contains the shared Gin middleware for the HTTP layer:
// request correlation, access logging with PII scrubbing, panic recovery,
// Prometheus instrumentation, idempotency validation, rate limiting, and
// security headers.
package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDHeader = "X-Request-ID"
	userIDHeader    = "X-User-ID"
	requestIDKey    = "requestID"
	ctxKeyLogger    = "logger"
)

// RequestID propagates the caller's X-Request-ID or mints a UUIDv4 when the
// header is absent. The id is set on the response header and stored in the
// Gin context for downstream logging and error envelopes. Install this first
// so every later middleware sees the id.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// Recovery converts panics into a JSON 500 carrying the request id, after
// logging the panic value and stack. If the handler already wrote a response
// only the status is forced.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := ctxString(c, requestIDKey)
			log.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", rid).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header("Content-Type", "application/json")
			c.Header(requestIDHeader, rid)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": rid,
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger attached by RedactingLogger.
// The result is never nil; without an attached logger the process-global
// logger is returned.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(ctxKeyLogger); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// userIdentity resolves the caller the same way the handlers do: the userID
// context value set by auth middleware, else the X-User-ID header the mobile
// client sends, else the demo fallback. Middleware that attributes work to a
// user (idempotency replay, access logging) must use this rather than the
// context value alone, or header-identified clients resolve to the wrong user.
func userIdentity(c *gin.Context) string {
	if uid := ctxString(c, "userID"); uid != "" {
		return uid
	}
	if uid := strings.TrimSpace(c.GetHeader(userIDHeader)); uid != "" {
		return uid
	}
	return "demo-user"
}

// ctxString reads a string value from the Gin context, returning "" for
// missing or non-string values.
func ctxString(c *gin.Context, key string) string {
	if v, ok := c.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
