// Package handlers implements the public HTTP API: scan creation and
// retrieval, profile synthesis, guided tasting flows, and tasting history.
//
// All failures go through fail(), which writes the shared ErrorResponse
// envelope with a stable machine-readable code, echoes the request id, and
// logs 5xx responses with request context. Success bodies are endpoint
// specific; ok() and noContent() keep their shape uniform.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vinobytes/somm-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope every endpoint returns on failure.
// Code is one of the constants in errors.go and is safe to branch on;
// Message is for humans and may change between releases.
type ErrorResponse struct {
	// Correlates this error with server logs
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable machine-readable code (see errors.go)
	Code string `json:"code" example:"not_found"`
	// Human-readable description, safe to show to users
	Message string `json:"message" example:"resource not found"`
}

// fail aborts the request with an ErrorResponse at the given status. Server
// errors additionally hit the request-scoped log so a request id found in a
// client report can be traced.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail exposes fail() to the router for NoRoute/NoMethod fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
