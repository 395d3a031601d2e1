package server

import (
	"log/slog"
	"net/http"
	"time"

	"pulse/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequireSessionMiddleware validates the session cookie and injects the
// authenticated user into the request context. Requests without a valid
// session are rejected.
func RequireSessionMiddleware(sessions session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		dropIdentityHeaders(c)

		sessionID, err := c.Cookie("session_id")
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized: no session cookie",
			})
			return
		}

		sess, err := sessions.Get(c.Request.Context(), sessionID)
		if err != nil {
			slog.Warn("Invalid session",
				"error", err.Error(),
				"request_id", c.GetString("request_id"),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized: invalid session",
			})
			return
		}

		injectUser(c, sess)
		c.Next()
	}
}

// OptionalSessionMiddleware resolves the session when a cookie is present
// but lets anonymous requests through. Read endpoints use it so viewers
// see their own like state without requiring login.
func OptionalSessionMiddleware(sessions session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		dropIdentityHeaders(c)

		sessionID, err := c.Cookie("session_id")
		if err != nil {
			c.Next()
			return
		}

		if sess, err := sessions.Get(c.Request.Context(), sessionID); err == nil {
			injectUser(c, sess)
		}
		c.Next()
	}
}

// dropIdentityHeaders removes client-supplied identity headers. Handlers trust
// X-User-ID, so only a resolved session may set it; anything arriving on the
// wire is a forgery attempt.
func dropIdentityHeaders(c *gin.Context) {
	c.Request.Header.Del("X-User-ID")
	c.Request.Header.Del("X-User-Email")
}

func injectUser(c *gin.Context, sess *session.Session) {
	c.Set("user_id", sess.UserID)
	c.Set("email", sess.Email)

	// handlers read identity from headers
	c.Request.Header.Set("X-User-ID", sess.UserID)
	c.Request.Header.Set("X-User-Email", sess.Email)
}

// RequestIDMiddleware generates a unique request ID for log correlation
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// LoggingMiddleware logs every request with structured attributes
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)

		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		status := c.Writer.Status()

		// gin reports -1 when no body was written
		size := c.Writer.Size()
		if size < 0 {
			size = 0
		}

		attrs := []any{
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency_ms", float64(latency.Milliseconds()),
			"client_ip", c.ClientIP(),
			"response_size", size,
		}

		if query != "" {
			attrs = append(attrs, "query", query)
		}
		if userID, exists := c.Get("user_id"); exists {
			attrs = append(attrs, "user_id", userID)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			slog.Error("Request failed - server error", attrs...)
		case status >= 400:
			slog.Warn("Request failed - client error", attrs...)
		default:
			slog.Info("Request completed", attrs...)
		}
	}
}
