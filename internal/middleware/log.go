package middleware

import (
	"time"

	"github.com/mateuscastro5/gym-api/internal/audit"

	"github.com/gin-gonic/gin"
	"github.com/nrednav/cuid2"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

// RequestID tags every request with an id, reusing the caller's when sent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = cuid2.Generate()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// ClientContext puts the caller's IP and user agent into the request context
// so audit records can pick them up.
func ClientContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := audit.WithClient(c.Request.Context(), audit.Client{
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AccessLog writes one line per request.
func AccessLog(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
			"request_id": c.GetString(requestIDKey),
		}
		if acc, ok := CurrentAccount(c); ok {
			fields["account_id"] = acc.ID
		}

		entry := log.WithFields(fields)
		if len(c.Errors) > 0 {
			entry.WithError(c.Errors.Last()).Warn("visit")
			return
		}
		entry.Info("visit")
	}
}
