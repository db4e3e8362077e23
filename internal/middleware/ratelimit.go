package middleware

import (
	"errors"
	"net/http"

	"github.com/mateuscastro5/gym-api/internal/ratelimit"
	"github.com/mateuscastro5/gym-api/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RateLimit throttles requests per client IP within scope. A nil limiter
// disables it; backend errors let the request through.
func RateLimit(l *ratelimit.Limiter, scope string, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}

		err := l.Allow(c.Request.Context(), scope, c.ClientIP())
		switch {
		case err == nil:
		case errors.Is(err, ratelimit.ErrRateLimited):
			util.Error(c, http.StatusTooManyRequests, util.CodeRateLimited, "too many requests, try again later")
			c.Abort()
			return
		default:
			log.WithError(err).WithField("scope", scope).Warn("rate limiter unavailable, allowing request")
		}
		c.Next()
	}
}
