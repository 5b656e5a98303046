package middleware

import (
	"fmt"
	"time"

	apperrors "github.com/NomadCrew/customer-feedback-portal/errors"
	"github.com/NomadCrew/customer-feedback-portal/logger"
	"github.com/NomadCrew/customer-feedback-portal/services"
	"github.com/gin-gonic/gin"
)

// SubmissionRateLimiter caps the number of submissions per client IP within
// window. Counting failures let the request through.
func SubmissionRateLimiter(limiter services.RateLimiterInterface, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("submit:%s", c.ClientIP())

		allowed, retryAfter, err := limiter.CheckLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.GetLogger().Warnw("Rate limit check failed, allowing request", "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))

		if !allowed {
			if retryAfter <= 0 {
				retryAfter = window
			}
			seconds := int(retryAfter.Seconds())
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(retryAfter).Unix()))
			c.Header("Retry-After", fmt.Sprintf("%d", seconds))

			_ = c.Error(apperrors.RateLimitExceeded("Too many submissions. Please try again later.", seconds))
			c.Abort()
			return
		}

		c.Next()
	}
}
