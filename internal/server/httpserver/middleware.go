package httpserver

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	maxRequestIDLen = 64
)

// requestID reuses a sane incoming X-Request-ID or generates one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger logs one line per request. The path is the route template
// (for example /login/:name/:password/), so credentials carried in the URL
// never reach the log.
func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"request_id", c.GetString(requestIDKey),
		)
	}
}

func (s *HTTPServer) recoverPanic(c *gin.Context, recovered any) {
	s.logger.Error(c.Request.Context(), "panic recovered",
		"panic", recovered,
		"request_id", c.GetString(requestIDKey),
	)
	respondDetail(c, http.StatusInternalServerError, msgInternal)
}

// loginThrottle limits login attempts per client address. Limiter errors
// let the request through.
func (s *HTTPServer) loginThrottle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		d, err := s.limiter.Allow(ctx, c.ClientIP())
		if err != nil {
			s.logger.Warn(ctx, "login throttle unavailable", "error", err)
			c.Next()
			return
		}
		if !d.Allowed {
			secs := int(math.Ceil(d.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(secs))
			respondDetail(c, http.StatusTooManyRequests, msgThrottled)
			return
		}
		c.Next()
	}
}
