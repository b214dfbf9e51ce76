package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/spigell/teacherlink-search/internal/logger"
	"github.com/spigell/teacherlink-search/internal/metrics"
)

const (
	headerRequestID  = "X-Request-ID"
	contextRequestID = "request_id"
)

// requestID reuses an incoming X-Request-ID or generates a new one.
func (s *Server) requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(contextRequestID, id)
		c.Response().Header().Set(headerRequestID, id)
		return next(c)
	}
}

func requestIDFrom(c echo.Context) string {
	id, _ := c.Get(contextRequestID).(string)
	return id
}

// accessLog logs every request and counts it by route and status.
func (s *Server) accessLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		started := time.Now()

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		status := c.Response().Status
		route := c.Path()
		if route == "" {
			route = "unknown"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()

		log := logger.WithFields(s.logger, logger.StringFields(
			logger.StringField{Key: logger.FieldRequestID, Value: requestIDFrom(c)},
		)...)
		log.Debug("request served",
			zap.String("method", c.Request().Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("took", time.Since(started)),
			zap.String("remote_ip", c.RealIP()),
		)

		return nil
	}
}

// rateLimit rejects clients that exceed their per IP budget.
func (s *Server) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.limiter.Allow("ip:" + c.RealIP()) {
			return next(c)
		}

		metrics.RateLimitHits.Inc()
		s.logger.Info("rate limit exceeded",
			zap.String("remote_ip", c.RealIP()),
			zap.String("endpoint", c.Request().URL.Path),
		)
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
	}
}
