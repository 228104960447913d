package logging

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// GinLogger logs one line per request with the route, status and latency.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= 500:
			ev = Get().Error()
		case status >= 400:
			ev = Get().Warn()
		default:
			ev = Get().Info()
		}

		ev = ev.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status_code", status).
			Str("client_ip", c.ClientIP()).
			Dur("elapsed", time.Since(start)).
			Int("data_length", c.Writer.Size())
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.ByType(gin.ErrorTypeAny).String())
		}
		ev.Msg("request")
	}
}
