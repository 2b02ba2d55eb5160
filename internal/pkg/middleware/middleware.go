package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-search-core/internal/pkg/logger"
)

// LoggerMiddleware logs every HTTP request via zap, status-bucketed into
// Info/Warn/Error the way the rest of this service logs.
func LoggerMiddleware() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("sessionId", sessionIDFromContext(c)),
		}
		if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
			fields = append(fields, zap.String("error", msg))
		}

		switch {
		case c.Writer.Status() >= 500:
			logger.Log.Error("http request", fields...)
		case c.Writer.Status() >= 400:
			logger.Log.Warn("http request", fields...)
		default:
			logger.Log.Info("http request", fields...)
		}
	})
}

func sessionIDFromContext(c *gin.Context) string {
	if v, ok := c.Get("sessionID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// SecurityMiddleware sets the baseline response headers for a JSON API;
// there is no CSP allow-list here since this service serves no HTML.
func SecurityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// ObservabilityMiddleware wraps every request in a span so traceIDFor has a
// real trace id to echo into error bodies. Request metrics are recorded by
// this service's own Prometheus collectors rather than from here.
func ObservabilityMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("searchengine")
	return gin.HandlerFunc(func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+c.FullPath())
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		span.SetAttributes(
			attribute.Int("http.status_code", c.Writer.Status()),
			attribute.String("http.method", c.Request.Method),
		)
	})
}
