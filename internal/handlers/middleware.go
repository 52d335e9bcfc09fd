package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Leganyst/booking-core/internal/validation"
)

const (
	OwnerHeader = "X-Owner-ID"

	ctxLogger = "logger"
	ctxOwner  = "owner_id"
)

// RequestLogger кладёт логгер в контекст и пишет итог каждого запроса.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(ctxLogger, log)
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("http request failed", fields...)
			return
		}
		log.Debug("http request", fields...)
	}
}

// RequireOwner пропускает запрос только с корректным X-Owner-ID.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, err := validation.NormalizeOwnerID(c.GetHeader(OwnerHeader))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "missing or invalid '" + OwnerHeader + "' header",
			})
			return
		}
		c.Set(ctxOwner, owner)
		c.Next()
	}
}

func getLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get(ctxLogger); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return zap.NewNop()
}

func ownerOf(c *gin.Context) string {
	return c.GetString(ctxOwner)
}
