package stubapp

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger emits one structured log line per handled request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(ginContext *gin.Context) {
		start := time.Now()
		ginContext.Next()
		logger.Info("http",
			zap.String("method", ginContext.Request.Method),
			zap.String("path", ginContext.Request.URL.Path),
			zap.Int("status", ginContext.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
		)
	}
}
