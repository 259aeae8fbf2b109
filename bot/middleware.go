package bot

import (
	"net/http"

	"max-webhook-bot/internal/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
)

// MaxBody ограничивает размер тела запроса
func MaxBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

// LimitConcurrency не больше n одновременно обрабатываемых событий, остальные ждут своей очереди
func LimitConcurrency(n int64) gin.HandlerFunc {
	if n <= 0 {
		n = 1
	}
	sem := semaphore.NewWeighted(n)

	return func(c *gin.Context) {
		if err := sem.Acquire(c.Request.Context(), 1); err != nil {
			logger.Warning("Request cancelled while waiting for a free worker:", err)
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		defer sem.Release(1)

		c.Next()
	}
}
