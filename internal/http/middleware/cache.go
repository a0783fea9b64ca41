package middleware

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/andeslabs/bancora/internal/repository"
)

type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache serves successful GET responses from the shared key-value
// backend, keyed by request path. Authentication endpoints are never cached.
func ResponseCache(cache repository.ResponseCache, ttl time.Duration, skipPrefixes []string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		path := c.Request.URL.Path
		for _, prefix := range skipPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		if payload, err := cache.Get(c.Request.Context(), path); err != nil {
			logger.Warn("response cache read failed", zap.Error(err))
		} else if len(payload) > 0 {
			c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
			c.Abort()
			return
		}

		writer := &captureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer
		c.Next()

		if writer.Status() != http.StatusOK || writer.body.Len() == 0 {
			return
		}
		if err := cache.Set(c.Request.Context(), path, writer.body.Bytes(), ttl); err != nil {
			logger.Warn("response cache write failed", zap.Error(err))
		}
	}
}
