package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/andeslabs/bancora/internal/adapter/bank"
	"github.com/andeslabs/bancora/internal/service"
)

// respondError maps service and provider failures to HTTP responses.
// Unexpected errors are logged and surface as a generic 500; internal
// detail never reaches the caller.
func respondError(c *gin.Context, err error) {
	var apiErr *service.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusUnauthorized {
			c.Header("WWW-Authenticate", "Bearer")
		}
		c.JSON(apiErr.Status, gin.H{"detail": apiErr.Message})
		return
	}

	var providerErr *bank.ProviderError
	if errors.As(err, &providerErr) {
		c.JSON(providerErr.Status, gin.H{"detail": providerErr.Detail})
		return
	}

	zap.L().Error("request failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
}
