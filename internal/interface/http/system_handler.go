package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-accounts/pkg/response"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type SystemHandler struct {
	Store  Pinger
	Logger *logrus.Logger
}

func NewSystemHandler(store Pinger, logger *logrus.Logger) *SystemHandler {
	return &SystemHandler{Store: store, Logger: logger}
}

func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Warn("health check failed")
		}
		response.Error(c, http.StatusServiceUnavailable, "Store unavailable", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"store": "up"}, "OK", nil)
}
