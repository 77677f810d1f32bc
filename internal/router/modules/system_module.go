package modules

import (
	"expvar"
	"net/http"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-user-accounts/internal/interface/http"
)

// SystemModule serves the health check, Prometheus metrics and, when
// enabled, the expvar debug page.
type SystemModule struct {
	Handler      *handlers.SystemHandler
	Metrics      http.Handler
	DebugMetrics bool
}

func NewSystemModule(h *handlers.SystemHandler, metrics http.Handler, debugMetrics bool) *SystemModule {
	return &SystemModule{Handler: h, Metrics: metrics, DebugMetrics: debugMetrics}
}

func (m *SystemModule) Register(rg *gin.RouterGroup) {
	rg.GET("/health", m.Handler.Health)
	if m.Metrics != nil {
		rg.GET("/metrics", gin.WrapH(m.Metrics))
	}
	if m.DebugMetrics {
		rg.GET("/debug/vars", gin.WrapH(expvar.Handler()))
	}
}
