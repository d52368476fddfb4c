package controllers

import (
	"net/http"

	"github.com/beego/beego/v2/server/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aihub/rag-go/app/bootstrap"
)

// RootController 根控制器
type RootController struct {
	BaseController
}

func (c *RootController) Index() {
	c.JSONSuccess(map[string]string{"message": "RAG Chat Service API"})
}

// HealthController 健康检查控制器
type HealthController struct {
	BaseController
}

func (c *HealthController) Health() {
	app := bootstrap.GetApp()
	if app == nil || app.VectorStore == nil {
		c.JSONError(http.StatusServiceUnavailable, "application not ready")
		return
	}
	if !app.VectorStore.Ready() {
		c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"success": false,
			"data":    map[string]string{"status": "degraded", "vector_store": "unavailable"},
		})
		return
	}
	c.JSONSuccess(map[string]string{"status": "healthy"})
}

// MetricsController Prometheus指标控制器
type MetricsController struct {
	web.Controller
}

// Metrics 返回Prometheus格式的指标
func (c *MetricsController) Metrics() {
	promhttp.Handler().ServeHTTP(c.Ctx.ResponseWriter, c.Ctx.Request)
}
