package router

import (
	"github.com/beego/beego/v2/server/web"

	"github.com/aihub/rag-go/app/controllers"
)

// Init registers all routes. Must be called after bootstrap.
func Init() {
	web.Router("/", &controllers.RootController{}, "get:Index")
	web.Router("/health", &controllers.HealthController{}, "get:Health")
	web.Router("/metrics", &controllers.MetricsController{}, "get:Metrics")

	web.Router("/api/v1/chat", &controllers.ChatController{}, "post:Chat")
}
