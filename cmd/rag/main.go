package main

import (
	"log"
	"os"
	"strconv"

	"github.com/beego/beego/v2/server/web"
	"go.uber.org/zap"

	"github.com/aihub/rag-go/app/bootstrap"
	"github.com/aihub/rag-go/app/router"
	"github.com/aihub/rag-go/internal/config"
	"github.com/aihub/rag-go/internal/logger"
)

func main() {
	// 在bootstrap之前设置端口，保证默认8001
	port := os.Getenv("RAG_SERVER_PORT")
	if port == "" {
		port = "8001"
	}
	if p, err := strconv.Atoi(port); err == nil {
		web.BConfig.Listen.HTTPPort = p
	} else {
		web.BConfig.Listen.HTTPPort = 8001
	}

	app, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("failed to bootstrap application: %v", err)
	}
	defer app.Shutdown()

	if p, err := strconv.Atoi(config.AppConfig.Server.Port); err == nil {
		web.BConfig.Listen.HTTPPort = p
	}

	router.Init()

	web.BConfig.AppName = "RAG Chat Service"
	web.BConfig.CopyRequestBody = true

	logger.Info("Starting RAG Chat Service", zap.Int("port", web.BConfig.Listen.HTTPPort))
	web.Run()
}
