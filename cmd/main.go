package main

import (
	"EduForge/internal/app"
	"EduForge/internal/config"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.MustLoad()
	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	app.Run(cfg)
}
