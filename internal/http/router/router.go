package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/scam-report-bot/internal/http/handlers"
)

// SetupRouter — служебный HTTP: только проверка здоровья для оркестратора.
func SetupRouter(production bool, healthHandler *handlers.HealthHandler) *gin.Engine {
	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", healthHandler.Health)
	return r
}
