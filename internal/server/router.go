package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/finboard-backend/internal/handlers"
)

type RouterConfig struct {
	DataHandler *handlers.DataHandler
	SyncHandler *handlers.SyncHandler
	CORSOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/data", cfg.DataHandler.GetAllData)
		api.GET("/data/:entity", cfg.DataHandler.GetEntityData)

		api.GET("/sync/state", cfg.SyncHandler.GetState)
		api.POST("/sync/refresh", cfg.SyncHandler.Refresh)
		api.POST("/sync/errors/clear", cfg.SyncHandler.ClearError)
		api.GET("/sync/chaos", cfg.SyncHandler.GetChaos)
		api.POST("/sync/chaos", cfg.SyncHandler.SetChaos)
	}

	return router
}
