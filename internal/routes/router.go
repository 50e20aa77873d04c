package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/NarekNk/todo-task/internal/config"
	"github.com/NarekNk/todo-task/internal/controller"
	"github.com/NarekNk/todo-task/internal/middleware"
)

func Router(cfg *config.Config, tasks *controller.Tasks) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())

	// Probes for load balancers and K8s
	router.GET("/health", tasks.Health)
	router.GET("/ready", tasks.Ready)

	// Session required for the whole resource
	api := router.Group("/api")
	api.Use(middleware.Session(cfg.JWTSecret, cfg.SessionCookie))
	{
		api.GET("/tasks", tasks.List)
		api.POST("/tasks", tasks.Create)
		api.PATCH("/tasks", tasks.Update)
		api.DELETE("/tasks", tasks.Delete)
	}

	return router
}
