package app

import (
	"net/http"

	"presensi_backend/docs"
	"presensi_backend/internal/config"
	"presensi_backend/internal/middleware"
	"presensi_backend/internal/model"
	"presensi_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	router.GET("/", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "Home Page for API")
	})

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
	}

	presensi := router.Group("/api/presensi")
	presensi.Use(middleware.AuthMiddleware(cfg))
	{
		presensi.POST("/check-in", c.presensi.CheckIn)
		presensi.POST("/check-out", c.presensi.CheckOut)
		presensi.DELETE("/:id", c.presensi.DeletePresensi)
		presensi.PUT("/:id", c.presensi.UpdatePresensi)
	}

	reports := router.Group("/api/reports")
	reports.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		reports.GET("/daily", c.report.GetDailyReport)
	}
}
