package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"promomarket/pkg/logger"
	"promomarket/pkg/metrics"
)

const (
	serviceName = "storefront-service"
	adminRole   = "admin"
)

// SetupRoutes настраивает все маршруты API витрины
func SetupRoutes(h *StorefrontHandler, authMiddleware *AuthMiddleware, health *HealthCheckHandler, allowOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinPrometheusMiddleware(serviceName))

	if len(allowOrigins) == 0 {
		allowOrigins = []string{"https://*", "http://*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowWildcard:    true,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", logger.RequestIDHeader},
		ExposeHeaders:    []string{logger.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
		})
	})
	if health != nil {
		router.GET("/health/readiness", gin.WrapF(health.Readiness))
		router.GET("/health/liveness", gin.WrapF(health.Liveness))
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")

	// Публичные витринные подборки
	catalog := api.Group("/catalog")
	{
		catalog.GET("/recommended", h.Recommended)
		catalog.GET("/top-offers", h.TopOffers)
		catalog.GET("/most-popular", h.MostPopular)
		catalog.GET("/latest", h.LatestItems)
		catalog.GET("/flash-sale", h.FlashSale)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.Authenticate())
	{
		protected.PUT("/events/reviews", h.SubmitEventReview)
		protected.PUT("/products/reviews", h.SubmitProductReview)

		orders := protected.Group("/orders")
		orders.GET("/history", h.GetOrderHistory)
		orders.GET("/stats", h.GetOrderStats)
		orders.GET("/:order_id", h.GetOrderDetails)
	}

	// Операторские эндпоинты
	admin := api.Group("")
	admin.Use(authMiddleware.Authenticate())
	admin.Use(authMiddleware.RequireRole(adminRole))
	{
		admin.POST("/reviews/resync", h.Resync)
		admin.GET("/reconciliation/runs", h.ListRuns)
		admin.GET("/reconciliation/runs/:run_id", h.GetRun)
	}

	return router
}
