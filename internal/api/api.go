// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/api/handlers"
	"github.com/andresuchdata/pharma-inventory/backend-go/internal/api/middleware"
	"github.com/andresuchdata/pharma-inventory/backend-go/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	ForecastService *service.ForecastService
}

func NewRouter(services *Services, allowedOrigins []string, apiKey string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Pharma Inventory Forecast Service",
			"health":  "/health",
		})
	})

	router.GET("/health", func(c *gin.Context) {
		loaded := 0
		if services != nil && services.ForecastService != nil {
			loaded = services.ForecastService.ModelsLoaded()
		}
		c.JSON(http.StatusOK, gin.H{
			"status":        "healthy",
			"models_loaded": loaded,
			"timestamp":     time.Now().Format(time.RFC3339),
		})
	})

	apiGroup := router.Group("/api/v1")
	apiGroup.Use(middleware.APIKeyAuth(apiKey))

	if services != nil && services.ForecastService != nil {
		forecastHandler := handlers.NewForecastHandler(services.ForecastService)

		apiGroup.GET("/models", forecastHandler.ListModels)
		apiGroup.POST("/models/reload", forecastHandler.ReloadModels)

		forecastGroup := apiGroup.Group("/forecast")
		{
			forecastGroup.POST("/all", forecastHandler.ForecastAll)
			forecastGroup.POST("/:drug_id", forecastHandler.Forecast)
			forecastGroup.POST("/:drug_id/detailed", forecastHandler.ForecastDetailed)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
