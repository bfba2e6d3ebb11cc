package server

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fleveque/scene-finder/internal/config"
	"github.com/fleveque/scene-finder/internal/handler"
	"github.com/fleveque/scene-finder/internal/middleware"
)

// RegisterRoutes sets up all HTTP routes on the Gin engine.
// Each handler gets exactly the dependencies it needs.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps *Deps, logger *zap.Logger) {
	healthHandler := handler.NewHealthHandler(deps.VisionProvider, deps.SearchConfigured)
	identifyHandler := handler.NewIdentifyHandler(deps.MovieService, cfg.Server.MaxUploadBytes(), logger)
	adminHandler := handler.NewAdminHandler(deps.CallRepo, logger)

	// Public endpoints (no auth)
	r.GET("/healthz", healthHandler.Healthz)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	api.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	// Preflights never reach a handler; CORS answers them.
	api.OPTIONS("/*path", func(*gin.Context) {})

	identify := api.Group("")
	identify.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	identify.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	{
		identify.POST("/identify", identifyHandler.Identify)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminKeyAuth(cfg.Auth.AdminKeys))
	{
		admin.GET("/stats", adminHandler.Stats)
		admin.GET("/calls", adminHandler.RecentCalls)
		admin.GET("/calls/:id", adminHandler.GetCall)
	}

	r.NoRoute(staticFallback(cfg.Server.StaticDir, logger))
}

// staticFallback serves the browser frontend for any path no route matched.
// API paths and non-GET methods still get a JSON 404.
func staticFallback(dir string, logger *zap.Logger) gin.HandlerFunc {
	notFound := func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	}

	if dir == "" {
		return notFound
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		logger.Warn("static directory not found, frontend disabled", zap.String("dir", dir))
		return notFound
	}

	files := http.FileServer(gin.Dir(dir, false))
	return func(c *gin.Context) {
		method := c.Request.Method
		if (method != http.MethodGet && method != http.MethodHead) || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			notFound(c)
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}
