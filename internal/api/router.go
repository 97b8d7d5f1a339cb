package api

import (
	"fmt"
	"time"

	"foodsense/internal/api/handlers/food"
	"foodsense/internal/api/handlers/health"
	"foodsense/internal/api/middleware"
	"foodsense/internal/core/ai/cache"
	"foodsense/internal/core/ai/provider"
	"foodsense/internal/core/ai/queue"
	"foodsense/internal/core/analysis"
	"foodsense/internal/core/image"
	"foodsense/internal/core/knowledge"
	"foodsense/internal/infrastructure/config"
	"foodsense/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies 路由使用的服務；Provider、Queue、Cache 可為 nil。
// Deduplicator 由呼叫端建立並在關閉伺服器後 Close
type Dependencies struct {
	Knowledge    *knowledge.Base
	Analysis     *analysis.Service
	Provider     *provider.FailSoft
	Images       *image.Service
	Products     food.ProductLookup
	Queue        *queue.Manager
	Cache        cache.Store
	Deduplicator *middleware.Deduplicator
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	if deps.Knowledge == nil || deps.Analysis == nil {
		return nil, fmt.Errorf("knowledge base and analysis service are required")
	}
	if deps.Products == nil {
		return nil, fmt.Errorf("product lookup is required")
	}
	if deps.Deduplicator == nil {
		return nil, fmt.Errorf("request deduplicator is required")
	}
	if deps.Provider == nil {
		deps.Provider = provider.NewFailSoft(nil, nil, nil, nil, cfg.AI.Timeout)
	}
	if deps.Images == nil {
		deps.Images = image.NewService(cfg.Image.MaxSizeBytes)
	}

	common.LogInfo("starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.String("text_provider", deps.Provider.Name()),
		zap.String("vision_provider", deps.Provider.VisionName()),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	healthHandler := health.NewHandler(cfg.App.Version, deps.Queue, deps.Cache, deps.Provider)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	h := food.NewHandler(deps.Analysis, deps.Provider, deps.Images, deps.Products, deps.Knowledge)

	v1 := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		v1.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	v1.Use(deps.Deduplicator.Middleware())
	{
		v1.POST("/analyze", h.HandleAnalyze)
		v1.POST("/analyze/eli5", h.HandleELI5)
		v1.POST("/timeline", h.HandleTimeline)
		v1.POST("/compare", h.HandleCompare)

		nutritionGroup := v1.Group("/nutrition")
		{
			nutritionGroup.POST("/analyze", h.HandleNutritionAnalyze)
			nutritionGroup.POST("/image", h.HandleNutritionImage)
		}

		v1.POST("/vision/extract", h.HandleVisionExtract)
		v1.GET("/barcode/:code", h.HandleBarcode)
		v1.GET("/demo-products", h.HandleDemoProducts)
	}

	common.LogInfo("router setup completed",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
		zap.Duration("dedup_window", cfg.DedupWindow),
	)

	return router, nil
}
