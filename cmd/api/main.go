package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodsense/internal/api"
	"foodsense/internal/api/middleware"
	"foodsense/internal/core/ai/cache"
	"foodsense/internal/core/ai/provider"
	"foodsense/internal/core/ai/queue"
	"foodsense/internal/core/analysis"
	"foodsense/internal/core/barcode"
	"foodsense/internal/core/image"
	"foodsense/internal/core/knowledge"
	"foodsense/internal/infrastructure/config"
	"foodsense/internal/pkg/common"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("config loaded",
		zap.String("text_provider", cfg.AI.TextProvider),
		zap.String("vision_provider", cfg.AI.VisionProvider),
		zap.String("openrouter_api_key", common.MaskSecret(cfg.OpenRouter.APIKey)),
		zap.String("openai_api_key", common.MaskSecret(cfg.OpenAI.APIKey)),
		zap.String("gemini_api_key", common.MaskSecret(cfg.Gemini.APIKey)),
	)

	// 知識庫
	base, err := knowledge.Default()
	if err != nil {
		common.LogFatal("Failed to load knowledge base", zap.Error(err))
	}

	ctx := context.Background()

	// 快取與隊列
	store := cache.New(ctx, &cfg.Cache)
	q := queue.NewManager(&cfg.Queue)

	// 外部模型與服務
	p := provider.New(ctx, cfg, store, q)
	svc := analysis.NewService(base, p, analysis.ConfigFrom(cfg))

	dedup := middleware.NewDeduplicator(cfg.DedupWindow)

	router, err := api.SetupRouter(cfg, api.Dependencies{
		Knowledge:    base,
		Analysis:     svc,
		Provider:     p,
		Images:       image.NewService(cfg.Image.MaxSizeBytes),
		Products:     barcode.NewClient(cfg.Barcode),
		Queue:        q,
		Cache:        store,
		Deduplicator: dedup,
	})
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("starting foodsense",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
			zap.Int("ingredients", len(base.Keys())),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server",
				zap.Error(err),
			)
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("shutting down server...")

	// 設置關閉超時
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown",
			zap.Error(err),
		)
	}

	dedup.Close()
	q.Close()
	if store != nil {
		if err := store.Close(); err != nil {
			common.LogWarn("cache close failed", zap.Error(err))
		}
	}

	common.LogInfo("server exited")
}
