// Package cache stores provider outputs (ELI5 rewrites, label OCR text)
// keyed by prompt and image. Analysis results are never cached here.
package cache

import (
	"context"
	"fmt"

	"foodsense/internal/infrastructure/config"
	"foodsense/internal/pkg/common"

	"go.uber.org/zap"
)

// Store 外部模型輸出快取
type Store interface {
	Get(ctx context.Context, prompt string, imageData []byte) (string, error)
	Set(ctx context.Context, prompt string, imageData []byte, value string) error
	Stats() map[string]interface{}
	Close() error
}

// Key 由提示詞與圖片產生快取鍵
func Key(prompt string, imageData []byte) string {
	if len(imageData) == 0 {
		return "text:" + common.HashString(prompt)
	}
	return fmt.Sprintf("multimodal:%s:%s", common.HashString(prompt), common.HashBytes(imageData))
}

// New 依設定建立快取；停用時回傳 nil。redis 連線失敗時退回記憶體快取
func New(ctx context.Context, cfg *config.CacheConfig) Store {
	if !cfg.Enabled {
		common.LogInfo("cache disabled")
		return nil
	}
	if cfg.Backend == "redis" {
		store, err := NewRedisStore(ctx, cfg)
		if err == nil {
			return store
		}
		common.LogWarn("redis unavailable, falling back to in-memory cache",
			zap.String("addr", cfg.RedisAddr),
			zap.Error(err),
		)
	}
	return NewManager(cfg)
}
