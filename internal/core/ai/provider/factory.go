package provider

import (
	"context"
	"strings"

	"foodsense/internal/core/ai/cache"
	"foodsense/internal/core/ai/queue"
	"foodsense/internal/infrastructure/config"
	"foodsense/internal/pkg/common"

	"go.uber.org/zap"
)

// New 依設定選擇文字與影像後端；未知或缺少金鑰的設定退回 none，不會讓啟動失敗
func New(ctx context.Context, cfg *config.Config, store cache.Store, q *queue.Manager) *FailSoft {
	text := TextBackend(cfg)
	vision := VisionBackend(ctx, cfg)

	common.LogInfo("model providers configured",
		zap.String("text_provider", text.Name()),
		zap.String("vision_provider", vision.Name()),
		zap.Duration("timeout", cfg.AI.Timeout),
	)
	return NewFailSoft(text, vision, store, q, cfg.AI.Timeout)
}

// TextBackend 依 ai.text_provider 建立文字後端
func TextBackend(cfg *config.Config) Backend {
	name := strings.ToLower(strings.TrimSpace(cfg.AI.TextProvider))
	switch name {
	case "", NameNone:
		return None{}
	case "openrouter":
		if cfg.OpenRouter.APIKey != "" {
			return NewOpenRouter(cfg.OpenRouter)
		}
	case "openai":
		if cfg.OpenAI.APIKey != "" {
			return NewOpenAI("openai", cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, "")
		}
	case "groq":
		if cfg.OpenAI.GroqAPIKey != "" {
			return NewOpenAI("groq", cfg.OpenAI.GroqAPIKey, GroqBaseURL, cfg.OpenAI.GroqModel, "")
		}
	case "deepseek":
		if cfg.OpenAI.DeepSeekAPIKey != "" {
			return NewOpenAI("deepseek", cfg.OpenAI.DeepSeekAPIKey, DeepSeekBaseURL, cfg.OpenAI.DeepSeekModel, "")
		}
	case "gemini":
		if cfg.Gemini.APIKey != "" {
			return NewGemini(cfg.Gemini)
		}
	default:
		common.LogWarn("unknown text provider, model features disabled", zap.String("provider", name))
		return None{}
	}
	common.LogWarn("text provider has no api key, model features disabled", zap.String("provider", name))
	return None{}
}

// VisionBackend 依 ai.vision_provider 建立影像後端
func VisionBackend(ctx context.Context, cfg *config.Config) Backend {
	name := strings.ToLower(strings.TrimSpace(cfg.AI.VisionProvider))
	switch name {
	case "", NameNone:
		return None{}
	case "openrouter":
		if cfg.OpenRouter.APIKey != "" {
			return NewOpenRouter(cfg.OpenRouter)
		}
	case "openai":
		if cfg.OpenAI.APIKey != "" {
			return NewOpenAI("openai", cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.OpenAI.VisionModel)
		}
	case "gemini":
		if cfg.Gemini.APIKey != "" {
			return NewGemini(cfg.Gemini)
		}
	case "rekognition":
		if cfg.Rekognition.Region == "" {
			common.LogWarn("rekognition needs a region, vision disabled")
			return None{}
		}
		backend, err := NewRekognition(ctx, cfg.Rekognition)
		if err != nil {
			common.LogWarn("failed to initialize rekognition, vision disabled", zap.Error(err))
			return None{}
		}
		return backend
	default:
		common.LogWarn("unknown vision provider, image features disabled", zap.String("provider", name))
		return None{}
	}
	common.LogWarn("vision provider has no api key, image features disabled", zap.String("provider", name))
	return None{}
}
