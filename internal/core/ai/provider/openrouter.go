package provider

import (
	"context"
	"fmt"
	"net/http"

	"foodsense/internal/infrastructure/config"
	"foodsense/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// chatMessage 聊天訊息；Content 可為字串或多模態內容陣列
type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// contentPart 多模態內容
type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

// imageURL 圖片位址
type imageURL struct {
	URL string `json:"url"`
}

// chatRequest chat/completions 請求
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

// chatResponse chat/completions 回應
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// OpenRouter OpenRouter chat/completions 後端
type OpenRouter struct {
	client      *resty.Client
	model       string
	visionModel string
}

// NewOpenRouter 建立 OpenRouter 後端
func NewOpenRouter(cfg config.OpenRouterConfig) *OpenRouter {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("Content-Type", "application/json").
		SetHeader("HTTP-Referer", "https://foodsense.app").
		SetHeader("X-Title", "FoodSense")

	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = cfg.Model
	}
	return &OpenRouter{client: client, model: cfg.Model, visionModel: visionModel}
}

// Name 名稱
func (o *OpenRouter) Name() string { return "openrouter" }

// GenerateText 產生文字
func (o *OpenRouter) GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return o.chat(ctx, o.model, prompt, maxTokens)
}

// ExtractTextFromImage 以視覺模型讀取圖片文字
func (o *OpenRouter) ExtractTextFromImage(ctx context.Context, image []byte) (string, error) {
	content := []contentPart{
		{Type: "text", Text: VisionPrompt},
		{Type: "image_url", ImageURL: &imageURL{URL: DataURI(image)}},
	}
	return o.chat(ctx, o.visionModel, content, 2048)
}

func (o *OpenRouter) chat(ctx context.Context, model string, content interface{}, maxTokens int) (string, error) {
	req := chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: content}},
		MaxTokens:   maxTokens,
		Temperature: 0.3,
	}

	var result chatResponse
	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("OpenRouter returned status %d: %s", resp.StatusCode(), sanitizeBody(resp.Body()))
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenRouter response")
	}

	common.LogDebug("OpenRouter response received",
		zap.String("model", model),
		zap.Int("total_tokens", result.Usage.TotalTokens),
	)
	return result.Choices[0].Message.Content, nil
}
