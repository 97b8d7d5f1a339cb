package provider

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI 相容端點的預設位址
const (
	GroqBaseURL     = "https://api.groq.com/openai/v1"
	DeepSeekBaseURL = "https://api.deepseek.com"
)

// OpenAI OpenAI 相容 API 後端（OpenAI、Groq、DeepSeek）
type OpenAI struct {
	name        string
	client      *openai.Client
	model       string
	visionModel string
}

// NewOpenAI 建立後端；baseURL 為空時使用 OpenAI 官方端點，visionModel 為空時不支援影像
func NewOpenAI(name, apiKey, baseURL, model, visionModel string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{
		name:        name,
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		visionModel: visionModel,
	}
}

// Name 名稱
func (o *OpenAI) Name() string { return o.name }

// GenerateText 產生文字
func (o *OpenAI) GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return o.complete(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.3,
	})
}

// ExtractTextFromImage 以視覺模型讀取圖片文字
func (o *OpenAI) ExtractTextFromImage(ctx context.Context, image []byte) (string, error) {
	if o.visionModel == "" {
		return "", ErrUnsupported
	}
	return o.complete(ctx, openai.ChatCompletionRequest{
		Model: o.visionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: VisionPrompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: DataURI(image), Detail: openai.ImageURLDetailAuto},
					},
				},
			},
		},
		MaxTokens: 2048,
	})
}

func (o *OpenAI) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s chat completion failed: %w", o.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in %s response", o.name)
	}
	return resp.Choices[0].Message.Content, nil
}
