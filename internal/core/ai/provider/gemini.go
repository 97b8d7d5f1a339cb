package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"foodsense/internal/infrastructure/config"

	"github.com/go-resty/resty/v2"
)

// geminiPart generateContent 內容片段
type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

// geminiInlineData 內嵌圖片
type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
		Temperature     float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// Gemini Google Gemini generateContent 後端
type Gemini struct {
	client *resty.Client
	model  string
}

// NewGemini 建立 Gemini 後端
func NewGemini(cfg config.GeminiConfig) *Gemini {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("x-goog-api-key", cfg.APIKey).
		SetHeader("Content-Type", "application/json")
	return &Gemini{client: client, model: cfg.Model}
}

// Name 名稱
func (g *Gemini) Name() string { return "gemini" }

// GenerateText 產生文字
func (g *Gemini) GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return g.generate(ctx, []geminiPart{{Text: prompt}}, maxTokens)
}

// ExtractTextFromImage 讀取圖片文字
func (g *Gemini) ExtractTextFromImage(ctx context.Context, image []byte) (string, error) {
	parts := []geminiPart{
		{Text: VisionPrompt},
		{InlineData: &geminiInlineData{MimeType: MimeType(image), Data: base64.StdEncoding.EncodeToString(image)}},
	}
	return g.generate(ctx, parts, 2048)
}

func (g *Gemini) generate(ctx context.Context, parts []geminiPart, maxTokens int) (string, error) {
	var req geminiRequest
	req.Contents = []geminiContent{{Parts: parts}}
	req.GenerationConfig.MaxOutputTokens = maxTokens
	req.GenerationConfig.Temperature = 0.3

	var result geminiResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post(fmt.Sprintf("/models/%s:generateContent", g.model))
	if err != nil {
		return "", fmt.Errorf("failed to send request to Gemini: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("Gemini returned status %d: %s", resp.StatusCode(), sanitizeBody(resp.Body()))
	}
	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in Gemini response")
	}

	var b strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}
