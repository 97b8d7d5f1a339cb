// Package provider adapts external language and vision models behind a
// fail-soft interface. Callers receive an empty string whenever a model is
// unconfigured, slow, over quota or returns something unusable, and fall
// back to their deterministic path.
package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"foodsense/internal/core/ai/cache"
	"foodsense/internal/core/ai/queue"
	"foodsense/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrUnsupported 後端不支援該能力
var ErrUnsupported = errors.New("capability not supported by provider")

// errEmptyResponse 模型回傳空內容
var errEmptyResponse = errors.New("empty response from provider")

// NameNone 未設定外部模型
const NameNone = "none"

// VisionPrompt 影像轉文字時使用的提示
const VisionPrompt = "Transcribe all text printed on this food package label exactly as it appears, " +
	"one printed line per output line. Include the ingredient list and the nutrition facts table. " +
	"Fix obvious OCR mistakes, ignore barcodes, and return only the transcribed text with no commentary."

// Backend 單一廠商的轉接層
type Backend interface {
	Name() string
	GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error)
	ExtractTextFromImage(ctx context.Context, image []byte) (string, error)
}

// Provider 核心流程使用的外部模型能力，任何失敗都以空字串表示
type Provider interface {
	Name() string
	Enabled() bool
	GenerateText(ctx context.Context, prompt string, maxTokens int) string
	ExtractTextFromImage(ctx context.Context, image []byte) string
}

// FailSoft 以逾時、快取、隊列包裝文字與影像後端
type FailSoft struct {
	text    Backend
	vision  Backend
	store   cache.Store
	queue   *queue.Manager
	timeout time.Duration
}

// NewFailSoft 建立包裝；store 與 q 可為 nil
func NewFailSoft(text, vision Backend, store cache.Store, q *queue.Manager, timeout time.Duration) *FailSoft {
	if text == nil {
		text = None{}
	}
	if vision == nil {
		vision = None{}
	}
	return &FailSoft{text: text, vision: vision, store: store, queue: q, timeout: timeout}
}

// Name 文字後端名稱
func (p *FailSoft) Name() string { return p.text.Name() }

// VisionName 影像後端名稱
func (p *FailSoft) VisionName() string { return p.vision.Name() }

// Enabled 是否設定了文字後端
func (p *FailSoft) Enabled() bool { return p.text.Name() != NameNone }

// VisionEnabled 是否設定了影像後端
func (p *FailSoft) VisionEnabled() bool { return p.vision.Name() != NameNone }

// GenerateText 產生文字；失敗回傳空字串
func (p *FailSoft) GenerateText(ctx context.Context, prompt string, maxTokens int) string {
	key := fmt.Sprintf("%s|%d|%s", p.text.Name(), maxTokens, prompt)
	return p.call(ctx, p.text, "generate_text", key, nil, func(ctx context.Context) (string, error) {
		return p.text.GenerateText(ctx, prompt, maxTokens)
	})
}

// ExtractTextFromImage 讀取標籤圖片上的文字；失敗回傳空字串
func (p *FailSoft) ExtractTextFromImage(ctx context.Context, image []byte) string {
	if len(image) == 0 {
		return ""
	}
	key := p.vision.Name() + "|vision"
	out := p.call(ctx, p.vision, "extract_text", key, image, func(ctx context.Context) (string, error) {
		return p.vision.ExtractTextFromImage(ctx, image)
	})
	return CleanVisionText(out)
}

// call 套用逾時、快取與隊列；任何錯誤或 panic 都轉為空字串
func (p *FailSoft) call(ctx context.Context, b Backend, op, key string, image []byte, job queue.Job) (out string) {
	if b.Name() == NameNone {
		return ""
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			common.LogProviderCall(b.Name(), op, time.Since(start), fmt.Errorf("provider panicked: %v", r))
			out = ""
		}
	}()

	if p.store != nil {
		if cached, err := p.store.Get(ctx, key, image); err == nil {
			common.LogDebug("provider output served from cache", zap.String("provider", b.Name()), zap.String("op", op))
			return cached
		}
	}

	callCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var err error
	if p.queue != nil {
		out, err = p.queue.Submit(callCtx, job)
	} else {
		out, err = job(callCtx)
	}
	out = strings.TrimSpace(out)
	if err == nil && out == "" {
		err = errEmptyResponse
	}
	common.LogProviderCall(b.Name(), op, time.Since(start), err)
	if err != nil {
		return ""
	}

	if p.store != nil {
		if err := p.store.Set(ctx, key, image, out); err != nil {
			common.LogDebug("failed to cache provider output", zap.Error(err))
		}
	}
	return out
}

// None 未設定時使用的後端
type None struct{}

// Name 名稱
func (None) Name() string { return NameNone }

// GenerateText 不支援
func (None) GenerateText(context.Context, string, int) (string, error) { return "", ErrUnsupported }

// ExtractTextFromImage 不支援
func (None) ExtractTextFromImage(context.Context, []byte) (string, error) { return "", ErrUnsupported }

// DataURI 將圖片編碼為 data URI，供接受 image_url 的 API 使用
func DataURI(image []byte) string {
	return "data:" + MimeType(image) + ";base64," + base64.StdEncoding.EncodeToString(image)
}

// MimeType 依內容判斷圖片類型
func MimeType(image []byte) string {
	mime := http.DetectContentType(image)
	if !strings.HasPrefix(mime, "image/") {
		return "image/jpeg"
	}
	return mime
}
