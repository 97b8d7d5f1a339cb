// Package image validates uploaded label photos and normalizes them to JPEG
// before they are handed to a vision provider.
package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	_ "image/gif" // 支援 GIF
	_ "image/png" // 支援 PNG

	"foodsense/internal/pkg/common"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // 支援 WebP
)

// DefaultMaxDimension 長邊超過此像素時縮小
const DefaultMaxDimension = 2048

// Service 標籤圖片處理服務
type Service struct {
	maxSizeBytes int64
	maxDimension int
}

// NewService 創建圖片處理服務
func NewService(maxSizeBytes int64) *Service {
	return &Service{maxSizeBytes: maxSizeBytes, maxDimension: DefaultMaxDimension}
}

// Decode 解析 data URI 或純 base64 圖片，驗證後回傳 JPEG 位元組
func (s *Service) Decode(imageData string) ([]byte, error) {
	imageData = strings.TrimSpace(imageData)
	if imageData == "" {
		return nil, common.NewInputError("image", "image is required")
	}

	payload := imageData
	if strings.HasPrefix(imageData, "data:") {
		parts := strings.SplitN(imageData, ",", 2)
		if len(parts) != 2 || !strings.HasPrefix(parts[0], "data:image/") || !strings.HasSuffix(parts[0], ";base64") {
			return nil, common.Wrap(common.ErrInvalidImageFormat, fmt.Errorf("invalid data uri header"))
		}
		payload = parts[1]
	}

	raw, err := decodeBase64(payload)
	if err != nil {
		return nil, common.Wrap(common.ErrInvalidImageFormat, fmt.Errorf("failed to decode base64 data: %w", err))
	}

	if int64(len(raw)) > s.maxSizeBytes {
		return nil, common.Wrap(common.ErrInvalidImageSize,
			fmt.Errorf("image size %d exceeds maximum limit of %d bytes", len(raw), s.maxSizeBytes))
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, common.Wrap(common.ErrInvalidImageFormat, fmt.Errorf("failed to decode image: %w", err))
	}
	if !isSupportedFormat(format) {
		return nil, common.Wrap(common.ErrInvalidImageType, fmt.Errorf("unsupported image format: %s", format))
	}

	img = s.shrink(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode image as JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// shrink 等比例縮小過大的圖片
func (s *Service) shrink(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if s.maxDimension <= 0 || longest <= s.maxDimension {
		return img
	}

	nw := w * s.maxDimension / longest
	nh := h * s.maxDimension / longest
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)
	if raw, err := base64.StdEncoding.DecodeString(s); err == nil {
		return raw, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

// isSupportedFormat 檢查圖片格式是否支援
func isSupportedFormat(format string) bool {
	supportedFormats := map[string]bool{
		"jpeg": true,
		"png":  true,
		"gif":  true,
		"webp": true,
	}
	return supportedFormats[format]
}
