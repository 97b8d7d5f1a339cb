package provider

import (
	"context"
	"fmt"
	"strings"

	"foodsense/internal/infrastructure/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// textDetector Rekognition 用到的方法
type textDetector interface {
	DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

// Rekognition AWS Rekognition DetectText 後端，只支援影像
type Rekognition struct {
	client        textDetector
	minConfidence float32
}

// NewRekognition 以預設憑證鏈建立後端
func NewRekognition(ctx context.Context, cfg config.RekognitionConfig) (*Rekognition, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return &Rekognition{
		client:        rekognition.NewFromConfig(awsCfg),
		minConfidence: float32(cfg.MinConfidence),
	}, nil
}

// Name 名稱
func (r *Rekognition) Name() string { return "rekognition" }

// GenerateText 不支援
func (r *Rekognition) GenerateText(context.Context, string, int) (string, error) {
	return "", ErrUnsupported
}

// ExtractTextFromImage 回傳信心度足夠的文字行，每行一列
func (r *Rekognition) ExtractTextFromImage(ctx context.Context, image []byte) (string, error) {
	out, err := r.client.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: image},
	})
	if err != nil {
		return "", fmt.Errorf("rekognition detect text failed: %w", err)
	}

	var lines []string
	for _, d := range out.TextDetections {
		if d.Type != types.TextTypesLine || d.DetectedText == nil {
			continue
		}
		if aws.ToFloat32(d.Confidence) < r.minConfidence {
			continue
		}
		lines = append(lines, *d.DetectedText)
	}
	return strings.Join(lines, "\n"), nil
}
