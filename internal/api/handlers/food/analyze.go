// Package food serves the ingredient analysis, nutrition, label image,
// barcode, comparison and timeline endpoints.
package food

import (
	"context"
	"net/http"
	"strings"

	"foodsense/internal/core/analysis"
	"foodsense/internal/core/barcode"
	"foodsense/internal/core/image"
	"foodsense/internal/core/knowledge"
	"foodsense/internal/core/reasoning"
	"foodsense/internal/core/timeline"
	"foodsense/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VisionExtractor 標示圖片轉文字；失敗時回傳空字串
type VisionExtractor interface {
	VisionEnabled() bool
	ExtractTextFromImage(ctx context.Context, image []byte) string
}

// ProductLookup 條碼查詢
type ProductLookup interface {
	Lookup(ctx context.Context, code string) (*barcode.Product, error)
}

// Handler 食品分析處理程序
type Handler struct {
	analysis *analysis.Service
	vision   VisionExtractor
	images   *image.Service
	products ProductLookup
	base     *knowledge.Base
}

// NewHandler 創建處理程序
func NewHandler(svc *analysis.Service, vision VisionExtractor, images *image.Service, products ProductLookup, base *knowledge.Base) *Handler {
	return &Handler{
		analysis: svc,
		vision:   vision,
		images:   images,
		products: products,
		base:     base,
	}
}

// HandleAnalyze 依 analysis_type 執行成分分析或營養分類
func (h *Handler) HandleAnalyze(c *gin.Context) {
	id := requestID(c)

	var req analysis.Request
	if err := bindJSON(c, &req); err != nil {
		respondError(c, id, err)
		return
	}

	if strings.EqualFold(strings.TrimSpace(req.AnalysisType), analysis.TypeNutrition) {
		res, err := h.analysis.AnalyzeNutrition(req)
		if err != nil {
			respondError(c, id, err)
			return
		}
		common.LogInfo("nutrition analysis completed",
			zap.String("request_id", id),
			zap.String("classification", string(res.Classification)),
			zap.Int("score", res.Score),
		)
		c.JSON(http.StatusOK, res)
		return
	}

	h.analyze(c, id, req)
}

// HandleELI5 強制產生 ELI5 說明的成分分析
func (h *Handler) HandleELI5(c *gin.Context) {
	id := requestID(c)

	var req analysis.Request
	if err := bindJSON(c, &req); err != nil {
		respondError(c, id, err)
		return
	}
	req.IncludeELI5 = true
	req.AnalysisType = analysis.TypeIngredients
	h.analyze(c, id, req)
}

func (h *Handler) analyze(c *gin.Context, id string, req analysis.Request) {
	res, err := h.analysis.Analyze(c.Request.Context(), req)
	if err != nil {
		respondError(c, id, err)
		return
	}

	common.LogInfo("ingredient analysis completed",
		zap.String("request_id", id),
		zap.Int("ingredients", res.IngredientsAnalyzed),
		zap.Int("insights", len(res.Insights)),
		zap.Int("alerts", len(res.DeceptionAlerts)),
		zap.String("signal", string(res.HealthSignal.Level)),
		zap.String("eli5_source", res.ELI5Source),
	)
	c.JSON(http.StatusOK, res)
}

// TimelineRequest 影響時間軸請求
type TimelineRequest struct {
	analysis.Request
	Frequency string `json:"frequency"`
}

// TimelineResponse 影響時間軸回應
type TimelineResponse struct {
	Summary      string                 `json:"summary"`
	HealthSignal reasoning.HealthSignal `json:"health_signal"`
	Timeline     timeline.Timeline      `json:"impact"`
}

// HandleTimeline 推估規律食用後的累積影響
func (h *Handler) HandleTimeline(c *gin.Context) {
	id := requestID(c)

	var req TimelineRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, id, err)
		return
	}
	req.IncludeELI5 = false
	req.AnalysisType = analysis.TypeIngredients

	res, err := h.analysis.Analyze(c.Request.Context(), req.Request)
	if err != nil {
		respondError(c, id, err)
		return
	}

	name := res.ProductName
	if name == "" {
		name = "This product"
	}
	c.JSON(http.StatusOK, TimelineResponse{
		Summary:      res.Summary,
		HealthSignal: res.HealthSignal,
		Timeline:     timeline.Project(name, res.Result, timeline.ParseFrequency(req.Frequency)),
	})
}

// HandleDemoProducts 回傳內建示範產品
func (h *Handler) HandleDemoProducts(c *gin.Context) {
	products := h.base.DemoProducts()
	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}
