package food

import (
	"net/http"

	"foodsense/internal/core/analysis"
	"foodsense/internal/core/nutrition"
	"foodsense/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ImageRequest 標示圖片請求；image 為 data URI 或 base64
type ImageRequest struct {
	Image       string `json:"image" binding:"required"`
	ProductName string `json:"product_name,omitempty"`
}

// NutritionImageResponse 由標示圖片得出的營養分類
type NutritionImageResponse struct {
	AnalysisType  string          `json:"analysis_type"`
	ProductName   string          `json:"product_name,omitempty"`
	Extracted     bool            `json:"extracted"`
	ExtractedText string          `json:"extracted_text"`
	Nutrition     nutrition.Facts `json:"nutrition"`
	nutrition.Result
}

// HandleNutritionAnalyze 直接分類營養數值
func (h *Handler) HandleNutritionAnalyze(c *gin.Context) {
	id := requestID(c)

	var facts nutrition.Facts
	if err := bindJSON(c, &facts); err != nil {
		respondError(c, id, err)
		return
	}

	res, err := h.analysis.AnalyzeNutrition(analysis.Request{Nutrition: &facts})
	if err != nil {
		respondError(c, id, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandleNutritionImage 讀取營養標示圖片後分類；讀不到文字時回傳低信心結果
func (h *Handler) HandleNutritionImage(c *gin.Context) {
	id := requestID(c)

	var req ImageRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, id, err)
		return
	}

	img, err := h.images.Decode(req.Image)
	if err != nil {
		common.LogWarn("label image rejected",
			zap.String("request_id", id),
			zap.String("image_type", imageKind(req.Image)),
			zap.Int("image_length", len(req.Image)),
		)
		respondError(c, id, err)
		return
	}

	text := h.vision.ExtractTextFromImage(c.Request.Context(), img)
	res, facts := h.analysis.NutritionFromLabel(text)

	common.LogInfo("nutrition label analyzed",
		zap.String("request_id", id),
		zap.Bool("extracted", text != ""),
		zap.Int("text_length", len(text)),
		zap.String("classification", string(res.Classification)),
	)
	c.JSON(http.StatusOK, NutritionImageResponse{
		AnalysisType:  analysis.TypeNutrition,
		ProductName:   req.ProductName,
		Extracted:     text != "",
		ExtractedText: text,
		Nutrition:     facts,
		Result:        res,
	})
}
