package food

import (
	"net/http"

	"foodsense/internal/core/analysis"
	"foodsense/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VisionExtractResponse 成分清單擷取結果
type VisionExtractResponse struct {
	Extracted       bool     `json:"extracted"`
	IngredientsText string   `json:"ingredients_text"`
	Ingredients     []string `json:"ingredients"`
	LabelText       string   `json:"label_text,omitempty"`
}

// HandleVisionExtract 由包裝標示圖片擷取成分清單；外部模型不可用時回傳空清單
func (h *Handler) HandleVisionExtract(c *gin.Context) {
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

	response := VisionExtractResponse{Ingredients: []string{}}
	if h.vision.VisionEnabled() {
		text := h.vision.ExtractTextFromImage(c.Request.Context(), img)
		response.LabelText = text
		response.IngredientsText, response.Ingredients = analysis.SplitIngredients(text)
		response.Extracted = len(response.Ingredients) > 0
	}

	common.LogInfo("ingredients extracted from image",
		zap.String("request_id", id),
		zap.Bool("extracted", response.Extracted),
		zap.Int("ingredients", len(response.Ingredients)),
	)
	c.JSON(http.StatusOK, response)
}
