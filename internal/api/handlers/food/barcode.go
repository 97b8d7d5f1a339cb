package food

import (
	"net/http"
	"strconv"

	"foodsense/internal/core/analysis"
	"foodsense/internal/core/barcode"
	"foodsense/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BarcodeResponse 條碼查詢結果；analyze=true 時附上成分分析
type BarcodeResponse struct {
	*barcode.Product
	Analysis *analysis.Result `json:"analysis,omitempty"`
}

// HandleBarcode 以條碼查詢產品
func (h *Handler) HandleBarcode(c *gin.Context) {
	id := requestID(c)
	code := c.Param("code")

	product, err := h.products.Lookup(c.Request.Context(), code)
	if err != nil {
		respondError(c, id, err)
		return
	}

	response := BarcodeResponse{Product: product}
	if analyze, _ := strconv.ParseBool(c.Query("analyze")); analyze && len(product.Ingredients) > 0 {
		res, err := h.analysis.Analyze(c.Request.Context(), analysis.Request{
			Ingredients: product.Ingredients,
			ProductName: product.ProductName,
			Language:    c.Query("language"),
		})
		if err != nil {
			respondError(c, id, err)
			return
		}
		response.Analysis = res
	}

	common.LogInfo("barcode lookup completed",
		zap.String("request_id", id),
		zap.String("barcode", code),
		zap.Bool("analyzed", response.Analysis != nil),
	)
	c.JSON(http.StatusOK, response)
}
