package food

import (
	"net/http"

	"foodsense/internal/core/compare"
	"foodsense/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleCompare 比較二到三個產品
func (h *Handler) HandleCompare(c *gin.Context) {
	id := requestID(c)

	var req compare.Request
	if err := bindJSON(c, &req); err != nil {
		respondError(c, id, err)
		return
	}

	res, err := compare.Compare(c.Request.Context(), h.analysis, req)
	if err != nil {
		respondError(c, id, err)
		return
	}

	common.LogInfo("comparison completed",
		zap.String("request_id", id),
		zap.Int("products", len(res.Products)),
		zap.Int("winner_index", res.WinnerIndex),
	)
	c.JSON(http.StatusOK, res)
}
