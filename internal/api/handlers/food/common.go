package food

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"foodsense/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// requestID 取得請求 ID，沒有時產生一個並寫回標頭
func requestID(c *gin.Context) string {
	id := requestid.Get(c)
	if id == "" {
		id = common.GenerateUUID()
		c.Header("X-Request-ID", id)
	}
	return id
}

// bindJSON 解析請求體，失敗時轉為輸入錯誤
func bindJSON(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return common.NewError(common.ErrCodeTooLarge, "request body too large", http.StatusRequestEntityTooLarge, err)
		}
		return common.NewInputError("body", "invalid request format")
	}
	return nil
}

// respondError 依錯誤類型回傳對應狀態碼；4xx 記為警告，5xx 記為錯誤
func respondError(c *gin.Context, id string, err error) {
	status, code := common.StatusOf(err)
	message := err.Error()
	var ce *common.CustomError
	if !common.IsInputError(err) && errors.As(err, &ce) {
		message = ce.Message
	}

	fields := []zap.Field{
		zap.Error(err),
		zap.Int("status", status),
		zap.String("request_id", id),
		zap.String("path", c.Request.URL.Path),
	}
	if status >= http.StatusInternalServerError {
		common.LogError("request failed", fields...)
	} else {
		common.LogWarn("request rejected", fields...)
	}

	c.AbortWithStatusJSON(status, common.ErrorResponse{Error: message, Code: code})
}

// imageKind 圖片格式摘要（用於日誌記錄，不輸出內容）
func imageKind(image string) string {
	switch {
	case image == "":
		return "empty"
	case strings.HasPrefix(image, "data:image/"):
		if header, _, ok := strings.Cut(image, ";base64,"); ok {
			return "data_uri_" + strings.TrimPrefix(header, "data:image/")
		}
		return "invalid_data_uri"
	case strings.HasPrefix(image, "/9j/"):
		return "base64_jpeg"
	case strings.HasPrefix(image, "iVBORw0KGgo"):
		return "base64_png"
	}
	if _, err := base64.StdEncoding.DecodeString(image); err == nil {
		return "base64"
	}
	return "unknown_format"
}
