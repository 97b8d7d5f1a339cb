package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Error   string `json:"error"`             // 錯誤信息
	Code    string `json:"code"`              // 錯誤代碼
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 支援 errors.Is / errors.As
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，讓包裝後的預定義錯誤仍可被辨識
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Wrap 以預定義錯誤包裝底層錯誤
func Wrap(base *CustomError, err error) *CustomError {
	return NewError(base.Code, base.Message, base.Status, err)
}

// InputError 表示請求本身無效（空的成分列表、格式錯誤等），是唯一會回報給呼叫端的錯誤
type InputError struct {
	Field   string
	Message string
}

// Error 實現 error 介面
func (e *InputError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewInputError 創建新的輸入錯誤
func NewInputError(field, message string) error {
	return &InputError{Field: field, Message: message}
}

// IsInputError 檢查是否為輸入錯誤
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// StatusOf 取得錯誤對應的 HTTP 狀態碼與錯誤代碼
func StatusOf(err error) (int, string) {
	if IsInputError(err) {
		return http.StatusBadRequest, ErrCodeInvalidRequest
	}
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Status, ce.Code
	}
	return http.StatusInternalServerError, ErrCodeInternalError
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 408
	ErrCodeTooLarge        = "PAYLOAD_TOO_LARGE" // 413
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
)

// 預定義錯誤
var (
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "invalid request", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "resource not found", http.StatusNotFound, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "too many requests", http.StatusTooManyRequests, nil)

	ErrInternalError      = NewError(ErrCodeInternalError, "internal server error", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "service temporarily unavailable", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "gateway timeout", http.StatusGatewayTimeout, nil)

	// 業務錯誤
	ErrInvalidImageFormat  = NewError("INVALID_IMAGE_FORMAT", "invalid image format", http.StatusBadRequest, nil)
	ErrInvalidImageSize    = NewError("INVALID_IMAGE_SIZE", "image exceeds size limit", http.StatusBadRequest, nil)
	ErrInvalidImageType    = NewError("INVALID_IMAGE_TYPE", "unsupported image type", http.StatusBadRequest, nil)
	ErrCacheFull           = NewError("CACHE_FULL", "cache is full", http.StatusServiceUnavailable, nil)
	ErrCacheMiss           = NewError("CACHE_MISS", "cache miss", http.StatusNotFound, nil)
	ErrCacheDisabled       = NewError("CACHE_DISABLED", "cache disabled", http.StatusServiceUnavailable, nil)
	ErrQueueFull           = NewError("QUEUE_FULL", "provider queue is full", http.StatusServiceUnavailable, nil)
	ErrQueueClosed         = NewError("QUEUE_CLOSED", "provider queue is closed", http.StatusServiceUnavailable, nil)
	ErrProductNotFound     = NewError("PRODUCT_NOT_FOUND", "product not found", http.StatusNotFound, nil)
	ErrUpstreamUnavailable = NewError("UPSTREAM_UNAVAILABLE", "upstream product database unavailable", http.StatusServiceUnavailable, nil)
)
