package health

import (
	"net/http"
	"runtime"
	"time"

	"foodsense/internal/core/ai/queue"
	"foodsense/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProviderInfo 外部模型設定摘要
type ProviderInfo interface {
	Name() string
	VisionName() string
}

// StatsSource 快取統計
type StatsSource interface {
	Stats() map[string]interface{}
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Queue     *queue.Status          `json:"queue,omitempty"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
	Providers map[string]string      `json:"providers"`
}

// Handler 健康檢查處理器；queue、cache、providers 皆可為 nil
type Handler struct {
	version   string
	queue     *queue.Manager
	cache     StatsSource
	providers ProviderInfo
}

// NewHandler 建立健康檢查處理器
func NewHandler(version string, q *queue.Manager, cache StatsSource, providers ProviderInfo) *Handler {
	return &Handler{version: version, queue: q, cache: cache, providers: providers}
}

// HealthCheck 回報執行狀態、隊列、快取與外部模型設定
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Providers: map[string]string{"text": "none", "vision": "none"},
	}

	if h.queue != nil {
		status := h.queue.Status()
		response.Queue = &status
		if status.Closed {
			response.Status = "degraded"
		}
	}
	if h.cache != nil {
		response.Cache = h.cache.Stats()
	}
	if h.providers != nil {
		response.Providers["text"] = h.providers.Name()
		response.Providers["vision"] = h.providers.VisionName()
	}

	common.LogDebug("health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 隊列關閉後不再接受流量
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.queue != nil && h.queue.Status().Closed {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
