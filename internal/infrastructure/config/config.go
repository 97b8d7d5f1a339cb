package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	AI          AIConfig          `mapstructure:"ai"`
	OpenRouter  OpenRouterConfig  `mapstructure:"openrouter"`
	OpenAI      OpenAIConfig      `mapstructure:"openai"`
	Gemini      GeminiConfig      `mapstructure:"gemini"`
	Rekognition RekognitionConfig `mapstructure:"rekognition"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Queue       QueueConfig       `mapstructure:"queue"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Image       ImageConfig       `mapstructure:"image"`
	Barcode     BarcodeConfig     `mapstructure:"barcode"`
	Analysis    AnalysisConfig    `mapstructure:"analysis"`
	DedupWindow time.Duration     `mapstructure:"dedup_window"`
	LogLevel    string            `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// AIConfig 外部文字/影像模型設定
type AIConfig struct {
	TextProvider   string        `mapstructure:"text_provider"`   // none | openrouter | openai | groq | deepseek | gemini
	VisionProvider string        `mapstructure:"vision_provider"` // none | openrouter | openai | gemini | rekognition
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	ELI5MaxChars   int           `mapstructure:"eli5_max_chars"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	VisionModel string `mapstructure:"vision_model"`
	BaseURL     string `mapstructure:"base_url"`
}

// OpenAIConfig OpenAI 相容服務設定（OpenAI、Groq、DeepSeek）
type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	VisionModel    string `mapstructure:"vision_model"`
	GroqAPIKey     string `mapstructure:"groq_api_key"`
	GroqModel      string `mapstructure:"groq_model"`
	DeepSeekAPIKey string `mapstructure:"deepseek_api_key"`
	DeepSeekModel  string `mapstructure:"deepseek_model"`
}

// GeminiConfig Google Gemini 設定
type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// RekognitionConfig AWS Rekognition 文字偵測設定
type RekognitionConfig struct {
	Region        string  `mapstructure:"region"`
	MinConfidence float64 `mapstructure:"min_confidence"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"` // memory | redis
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
}

// QueueConfig 外部模型請求隊列設定
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ImageConfig 圖片配置
type ImageConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
}

// BarcodeConfig Open Food Facts 設定
type BarcodeConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// AnalysisConfig 推理權重與輸出上限
type AnalysisConfig struct {
	ConcernWeight       float64 `mapstructure:"concern_weight"`
	ConfidenceHigh      float64 `mapstructure:"confidence_high"`
	ConfidenceMedium    float64 `mapstructure:"confidence_medium"`
	ConfidenceLow       float64 `mapstructure:"confidence_low"`
	IntentBonus         float64 `mapstructure:"intent_bonus"`
	AbundanceWeight     float64 `mapstructure:"abundance_weight"`
	HintWeight          float64 `mapstructure:"hint_weight"`
	MinIntentConfidence float64 `mapstructure:"min_intent_confidence"`
	MaxIntentConfidence float64 `mapstructure:"max_intent_confidence"`
	MaxFollowUps        int     `mapstructure:"max_follow_ups"`
	ELI5WordsPerLine    int     `mapstructure:"eli5_words_per_sentence"`
}

// LoadConfig 載入設定；.env 需由呼叫端先行載入
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定常見的供應商環境變量
	bindings := map[string]string{
		"openrouter.api_key":      "OPENROUTER_API_KEY",
		"openrouter.model":        "OPENROUTER_MODEL",
		"openai.api_key":          "OPENAI_API_KEY",
		"openai.base_url":         "OPENAI_BASE_URL",
		"openai.groq_api_key":     "GROQ_API_KEY",
		"openai.deepseek_api_key": "DEEPSEEK_API_KEY",
		"gemini.api_key":          "GEMINI_API_KEY",
		"rekognition.region":      "AWS_REGION",
		"ai.text_provider":        "AI_TEXT_PROVIDER",
		"ai.vision_provider":      "AI_VISION_PROVIDER",
		"ai.max_tokens":           "MODEL_MAX_TOKENS",
		"cache.enabled":           "CACHE_ENABLED",
		"cache.backend":           "CACHE_BACKEND",
		"cache.redis_addr":        "REDIS_ADDR",
		"cache.redis_password":    "REDIS_PASSWORD",
		"rate_limit.enabled":      "RATE_LIMIT_ENABLED",
		"rate_limit.requests":     "RATE_LIMIT_REQUESTS",
		"rate_limit.window":       "RATE_LIMIT_WINDOW",
		"server.port":             "PORT",
		"dedup_window":            "DEDUP_WINDOW",
		"log_level":               "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Default 回傳只含預設值的設定，供測試與 CLI 使用
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults do not unmarshal: %v", err))
	}
	return &cfg
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "foodsense")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "130s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 10<<20)

	// 外部模型設定
	v.SetDefault("ai.text_provider", "none")
	v.SetDefault("ai.vision_provider", "none")
	v.SetDefault("ai.timeout", "15s")
	v.SetDefault("ai.max_tokens", 400)
	v.SetDefault("ai.eli5_max_chars", 2000)

	v.SetDefault("openrouter.model", "qwen/qwen2.5-vl-72b-instruct:free")
	v.SetDefault("openrouter.vision_model", "qwen/qwen2.5-vl-72b-instruct:free")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")

	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.vision_model", "gpt-4o-mini")
	v.SetDefault("openai.groq_model", "llama-3.3-70b-versatile")
	v.SetDefault("openai.deepseek_model", "deepseek-chat")

	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")

	v.SetDefault("rekognition.min_confidence", 80.0)

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)

	// 隊列設定
	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.max_size", 100)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("image.max_size_bytes", 10*1024*1024) // 10MB

	v.SetDefault("barcode.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("barcode.timeout", "10s")
	v.SetDefault("barcode.user_agent", "FoodSense/1.0 (ingredient analysis)")

	// 推理權重
	v.SetDefault("analysis.concern_weight", 1.0)
	v.SetDefault("analysis.confidence_high", 3.0)
	v.SetDefault("analysis.confidence_medium", 2.0)
	v.SetDefault("analysis.confidence_low", 1.5)
	v.SetDefault("analysis.intent_bonus", 2.0)
	v.SetDefault("analysis.abundance_weight", 2.0)
	v.SetDefault("analysis.hint_weight", 2.5)
	v.SetDefault("analysis.min_intent_confidence", 0.3)
	v.SetDefault("analysis.max_intent_confidence", 0.95)
	v.SetDefault("analysis.max_follow_ups", 4)
	v.SetDefault("analysis.eli5_words_per_sentence", 15)

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	if cfg.Cache.Enabled {
		if cfg.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if cfg.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if cfg.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
		if cfg.Cache.Backend != "memory" && cfg.Cache.Backend != "redis" {
			return fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
		}
	}

	if cfg.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if cfg.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}

	if cfg.AI.Timeout <= 0 {
		return fmt.Errorf("invalid ai timeout")
	}
	if cfg.AI.Timeout >= cfg.Server.RequestTimeout {
		return fmt.Errorf("ai timeout %s must be shorter than request timeout %s", cfg.AI.Timeout, cfg.Server.RequestTimeout)
	}

	a := cfg.Analysis
	if a.MinIntentConfidence < 0 || a.MaxIntentConfidence > 1 || a.MinIntentConfidence > a.MaxIntentConfidence {
		return fmt.Errorf("invalid intent confidence bounds [%v, %v]", a.MinIntentConfidence, a.MaxIntentConfidence)
	}
	if a.MaxFollowUps <= 0 {
		return fmt.Errorf("invalid max follow ups")
	}
	if a.ELI5WordsPerLine <= 0 {
		return fmt.Errorf("invalid eli5 words per sentence")
	}

	return nil
}
