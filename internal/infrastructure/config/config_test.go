package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.AI.Timeout != 15*time.Second || cfg.AI.TextProvider != "none" {
		t.Errorf("unexpected defaults: %+v %+v", cfg.Server, cfg.AI)
	}
	if cfg.Cache.TTL != 24*time.Hour || cfg.DedupWindow != time.Second {
		t.Errorf("durations not decoded: ttl %v dedup %v", cfg.Cache.TTL, cfg.DedupWindow)
	}
	if cfg.Analysis.ConfidenceLow != 1.5 || cfg.Analysis.MaxFollowUps != 4 {
		t.Errorf("analysis defaults = %+v", cfg.Analysis)
	}
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AI_TEXT_PROVIDER", "groq")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("APP_QUEUE_WORKERS", "2")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.AI.TextProvider != "groq" || cfg.Cache.Backend != "redis" {
		t.Errorf("provider %q backend %q", cfg.AI.TextProvider, cfg.Cache.Backend)
	}
	if cfg.RateLimit.Window != 30*time.Second || cfg.Queue.Workers != 2 {
		t.Errorf("window %v workers %d", cfg.RateLimit.Window, cfg.Queue.Workers)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown cache backend", map[string]string{"CACHE_BACKEND": "memcached"}, "unknown cache backend"},
		{"provider slower than request", map[string]string{"APP_AI_TIMEOUT": "5m"}, "shorter than request timeout"},
		{"no workers", map[string]string{"APP_QUEUE_WORKERS": "0"}, "invalid queue workers"},
		{"bad intent bounds", map[string]string{"APP_ANALYSIS_MAX_INTENT_CONFIDENCE": "1.5"}, "invalid intent confidence"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}
