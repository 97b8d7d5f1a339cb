package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"input error", NewInputError("ingredients", "must not be empty"), http.StatusBadRequest, ErrCodeInvalidRequest},
		{"wrapped input error", fmt.Errorf("product 1: %w", NewInputError("", "bad")), http.StatusBadRequest, ErrCodeInvalidRequest},
		{"custom error", ErrProductNotFound, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
		{"wrapped custom error", Wrap(ErrUpstreamUnavailable, errors.New("dial tcp")), http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := StatusOf(tt.err)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Errorf("StatusOf = (%d, %s), want (%d, %s)", status, code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestCustomErrorIs(t *testing.T) {
	err := fmt.Errorf("lookup: %w", Wrap(ErrQueueFull, errors.New("100 pending")))
	if !errors.Is(err, ErrQueueFull) {
		t.Error("wrapped error must match its predefined error")
	}
	if errors.Is(err, ErrQueueClosed) {
		t.Error("different codes must not match")
	}
	if got := Wrap(ErrQueueFull, errors.New("100 pending")).Error(); got != "provider queue is full: 100 pending" {
		t.Errorf("Error() = %q", got)
	}
}

func TestInputErrorMessage(t *testing.T) {
	if got := NewInputError("language", "unsupported").Error(); got != "language: unsupported" {
		t.Errorf("got %q", got)
	}
	if got := NewInputError("", "invalid request format").Error(); got != "invalid request format" {
		t.Errorf("got %q", got)
	}
}

func TestDecodeJSONStrict(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	if err := DecodeJSONStrict(strings.NewReader(`{"name":"oats"}`), &v); err != nil || v.Name != "oats" {
		t.Fatalf("decode = %v, %+v", err, v)
	}
	if err := DecodeJSONStrict(strings.NewReader(`{"name":"oats","extra":1}`), &v); err == nil {
		t.Error("unknown field must be rejected")
	}
	if err := DecodeJSONStrict(strings.NewReader(`{"name":"oats"} {"name":"salt"}`), &v); err == nil {
		t.Error("trailing data must be rejected")
	}
}

func TestMaskSecret(t *testing.T) {
	tests := map[string]string{
		"":                 "****",
		"short":            "****",
		"sk-or-1234567890": "sk-o...7890",
	}
	for in, want := range tests {
		if got := MaskSecret(in); got != want {
			t.Errorf("MaskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGenerateUUID(t *testing.T) {
	a, b := GenerateUUID(), GenerateUUID()
	if len(a) != 36 || strings.Count(a, "-") != 4 || a == b {
		t.Errorf("GenerateUUID = %q, %q", a, b)
	}
}

func TestHashing(t *testing.T) {
	if HashString("sugar") != HashBytes([]byte("sugar")) {
		t.Error("string and byte hashes must agree")
	}
	if HashString("sugar") == HashString("salt") {
		t.Error("different inputs must hash differently")
	}
	if len(HashString("")) != 64 {
		t.Error("expected hex sha-256")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFilterFields(t *testing.T) {
	fields := filterFields([]zap.Field{
		zap.String("image", "data:image/png;base64,AAAA"),
		zap.String("image_data_len", "12"),
		zap.String("request_id", "abc"),
	})
	if len(fields) != 1 || fields[0].Key != "request_id" {
		t.Errorf("fields = %v", fields)
	}
}
