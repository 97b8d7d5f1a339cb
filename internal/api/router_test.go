package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"foodsense/internal/api/middleware"
	"foodsense/internal/core/ai/provider"
	"foodsense/internal/core/ai/queue"
	"foodsense/internal/core/analysis"
	"foodsense/internal/core/barcode"
	"foodsense/internal/core/knowledge"
	"foodsense/internal/infrastructure/config"
	"foodsense/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// scriptedBackend 回傳固定文字的外部模型
type scriptedBackend struct {
	text   string
	vision string
}

func (b *scriptedBackend) Name() string { return "scripted" }

func (b *scriptedBackend) GenerateText(context.Context, string, int) (string, error) {
	return b.text, nil
}

func (b *scriptedBackend) ExtractTextFromImage(context.Context, []byte) (string, error) {
	return b.vision, nil
}

// fakeProducts 以條碼對應產品
type fakeProducts map[string]*barcode.Product

func (f fakeProducts) Lookup(_ context.Context, code string) (*barcode.Product, error) {
	if err := barcode.ValidateCode(code); err != nil {
		return nil, err
	}
	if p, ok := f[code]; ok {
		return p, nil
	}
	return nil, common.ErrProductNotFound
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.RateLimit.Enabled = false
	cfg.DedupWindow = time.Nanosecond
	cfg.Server.RequestTimeout = 5 * time.Second
	cfg.AI.Timeout = time.Second
	return cfg
}

func newRouter(t *testing.T, backend provider.Backend) *gin.Engine {
	t.Helper()
	cfg := testConfig()
	base := knowledge.MustDefault()

	q := queue.NewManager(&cfg.Queue)
	t.Cleanup(q.Close)

	var p *provider.FailSoft
	if backend != nil {
		p = provider.NewFailSoft(backend, backend, nil, q, cfg.AI.Timeout)
	} else {
		p = provider.NewFailSoft(nil, nil, nil, q, cfg.AI.Timeout)
	}

	dedup := middleware.NewDeduplicator(cfg.DedupWindow)
	t.Cleanup(dedup.Close)

	router, err := SetupRouter(cfg, Dependencies{
		Knowledge: base,
		Analysis:  analysis.NewService(base, p, analysis.ConfigFrom(cfg)),
		Provider:  p,
		Products: fakeProducts{
			"5000159407236": {
				Barcode:     "5000159407236",
				ProductName: "Choco Bar",
				Ingredients: []string{"sugar", "glucose syrup", "cocoa butter", "skimmed milk powder", "palm oil"},
			},
		},
		Queue:        q,
		Deduplicator: dedup,
	})
	if err != nil {
		t.Fatalf("SetupRouter: %v", err)
	}
	return router
}

func request(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
	return out
}

func labelImage(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	img.Set(1, 1, color.RGBA{G: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestAnalyzeEndpoint(t *testing.T) {
	r := newRouter(t, nil)
	w := request(t, r, http.MethodPost, "/api/v1/analyze", map[string]interface{}{
		"product_name": "Kids Fruit Snacks",
		"ingredients":  []string{"corn syrup", "sugar", "gelatin", "citric acid", "red 40", "yellow 5", "blue 1", "natural flavors"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}

	body := decode(t, w)
	for _, key := range []string{"intent", "insights", "health_signal", "trade_offs", "uncertainty_note", "deception_alerts", "overall_surprise_score", "summary", "follow_up_questions"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response missing %q", key)
		}
	}
	if _, ok := body["eli5_text"]; ok {
		t.Error("eli5_text must be omitted unless requested")
	}
	in := body["intent"].(map[string]interface{})
	if in["primary_intent"] != "child_safety" {
		t.Errorf("intent = %v", in)
	}
}

func TestAnalyzeEndpointErrors(t *testing.T) {
	r := newRouter(t, nil)
	tests := []struct {
		name string
		body interface{}
	}{
		{"empty ingredients", map[string]interface{}{"ingredients": []string{}}},
		{"malformed json", `{"ingredients": [`},
		{"unknown type", map[string]interface{}{"ingredients": []string{"sugar"}, "analysis_type": "astro"}},
		{"nutrition without facts", map[string]interface{}{"analysis_type": "nutrition"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(t, r, http.MethodPost, "/api/v1/analyze", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d body %s", w.Code, w.Body)
			}
			if body := decode(t, w); body["code"] != common.ErrCodeInvalidRequest {
				t.Errorf("code = %v", body["code"])
			}
		})
	}
}

func TestAnalyzeNutritionMode(t *testing.T) {
	r := newRouter(t, nil)
	w := request(t, r, http.MethodPost, "/api/v1/analyze", map[string]interface{}{
		"analysis_type": "nutrition",
		"product_name":  "Greek Yogurt",
		"nutrition":     map[string]float64{"protein": 10, "saturated_fat": 1, "sodium": 60, "calories": 120},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body)
	}
	body := decode(t, w)
	if body["classification"] != "Good" || body["analysis_type"] != "nutrition" {
		t.Errorf("body = %v", body)
	}
}

func TestELI5Endpoint(t *testing.T) {
	t.Run("fallback", func(t *testing.T) {
		w := request(t, newRouter(t, nil), http.MethodPost, "/api/v1/analyze/eli5", map[string]interface{}{
			"ingredients": []string{"sugar", "bht", "salt"},
		})
		body := decode(t, w)
		if body["eli5_text"] == "" || body["eli5_source"] != "fallback" {
			t.Errorf("eli5 = %v source %v", body["eli5_text"], body["eli5_source"])
		}
	})
	t.Run("provider", func(t *testing.T) {
		backend := &scriptedBackend{text: "Sugar gives fast energy."}
		w := request(t, newRouter(t, backend), http.MethodPost, "/api/v1/analyze/eli5", map[string]interface{}{
			"ingredients": []string{"sugar", "salt"},
			"language":    "ta",
		})
		body := decode(t, w)
		if body["eli5_text"] != backend.text || body["eli5_source"] != "provider" || body["language"] != "ta" {
			t.Errorf("body = %v", body)
		}
	})
}

func TestNutritionEndpoints(t *testing.T) {
	r := newRouter(t, nil)
	w := request(t, r, http.MethodPost, "/api/v1/nutrition/analyze", map[string]float64{"trans_fat": 1.5, "calories": 200})
	if body := decode(t, w); w.Code != http.StatusOK || body["classification"] != "Bad" {
		t.Errorf("status = %d body %v", w.Code, body)
	}

	w = request(t, r, http.MethodPost, "/api/v1/nutrition/image", map[string]string{"image": labelImage(t)})
	body := decode(t, w)
	if w.Code != http.StatusOK || body["extracted"] != false || body["confidence"] != "low" {
		t.Errorf("without vision: status = %d body %v", w.Code, body)
	}

	w = request(t, r, http.MethodPost, "/api/v1/nutrition/image", map[string]string{"image": "data:text/plain;base64,aGk="})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad image status = %d", w.Code)
	}
}

func TestNutritionImageWithVision(t *testing.T) {
	backend := &scriptedBackend{vision: "Nutrition Facts\nServing size 40g\nCalories 210\nTotal Fat 9g\nSaturated Fat 6g\nSodium 310mg\nTotal Sugars 18g\nProtein 2g"}
	w := request(t, newRouter(t, backend), http.MethodPost, "/api/v1/nutrition/image", map[string]string{"image": labelImage(t)})
	body := decode(t, w)
	if w.Code != http.StatusOK || body["extracted"] != true || body["classification"] != "Bad" {
		t.Fatalf("status = %d body %v", w.Code, body)
	}
	facts := body["nutrition"].(map[string]interface{})
	if facts["sodium"] != 310.0 || facts["serving_size"] != "40g" {
		t.Errorf("facts = %v", facts)
	}
}

func TestVisionExtractEndpoint(t *testing.T) {
	w := request(t, newRouter(t, nil), http.MethodPost, "/api/v1/vision/extract", map[string]string{"image": labelImage(t)})
	body := decode(t, w)
	if w.Code != http.StatusOK || body["extracted"] != false || len(body["ingredients"].([]interface{})) != 0 {
		t.Errorf("disabled: status = %d body %v", w.Code, body)
	}

	backend := &scriptedBackend{vision: "```\nHere is the text:\nOAT BAR\nIngredients: Oats, Honey, Almonds (12%), Salt.\nNutrition Information\nEnergy 180kcal\n```"}
	w = request(t, newRouter(t, backend), http.MethodPost, "/api/v1/vision/extract", map[string]string{"image": labelImage(t)})
	body = decode(t, w)
	got := body["ingredients"].([]interface{})
	if body["extracted"] != true || len(got) != 4 || got[2] != "Almonds (12%)" {
		t.Errorf("enabled: body %v", body)
	}

	w = request(t, newRouter(t, nil), http.MethodPost, "/api/v1/vision/extract", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing image status = %d", w.Code)
	}
}

func TestBarcodeEndpoint(t *testing.T) {
	r := newRouter(t, nil)

	w := request(t, r, http.MethodGet, "/api/v1/barcode/5000159407236?analyze=true", nil)
	body := decode(t, w)
	if w.Code != http.StatusOK || body["product_name"] != "Choco Bar" {
		t.Fatalf("status = %d body %v", w.Code, body)
	}
	if _, ok := body["analysis"].(map[string]interface{}); !ok {
		t.Error("analyze=true must attach an analysis")
	}

	w = request(t, r, http.MethodGet, "/api/v1/barcode/5000159407236", nil)
	if body := decode(t, w); body["analysis"] != nil {
		t.Error("analysis must be omitted by default")
	}

	w = request(t, r, http.MethodGet, "/api/v1/barcode/00000000", nil)
	if body := decode(t, w); w.Code != http.StatusNotFound || body["code"] != "PRODUCT_NOT_FOUND" {
		t.Errorf("unknown barcode: status = %d body %v", w.Code, body)
	}

	w = request(t, r, http.MethodGet, "/api/v1/barcode/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid barcode status = %d", w.Code)
	}
}

func TestCompareEndpoint(t *testing.T) {
	r := newRouter(t, nil)
	w := request(t, r, http.MethodPost, "/api/v1/compare", map[string]interface{}{
		"products": []map[string]interface{}{
			{"product_name": "Cola", "ingredients": []string{"carbonated water", "sugar", "corn syrup", "dextrose", "caramel color", "phosphoric acid"}},
			{"product_name": "Sparkling Water", "ingredients": []string{"carbonated water", "natural flavors"}},
		},
	})
	body := decode(t, w)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %v", w.Code, body)
	}
	if len(body["products"].([]interface{})) != 2 || body["recommendation"] == "" {
		t.Errorf("body = %v", body)
	}

	w = request(t, r, http.MethodPost, "/api/v1/compare", map[string]interface{}{
		"products": []map[string]interface{}{{"product_name": "Only", "ingredients": []string{"sugar"}}},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("single product status = %d", w.Code)
	}
}

func TestTimelineEndpoint(t *testing.T) {
	w := request(t, newRouter(t, nil), http.MethodPost, "/api/v1/timeline", map[string]interface{}{
		"product_name": "Choco Crunch",
		"ingredients":  []string{"sugar", "palm oil", "high fructose corn syrup", "salt"},
		"frequency":    "weekly",
	})
	body := decode(t, w)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %v", w.Code, body)
	}
	impact := body["impact"].(map[string]interface{})
	if impact["frequency"] != "weekly" || len(impact["timeline"].([]interface{})) != 3 {
		t.Errorf("impact = %v", impact)
	}
}

func TestDemoProductsAndHealth(t *testing.T) {
	r := newRouter(t, &scriptedBackend{})

	w := request(t, r, http.MethodGet, "/api/v1/demo-products", nil)
	if body := decode(t, w); body["count"] != 5.0 {
		t.Errorf("demo products = %v", body)
	}

	w = request(t, r, http.MethodGet, "/health", nil)
	body := decode(t, w)
	if body["status"] != "ok" {
		t.Errorf("health = %v", body)
	}
	providers := body["providers"].(map[string]interface{})
	if providers["text"] != "scripted" || providers["vision"] != "scripted" {
		t.Errorf("providers = %v", providers)
	}
	if _, ok := body["queue"].(map[string]interface{}); !ok {
		t.Error("health must report queue status")
	}

	for _, path := range []string{"/ready", "/live"} {
		if w := request(t, r, http.MethodGet, path, nil); w.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, w.Code)
		}
	}
}

func TestSetupRouterRequiresServices(t *testing.T) {
	if _, err := SetupRouter(testConfig(), Dependencies{}); err == nil || !strings.Contains(err.Error(), "required") {
		t.Errorf("err = %v", err)
	}

	base := knowledge.MustDefault()
	_, err := SetupRouter(testConfig(), Dependencies{
		Knowledge: base,
		Analysis:  analysis.NewService(base, nil, analysis.DefaultConfig()),
		Products:  fakeProducts{},
	})
	if err == nil || !strings.Contains(err.Error(), "deduplicator") {
		t.Errorf("missing deduplicator: err = %v", err)
	}
}
