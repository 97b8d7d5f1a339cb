// Package barcode looks up packaged products by barcode in the Open Food
// Facts database and maps them onto the analysis inputs.
package barcode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"foodsense/internal/core/normalizer"
	"foodsense/internal/core/nutrition"
	"foodsense/internal/infrastructure/config"
	"foodsense/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var codePattern = regexp.MustCompile(`^\d{8,14}$`)

// Product 條碼查詢結果
type Product struct {
	Barcode         string           `json:"barcode"`
	ProductName     string           `json:"product_name"`
	Brands          string           `json:"brands,omitempty"`
	IngredientsText string           `json:"ingredients_text"`
	Ingredients     []string         `json:"ingredients"`
	Nutrition       *nutrition.Facts `json:"nutrition,omitempty"`
	NutritionBasis  string           `json:"nutrition_basis,omitempty"`
}

// offResponse Open Food Facts v2 回應
type offResponse struct {
	Status  int `json:"status"`
	Product struct {
		ProductName       string                 `json:"product_name"`
		ProductNameEN     string                 `json:"product_name_en"`
		GenericName       string                 `json:"generic_name"`
		Brands            string                 `json:"brands"`
		IngredientsText   string                 `json:"ingredients_text"`
		IngredientsTextEN string                 `json:"ingredients_text_en"`
		ServingSize       string                 `json:"serving_size"`
		Nutriments        map[string]interface{} `json:"nutriments"`
	} `json:"product"`
}

// Client Open Food Facts 用戶端
type Client struct {
	client *resty.Client
}

// NewClient 建立用戶端
func NewClient(cfg config.BarcodeConfig) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")
	return &Client{client: client}
}

// ValidateCode 條碼必須是 8 到 14 位數字
func ValidateCode(code string) error {
	if !codePattern.MatchString(code) {
		return common.NewInputError("barcode", "barcode must be 8 to 14 digits")
	}
	return nil
}

// Lookup 查詢條碼
func (c *Client) Lookup(ctx context.Context, code string) (*Product, error) {
	code = strings.TrimSpace(code)
	if err := ValidateCode(code); err != nil {
		return nil, err
	}

	var body offResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&body).
		ForceContentType("application/json").
		Get(fmt.Sprintf("/api/v2/product/%s.json", code))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, common.Wrap(common.ErrGatewayTimeout, err)
		}
		common.LogWarn("open food facts request failed", zap.String("barcode", code), zap.Error(err))
		return nil, common.Wrap(common.ErrUpstreamUnavailable, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, common.ErrProductNotFound
	case resp.StatusCode() != http.StatusOK:
		return nil, common.Wrap(common.ErrUpstreamUnavailable, fmt.Errorf("open food facts returned status %d", resp.StatusCode()))
	case body.Status != 1:
		return nil, common.ErrProductNotFound
	}

	p := body.Product
	product := &Product{
		Barcode:         code,
		ProductName:     firstNonEmpty(p.ProductName, p.ProductNameEN, p.GenericName, "Unknown Product"),
		Brands:          p.Brands,
		IngredientsText: firstNonEmpty(p.IngredientsText, p.IngredientsTextEN),
	}
	product.Ingredients = normalizer.SplitLabel(product.IngredientsText)
	if product.Ingredients == nil {
		product.Ingredients = []string{}
	}

	facts, basis := mapNutriments(p.Nutriments, p.ServingSize)
	if !facts.Empty() {
		product.Nutrition = &facts
		product.NutritionBasis = basis
	}

	if len(product.Ingredients) == 0 && product.Nutrition == nil {
		return nil, common.Wrap(common.ErrProductNotFound,
			fmt.Errorf("product %q has neither an ingredient list nor nutrition facts", product.ProductName))
	}

	common.LogDebug("barcode resolved",
		zap.String("barcode", code),
		zap.String("product", product.ProductName),
		zap.Int("ingredients", len(product.Ingredients)),
	)
	return product, nil
}

// nutrimentField Open Food Facts 欄位對應；scale 將 g 轉為 mg
type nutrimentField struct {
	key   string
	scale float64
	set   func(f *nutrition.Facts, v *float64)
}

var nutrimentFields = []nutrimentField{
	{"energy-kcal", 1, func(f *nutrition.Facts, v *float64) { f.Calories = v }},
	{"proteins", 1, func(f *nutrition.Facts, v *float64) { f.Protein = v }},
	{"fat", 1, func(f *nutrition.Facts, v *float64) { f.TotalFat = v }},
	{"saturated-fat", 1, func(f *nutrition.Facts, v *float64) { f.SaturatedFat = v }},
	{"trans-fat", 1, func(f *nutrition.Facts, v *float64) { f.TransFat = v }},
	{"monounsaturated-fat", 1, func(f *nutrition.Facts, v *float64) { f.MonounsaturatedFat = v }},
	{"polyunsaturated-fat", 1, func(f *nutrition.Facts, v *float64) { f.PolyunsaturatedFat = v }},
	{"cholesterol", 1000, func(f *nutrition.Facts, v *float64) { f.Cholesterol = v }},
	{"sodium", 1000, func(f *nutrition.Facts, v *float64) { f.Sodium = v }},
	{"carbohydrates", 1, func(f *nutrition.Facts, v *float64) { f.TotalCarbohydrates = v }},
	{"fiber", 1, func(f *nutrition.Facts, v *float64) { f.DietaryFiber = v }},
	{"sugars", 1, func(f *nutrition.Facts, v *float64) { f.TotalSugars = v }},
	{"added-sugars", 1, func(f *nutrition.Facts, v *float64) { f.AddedSugars = v }},
}

// mapNutriments 優先使用每份數值，沒有時改用每 100g
func mapNutriments(n map[string]interface{}, servingSize string) (nutrition.Facts, string) {
	basis := "serving"
	if _, ok := number(n["energy-kcal_serving"]); !ok {
		basis = "100g"
	}

	var facts nutrition.Facts
	for _, field := range nutrimentFields {
		if v, ok := number(n[field.key+"_"+basis]); ok {
			field.set(&facts, nutrition.Float(v*field.scale))
		}
	}
	if basis == "serving" {
		facts.ServingSize = servingSize
	} else if !facts.Empty() {
		facts.ServingSize = "100g"
	}
	return facts, basis
}

// number 營養數值可能是數字或字串
func number(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
