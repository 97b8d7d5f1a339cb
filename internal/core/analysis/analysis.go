// Package analysis runs one request through the normalizer, intent, deception,
// reasoning and explanation stages, or routes nutrition-mode requests to the
// threshold classifier. A Service holds no per-request state and may be shared.
package analysis

import (
	"context"
	"strings"
	"time"

	"foodsense/internal/core/deception"
	"foodsense/internal/core/explain"
	"foodsense/internal/core/intent"
	"foodsense/internal/core/knowledge"
	"foodsense/internal/core/normalizer"
	"foodsense/internal/core/nutrition"
	"foodsense/internal/core/reasoning"
	"foodsense/internal/infrastructure/config"
	"foodsense/internal/pkg/common"

	"go.uber.org/zap"
)

// 分析模式
const (
	TypeIngredients = "ingredients"
	TypeNutrition   = "nutrition"
)

// MaxIngredients 單次請求可接受的成分數上限
const MaxIngredients = 200

// Request 分析請求
type Request struct {
	Ingredients     []string         `json:"ingredients"`
	ProductName     string           `json:"product_name"`
	UserPreferences []string         `json:"user_preferences"`
	IncludeELI5     bool             `json:"include_eli5"`
	Language        string           `json:"language"`
	AnalysisType    string           `json:"analysis_type"`
	Nutrition       *nutrition.Facts `json:"nutrition,omitempty"`
}

// Result 成分分析結果；推理與說明欄位直接展開在頂層
type Result struct {
	AnalysisType string        `json:"analysis_type"`
	ProductName  string        `json:"product_name,omitempty"`
	Language     string        `json:"language"`
	Intent       intent.Result `json:"intent"`
	reasoning.Result
	DeceptionAlerts      []deception.Alert `json:"deception_alerts"`
	OverallSurpriseScore int               `json:"overall_surprise_score"`
	explain.Output
	IngredientsAnalyzed int `json:"ingredients_analyzed"`
	IngredientsMatched  int `json:"ingredients_matched"`
}

// NutritionResult 營養模式結果
type NutritionResult struct {
	AnalysisType string `json:"analysis_type"`
	ProductName  string `json:"product_name,omitempty"`
	Language     string `json:"language"`
	nutrition.Result
}

// Config 各階段參數
type Config struct {
	Intent     intent.Config
	Reasoning  reasoning.Config
	Explain    explain.Config
	Thresholds nutrition.Thresholds
}

// DefaultConfig 預設參數
func DefaultConfig() Config {
	return Config{
		Intent:     intent.DefaultConfig(),
		Reasoning:  reasoning.DefaultConfig(),
		Explain:    explain.DefaultConfig(),
		Thresholds: nutrition.DefaultThresholds,
	}
}

// ConfigFrom 由應用設定組出各階段參數
func ConfigFrom(cfg *config.Config) Config {
	a := cfg.Analysis
	return Config{
		Intent: intent.Config{
			HintWeight:    a.HintWeight,
			MinConfidence: a.MinIntentConfidence,
			MaxConfidence: a.MaxIntentConfidence,
		},
		Reasoning: reasoning.Config{
			ConcernWeight: a.ConcernWeight,
			ConfidenceWeights: map[knowledge.Confidence]float64{
				knowledge.ConfidenceHigh:   a.ConfidenceHigh,
				knowledge.ConfidenceMedium: a.ConfidenceMedium,
				knowledge.ConfidenceLow:    a.ConfidenceLow,
			},
			IntentBonus:     a.IntentBonus,
			AbundanceWeight: a.AbundanceWeight,
		},
		Explain: explain.Config{
			MaxFollowUps:     a.MaxFollowUps,
			WordsPerSentence: a.ELI5WordsPerLine,
			ELI5MaxChars:     cfg.AI.ELI5MaxChars,
			MaxTokens:        cfg.AI.MaxTokens,
		},
		Thresholds: nutrition.DefaultThresholds,
	}
}

// Service 分析流程
type Service struct {
	normalizer *normalizer.Normalizer
	intent     *intent.Engine
	detector   *deception.Detector
	reasoning  *reasoning.Engine
	explainer  *explain.Generator
	classifier *nutrition.Classifier
}

// NewService 建立分析流程；gen 可為 nil，此時 ELI5 一律走本地改寫
func NewService(base *knowledge.Base, gen explain.TextGenerator, cfg Config) *Service {
	return &Service{
		normalizer: normalizer.New(base),
		intent:     intent.NewEngine(base, cfg.Intent),
		detector:   deception.New(base),
		reasoning:  reasoning.NewEngine(base, cfg.Reasoning),
		explainer:  explain.New(gen, cfg.Explain),
		classifier: nutrition.NewClassifier(cfg.Thresholds),
	}
}

// Analyze 執行成分分析；只有無效輸入會回傳錯誤
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	req, hints, err := prepare(req)
	if err != nil {
		return nil, err
	}
	if req.AnalysisType != TypeIngredients {
		return nil, common.NewInputError("analysis_type", "use AnalyzeNutrition for nutrition requests")
	}

	ings := s.normalizer.NormalizeAll(req.Ingredients)
	in := s.intent.Infer(ings, req.ProductName, hints)
	report := s.detector.Detect(ings)
	r := s.reasoning.Analyze(ings, in)
	out := s.explainer.Explain(ctx, in, r, req.IncludeELI5, req.Language)

	res := &Result{
		AnalysisType:         TypeIngredients,
		ProductName:          req.ProductName,
		Language:             req.Language,
		Intent:               in,
		Result:               r,
		DeceptionAlerts:      report.Alerts,
		OverallSurpriseScore: report.OverallScore,
		Output:               out,
		IngredientsAnalyzed:  len(ings),
		IngredientsMatched:   r.Matched,
	}

	common.LogDebug("analysis completed",
		zap.String("product", req.ProductName),
		zap.Int("ingredients", len(ings)),
		zap.Int("matched", r.Matched),
		zap.String("intent", string(in.PrimaryIntent)),
		zap.String("signal", string(r.HealthSignal.Level)),
		zap.Int("alerts", len(report.Alerts)),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}

// AnalyzeNutrition 以門檻分類器評估營養數值
func (s *Service) AnalyzeNutrition(req Request) (*NutritionResult, error) {
	req.AnalysisType = TypeNutrition
	req, _, err := prepare(req)
	if err != nil {
		return nil, err
	}
	return &NutritionResult{
		AnalysisType: TypeNutrition,
		ProductName:  req.ProductName,
		Language:     req.Language,
		Result:       s.classifier.Classify(*req.Nutrition),
	}, nil
}

// NutritionFromLabel 解析標示文字後分類；讀不到數值時回傳低信心結果
func (s *Service) NutritionFromLabel(text string) (nutrition.Result, nutrition.Facts) {
	if strings.TrimSpace(text) == "" {
		return nutrition.Insufficient("No text could be read from the label image"), nutrition.Facts{}
	}
	facts, found := nutrition.ParseLabel(text)
	if found == 0 {
		return nutrition.Insufficient("No nutrition values were found in the label text"), facts
	}
	return s.classifier.Classify(facts), facts
}

// SplitIngredients 由標示全文取出成分清單
func SplitIngredients(label string) (string, []string) {
	section := normalizer.IngredientSection(label)
	list := normalizer.SplitLabel(section)
	if list == nil {
		list = []string{}
	}
	return section, list
}

// prepare 驗證並整理請求，回傳去重後的意圖提示
func prepare(req Request) (Request, []intent.Intent, error) {
	req.AnalysisType = strings.ToLower(strings.TrimSpace(req.AnalysisType))
	if req.AnalysisType == "" {
		req.AnalysisType = TypeIngredients
	}
	req.ProductName = strings.TrimSpace(req.ProductName)
	req.Language = explain.NormalizeLanguage(strings.ToLower(strings.TrimSpace(req.Language)))

	switch req.AnalysisType {
	case TypeIngredients:
		ingredients, err := cleanIngredients(req.Ingredients)
		if err != nil {
			return req, nil, err
		}
		req.Ingredients = ingredients
	case TypeNutrition:
		if req.Nutrition == nil || req.Nutrition.Empty() {
			return req, nil, common.NewInputError("nutrition", "nutrition facts are required when analysis_type is nutrition")
		}
		if err := validateFacts(*req.Nutrition); err != nil {
			return req, nil, err
		}
	default:
		return req, nil, common.NewInputError("analysis_type", "analysis_type must be ingredients or nutrition")
	}

	var hints []intent.Intent
	seen := map[intent.Intent]bool{}
	for _, p := range req.UserPreferences {
		if in, ok := intent.ParseIntent(strings.ToLower(strings.TrimSpace(p))); ok && !seen[in] {
			seen[in] = true
			hints = append(hints, in)
		}
	}
	return req, hints, nil
}

func cleanIngredients(raw []string) ([]string, error) {
	if normalizer.NeedsSplit(raw) {
		raw = normalizer.SplitLabel(raw[0])
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, common.NewInputError("ingredients", "at least one ingredient is required")
	}
	if len(out) > MaxIngredients {
		return nil, common.NewInputError("ingredients", "too many ingredients in one request")
	}
	return out, nil
}

func validateFacts(f nutrition.Facts) error {
	for _, v := range []*float64{
		f.ServingsPerPack, f.Calories, f.Protein, f.TotalFat, f.SaturatedFat, f.TransFat,
		f.MonounsaturatedFat, f.PolyunsaturatedFat, f.Cholesterol, f.Sodium,
		f.TotalCarbohydrates, f.DietaryFiber, f.TotalSugars, f.AddedSugars,
	} {
		if v != nil && *v < 0 {
			return common.NewInputError("nutrition", "nutrition values must not be negative")
		}
	}
	return nil
}
