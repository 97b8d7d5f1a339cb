// Package intent infers the product's food context and the user's dominant
// health concern from the ingredient list, product name and caller hints.
package intent

import (
	"fmt"
	"strings"

	"foodsense/internal/core/knowledge"
	"foodsense/internal/core/normalizer"
)

// Result 意圖推論結果
type Result struct {
	FoodContext    FoodContext        `json:"food_context"`
	PrimaryIntent  Intent             `json:"primary_intent"`
	ContextSummary string             `json:"context_summary"`
	Confidence     float64            `json:"confidence"`
	Scores         map[Intent]float64 `json:"-"`
}

// Config 推論參數
type Config struct {
	HintWeight    float64
	MinConfidence float64
	MaxConfidence float64
}

// DefaultConfig 預設參數
func DefaultConfig() Config {
	return Config{HintWeight: 2.5, MinConfidence: 0.3, MaxConfidence: 0.95}
}

// Engine 意圖推論引擎，無狀態可共用
type Engine struct {
	base *knowledge.Base
	cfg  Config
}

// NewEngine 建立推論引擎
func NewEngine(base *knowledge.Base, cfg Config) *Engine {
	return &Engine{base: base, cfg: cfg}
}

// Infer 推論食品類別與主要意圖
func (e *Engine) Infer(ings []normalizer.Ingredient, productName string, hints []Intent) Result {
	name := normalizer.Clean(productName)
	categories := e.distinctCategories(ings)

	ctx := classifyContext(ings, name, categories)
	scores := e.scoreIntents(ings, name, categories, hints)
	primary, confidence := e.pick(scores)

	return Result{
		FoodContext:    ctx,
		PrimaryIntent:  primary,
		ContextSummary: summarize(productName, ctx, primary),
		Confidence:     confidence,
		Scores:         scores,
	}
}

// distinctCategories 依首次出現順序回傳已匹配成分的類別（每個標準鍵只算一次）
func (e *Engine) distinctCategories(ings []normalizer.Ingredient) []string {
	seen := map[string]bool{}
	var out []string
	for _, ing := range ings {
		if !ing.Matched() || seen[ing.Key] {
			continue
		}
		seen[ing.Key] = true
		if rec, ok := e.base.Lookup(ing.Key); ok {
			out = append(out, rec.Category)
		}
	}
	return out
}

func classifyContext(ings []normalizer.Ingredient, name string, categories []string) FoodContext {
	best, bestScore := PackagedSnack, 0.0
	for _, rule := range contextRules {
		score := 0.0
		for _, kw := range rule.Keywords {
			if normalizer.ContainsPhrase(name, kw) {
				score += nameKeywordWeight
			}
			for _, ing := range ings {
				if normalizer.ContainsPhrase(ing.Clean, kw) {
					score += ingredientKeywordWeight
				}
			}
		}
		for _, c := range categories {
			for _, rc := range rule.Categories {
				if c == rc {
					score += categoryWeight
				}
			}
		}
		for _, combo := range rule.Combos {
			if allPresent(ings, combo) {
				score += comboWeight
			}
		}
		if score > bestScore {
			best, bestScore = rule.Context, score
		}
	}
	return best
}

func allPresent(ings []normalizer.Ingredient, keywords []string) bool {
	for _, kw := range keywords {
		found := false
		for _, ing := range ings {
			if normalizer.ContainsPhrase(ing.Clean, kw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (e *Engine) scoreIntents(ings []normalizer.Ingredient, name string, categories []string, hints []Intent) map[Intent]float64 {
	scores := make(map[Intent]float64, len(Intents))
	scores[GeneralHealth] = baseGeneralHealth

	for _, c := range categories {
		for _, contrib := range categoryIntents[c] {
			scores[contrib.Intent] += contrib.Weight
		}
	}

	for _, g := range e.base.Groups() {
		contrib, ok := groupIntents[g.Category]
		if !ok {
			continue
		}
		n := len(normalizer.GroupMatches(ings, g))
		scores[contrib.Intent] += contrib.Weight * float64(n)
	}

	childMarketed := false
	for _, rule := range nameRules {
		for _, kw := range rule.Keywords {
			if normalizer.ContainsPhrase(name, kw) {
				scores[rule.Intent] += rule.Weight
				if rule.Intent == ChildSafety {
					childMarketed = true
				}
				break
			}
		}
	}
	if childMarketed {
		for _, c := range categories {
			if InConcernArea(ChildSafety, c) {
				scores[ChildSafety] += childAmplifier
			}
		}
	}

	for _, h := range hints {
		scores[h] += e.cfg.HintWeight
	}
	return scores
}

// pick argmax 並以領先幅度計算信心；除基準傾向外沒有任何訊號時回傳最低信心
func (e *Engine) pick(scores map[Intent]float64) (Intent, float64) {
	top, topScore, runner := GeneralHealth, -1.0, 0.0
	for _, in := range Intents {
		s := scores[in]
		if s > topScore {
			runner = max(runner, topScore)
			top, topScore = in, s
		} else if s > runner {
			runner = s
		}
	}
	evidence := -baseGeneralHealth
	for _, s := range scores {
		evidence += s
	}
	if topScore <= 0 || evidence <= 0 {
		return GeneralHealth, e.cfg.MinConfidence
	}
	margin := (topScore - runner) / topScore
	return top, clamp(margin, e.cfg.MinConfidence, e.cfg.MaxConfidence)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func summarize(productName string, ctx FoodContext, in Intent) string {
	subject := "This"
	if p := strings.TrimSpace(productName); p != "" {
		subject = p
	}
	return fmt.Sprintf("%s appears to be %s. Focusing on %s.", subject, contextDescriptions[ctx], intentDescriptions[in])
}
