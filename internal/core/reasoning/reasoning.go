// Package reasoning ranks matched ingredients, keeps the three most
// noteworthy as insights and derives the overall health signal from them.
package reasoning

import (
	"fmt"
	"sort"
	"strings"

	"foodsense/internal/core/intent"
	"foodsense/internal/core/knowledge"
	"foodsense/internal/core/normalizer"
)

// MaxInsights 每次分析最多輸出的洞察數
const MaxInsights = 3

// ConcernLevel 單一洞察的傾向
type ConcernLevel string

const (
	ConcernPositive ConcernLevel = "positive"
	ConcernNeutral  ConcernLevel = "neutral"
	ConcernNegative ConcernLevel = "negative"
)

// SignalLevel 整體健康訊號
type SignalLevel string

const (
	LikelySafe      SignalLevel = "likely_safe"
	ModerateConcern SignalLevel = "moderate_concern"
	PotentialRisk   SignalLevel = "potential_risk"
)

var signalIcons = map[SignalLevel]string{
	LikelySafe:      "🟢",
	ModerateConcern: "🟡",
	PotentialRisk:   "🔴",
}

var insightIcons = map[ConcernLevel]string{
	ConcernPositive: "✅",
	ConcernNeutral:  "🔍",
	ConcernNegative: "⚠️",
}

// Insight 單一成分的洞察
type Insight struct {
	Ingredient   string               `json:"ingredient"`
	Name         string               `json:"name"`
	Category     string               `json:"category"`
	Title        string               `json:"title"`
	Explanation  string               `json:"explanation"`
	ConcernLevel ConcernLevel         `json:"concern_level"`
	Confidence   knowledge.Confidence `json:"confidence"`
	Icon         string               `json:"icon"`
	Score        float64              `json:"-"`
	Concerns     []string             `json:"-"`
	Benefits     []string             `json:"-"`
}

// HealthSignal 由入選洞察推導的整體訊號
type HealthSignal struct {
	Level      SignalLevel          `json:"level"`
	Confidence knowledge.Confidence `json:"confidence"`
	Icon       string               `json:"icon"`
}

// TradeOffs 入選洞察的好處與壞處（已去重）
type TradeOffs struct {
	Benefits  []string `json:"benefits"`
	Downsides []string `json:"downsides"`
}

// Result 推理結果
type Result struct {
	Insights        []Insight    `json:"insights"`
	HealthSignal    HealthSignal `json:"health_signal"`
	TradeOffs       TradeOffs    `json:"trade_offs"`
	UncertaintyNote string       `json:"uncertainty_note"`
	Matched         int          `json:"-"`
	Total           int          `json:"-"`
}

// Config 排序權重
type Config struct {
	ConcernWeight     float64
	ConfidenceWeights map[knowledge.Confidence]float64
	IntentBonus       float64
	AbundanceWeight   float64
}

// DefaultConfig 預設權重
func DefaultConfig() Config {
	return Config{
		ConcernWeight: 1.0,
		ConfidenceWeights: map[knowledge.Confidence]float64{
			knowledge.ConfidenceHigh:   3,
			knowledge.ConfidenceMedium: 2,
			knowledge.ConfidenceLow:    1.5,
		},
		IntentBonus:     2,
		AbundanceWeight: 2,
	}
}

// Engine 推理引擎，無狀態可共用
type Engine struct {
	base *knowledge.Base
	cfg  Config
}

// NewEngine 建立推理引擎
func NewEngine(base *knowledge.Base, cfg Config) *Engine {
	return &Engine{base: base, cfg: cfg}
}

type candidate struct {
	rec   knowledge.IngredientRecord
	score float64
}

// Analyze 排序已匹配成分並挑出前三名
func (e *Engine) Analyze(ings []normalizer.Ingredient, in intent.Result) Result {
	cands := e.rank(ings, in.PrimaryIntent)

	insights := make([]Insight, 0, MaxInsights)
	for _, c := range cands {
		if len(insights) == MaxInsights {
			break
		}
		insights = append(insights, buildInsight(c))
	}

	unmatched := 0
	for _, ing := range ings {
		if !ing.Matched() {
			unmatched++
		}
	}

	return Result{
		Insights:        insights,
		HealthSignal:    Signal(insights),
		TradeOffs:       collectTradeOffs(insights),
		UncertaintyNote: uncertaintyNote(insights, len(cands), unmatched, len(ings)),
		Matched:         len(cands),
		Total:           len(ings),
	}
}

// rank 以標準鍵去重（位置取首次出現），依分數穩定排序
func (e *Engine) rank(ings []normalizer.Ingredient, primary intent.Intent) []candidate {
	n := len(ings)
	seen := map[string]bool{}
	var cands []candidate
	for _, ing := range ings {
		if !ing.Matched() || seen[ing.Key] {
			continue
		}
		rec, ok := e.base.Lookup(ing.Key)
		if !ok {
			continue
		}
		seen[ing.Key] = true
		cands = append(cands, candidate{rec: rec, score: e.score(rec, ing.Position, n, primary)})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	return cands
}

func (e *Engine) score(rec knowledge.IngredientRecord, pos, n int, primary intent.Intent) float64 {
	s := e.cfg.ConcernWeight * float64(len(rec.Concerns))
	s += e.cfg.ConfidenceWeights[rec.ResearchConfidence]
	if intent.InConcernArea(primary, rec.Category) {
		s += e.cfg.IntentBonus
	}
	if n > 0 {
		s += e.cfg.AbundanceWeight * float64(n-pos) / float64(n)
	}
	return s
}

// Level 依好處與壞處數量判斷傾向；嚴重旗標一律為負面
func Level(rec knowledge.IngredientRecord) ConcernLevel {
	switch {
	case rec.Severe || len(rec.Concerns) > len(rec.Benefits):
		return ConcernNegative
	case len(rec.Benefits) > len(rec.Concerns):
		return ConcernPositive
	}
	return ConcernNeutral
}

func buildInsight(c candidate) Insight {
	level := Level(c.rec)

	var title string
	switch level {
	case ConcernNegative:
		title = c.rec.Name + " - Potential Concern"
	case ConcernPositive:
		title = c.rec.Name + " - Beneficial"
	default:
		title = c.rec.Name + " - Mixed Evidence"
	}

	explanation := sentence(c.rec.HealthImpact)
	switch {
	case level != ConcernPositive && len(c.rec.Concerns) > 0:
		explanation += " " + sentence(c.rec.Concerns[0])
	case len(c.rec.Benefits) > 0:
		explanation += " " + sentence(c.rec.Benefits[0])
	}

	return Insight{
		Ingredient:   c.rec.Key,
		Name:         c.rec.Name,
		Category:     c.rec.Category,
		Title:        title,
		Explanation:  explanation,
		ConcernLevel: level,
		Confidence:   c.rec.ResearchConfidence,
		Icon:         insightIcons[level],
		Score:        c.score,
		Concerns:     c.rec.Concerns,
		Benefits:     c.rec.Benefits,
	}
}

func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?") {
		return s
	}
	return s + "."
}

// Signal 僅由入選洞察推導；信心取最弱的一項
func Signal(insights []Insight) HealthSignal {
	if len(insights) == 0 {
		return HealthSignal{Level: ModerateConcern, Confidence: knowledge.ConfidenceLow, Icon: signalIcons[ModerateConcern]}
	}

	confidence := knowledge.ConfidenceHigh
	negatives, forced := 0, false
	for _, in := range insights {
		if in.Confidence.Rank() < confidence.Rank() {
			confidence = in.Confidence
		}
		if in.ConcernLevel == ConcernNegative {
			negatives++
			if in.Confidence == knowledge.ConfidenceHigh {
				forced = true
			}
		}
	}

	level := LikelySafe
	switch {
	case forced:
		level = PotentialRisk
	case negatives*2 >= len(insights):
		level = ModerateConcern
	}
	return HealthSignal{Level: level, Confidence: confidence, Icon: signalIcons[level]}
}

func collectTradeOffs(insights []Insight) TradeOffs {
	t := TradeOffs{Benefits: []string{}, Downsides: []string{}}
	seenB, seenD := map[string]bool{}, map[string]bool{}
	for _, in := range insights {
		for _, b := range in.Benefits {
			if !seenB[b] {
				seenB[b] = true
				t.Benefits = append(t.Benefits, b)
			}
		}
		for _, d := range in.Concerns {
			if !seenD[d] {
				seenD[d] = true
				t.Downsides = append(t.Downsides, d)
			}
		}
	}
	return t
}

func uncertaintyNote(insights []Insight, matched, unmatched, total int) string {
	if matched == 0 {
		return "None of the listed ingredients are in our knowledge base yet, so no ingredient-level findings could be made. Treat this result as incomplete."
	}

	var low, medium []string
	for _, in := range insights {
		switch in.Confidence {
		case knowledge.ConfidenceLow:
			low = append(low, in.Name)
		case knowledge.ConfidenceMedium:
			medium = append(medium, in.Name)
		}
	}

	var parts []string
	if len(low) > 0 {
		parts = append(parts, fmt.Sprintf("Research on %s is limited and still evolving.", joinNames(low)))
	}
	if len(medium) > 0 {
		parts = append(parts, fmt.Sprintf("Evidence on %s is moderate and effects may vary between people.", joinNames(medium)))
	}
	switch {
	case unmatched > 0:
		parts = append(parts, fmt.Sprintf("Coverage is partial: %d of %d ingredients matched our knowledge base.", total-unmatched, total))
	case matched < MaxInsights:
		parts = append(parts, fmt.Sprintf("Only %d distinct known ingredient(s) were found, so coverage is partial.", matched))
	}
	if len(parts) == 0 {
		return "These findings rest on well-established research."
	}
	return strings.Join(parts, " ")
}

func joinNames(names []string) string {
	switch len(names) {
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
