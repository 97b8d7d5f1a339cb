// Package timeline projects how the concerns of a product add up when it is
// eaten regularly over a day, a week and a month.
package timeline

import (
	"strings"

	"foodsense/internal/core/reasoning"
)

// Frequency 食用頻率
type Frequency string

const (
	Daily  Frequency = "daily"
	Weekly Frequency = "weekly"
)

// ParseFrequency 未知值視為每日
func ParseFrequency(s string) Frequency {
	if Frequency(strings.ToLower(strings.TrimSpace(s))) == Weekly {
		return Weekly
	}
	return Daily
}

// Severity 累積程度
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Impact 單一時間點的推估
type Impact struct {
	Timeframe          string   `json:"timeframe"`
	CumulativeConcerns []string `json:"cumulative_concerns"`
	Severity           Severity `json:"severity"`
	Recommendation     string   `json:"recommendation"`
}

// Timeline 完整推估
type Timeline struct {
	ProductName   string    `json:"product_name"`
	Frequency     Frequency `json:"frequency"`
	Timeline      []Impact  `json:"timeline"`
	OverallAdvice string    `json:"overall_advice"`
}

// effect 依關鍵字外推的長期影響
type effect struct {
	keywords []string
	week     string
	month    string
}

var effects = []effect{
	{
		keywords: []string{"sugar", "syrup", "sweetener"},
		week:     "Regular sugar intake may affect energy stability and weight",
		month:    "Monthly sugar accumulation increases metabolic stress",
	},
	{
		keywords: []string{"preservative", "artificial", "color", "flavor_enhancer", "emulsifier"},
		week:     "Weekly additive exposure may accumulate even as the body adapts",
		month:    "Long-term additive consumption effects are still debated",
	},
	{
		keywords: []string{"fat", "oil"},
		week:     "Regular saturated fat may impact cholesterol levels",
		month:    "Monthly fat intake patterns affect cardiovascular health",
	},
}

// Project 由推理結果推估 1 天、1 週、1 個月的累積影響
func Project(productName string, r reasoning.Result, freq Frequency) Timeline {
	if freq == "" {
		freq = Daily
	}

	var concerns, keys []string
	for _, in := range r.Insights {
		if in.ConcernLevel != reasoning.ConcernNegative {
			continue
		}
		concerns = append(concerns, in.Title)
		keys = append(keys, strings.ToLower(in.Name+" "+in.Category))
	}

	day := Impact{
		Timeframe:          "1 Day",
		CumulativeConcerns: []string{"Minimal immediate impact"},
		Severity:           SeverityLow,
		Recommendation:     "Single consumption is generally manageable",
	}
	if len(concerns) > 0 {
		day.CumulativeConcerns = concerns[:1]
	}

	week := extrapolate(concerns, keys, 7)
	month := extrapolate(concerns, keys, 30)

	return Timeline{
		ProductName: productName,
		Frequency:   freq,
		Timeline: []Impact{
			day,
			{
				Timeframe:          "1 Week",
				CumulativeConcerns: week,
				Severity:           severity(week),
				Recommendation:     weeklyRecommendation(week),
			},
			{
				Timeframe:          "1 Month",
				CumulativeConcerns: month,
				Severity:           severity(month),
				Recommendation:     monthlyRecommendation(month),
			},
		},
		OverallAdvice: advice(r.HealthSignal.Level, len(concerns), freq),
	}
}

// extrapolate 依關鍵字展開影響；沒有對應時沿用原本的疑慮
func extrapolate(concerns, keys []string, days int) []string {
	if len(concerns) == 0 {
		return []string{"No significant concerns identified"}
	}

	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, key := range keys {
		for _, e := range effects {
			if !matches(key, e.keywords) {
				continue
			}
			if days >= 7 {
				add(e.week)
			}
			if days >= 30 {
				add(e.month)
			}
		}
	}
	if len(out) == 0 {
		return concerns
	}
	return out
}

func matches(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// severity ≤1 項為低、≤3 項為中，其餘為高；沒有疑慮時為低
func severity(concerns []string) Severity {
	n := len(concerns)
	if n == 1 && strings.HasPrefix(concerns[0], "No significant") {
		n = 0
	}
	switch {
	case n <= 1:
		return SeverityLow
	case n <= 3:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}

func weeklyRecommendation(concerns []string) string {
	switch severity(concerns) {
	case SeverityLow:
		return "Weekly consumption appears manageable - enjoy in moderation"
	case SeverityMedium:
		return "Consider limiting to 2-3 times per week maximum"
	default:
		return "Recommend finding healthier alternatives for regular consumption"
	}
}

func monthlyRecommendation(concerns []string) string {
	switch severity(concerns) {
	case SeverityLow:
		return "Monthly patterns suggest minimal long-term risk with moderation"
	case SeverityMedium:
		return "Consider varying your diet to reduce cumulative effects"
	default:
		return "Long-term daily consumption not recommended - explore alternatives"
	}
}

// advice 依整體健康訊號與頻率給出建議
func advice(level reasoning.SignalLevel, concerns int, freq Frequency) string {
	if concerns == 0 && level == reasoning.LikelySafe {
		return "This product appears safe for " + string(freq) + " consumption based on current research."
	}
	switch {
	case freq == Weekly && level == reasoning.PotentialRisk:
		return "⚖️ Weekly consumption is more reasonable, but monitor overall dietary patterns."
	case freq == Weekly:
		return "✅ Weekly consumption appears manageable within a balanced diet."
	case level == reasoning.PotentialRisk || concerns > 2:
		return "⚠️ Daily consumption may lead to cumulative health effects. Consider it an occasional treat instead."
	default:
		return "⚖️ Daily use is possible, but moderation and variety in your diet are key."
	}
}
