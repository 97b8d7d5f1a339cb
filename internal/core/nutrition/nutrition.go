// Package nutrition classifies nutrition-facts figures against fixed
// per-serving WHO/FSSAI style thresholds.
package nutrition

import (
	"fmt"
	"strconv"
	"strings"

	"foodsense/internal/core/knowledge"
)

// Facts 營養標示數值，皆為每份且可缺省
type Facts struct {
	ServingSize        string   `json:"serving_size,omitempty"`
	ServingsPerPack    *float64 `json:"servings_per_pack,omitempty"`
	Calories           *float64 `json:"calories,omitempty"`
	Protein            *float64 `json:"protein,omitempty"`
	TotalFat           *float64 `json:"total_fat,omitempty"`
	SaturatedFat       *float64 `json:"saturated_fat,omitempty"`
	TransFat           *float64 `json:"trans_fat,omitempty"`
	MonounsaturatedFat *float64 `json:"monounsaturated_fat,omitempty"`
	PolyunsaturatedFat *float64 `json:"polyunsaturated_fat,omitempty"`
	Cholesterol        *float64 `json:"cholesterol,omitempty"`
	Sodium             *float64 `json:"sodium,omitempty"`
	TotalCarbohydrates *float64 `json:"total_carbohydrates,omitempty"`
	DietaryFiber       *float64 `json:"dietary_fiber,omitempty"`
	TotalSugars        *float64 `json:"total_sugars,omitempty"`
	AddedSugars        *float64 `json:"added_sugars,omitempty"`
}

// Empty 沒有任何數值
func (f Facts) Empty() bool {
	for _, v := range f.values() {
		if v != nil {
			return false
		}
	}
	return f.ServingsPerPack == nil
}

func (f Facts) values() []*float64 {
	return []*float64{
		f.Calories, f.Protein, f.TotalFat, f.SaturatedFat, f.TransFat,
		f.MonounsaturatedFat, f.PolyunsaturatedFat, f.Cholesterol, f.Sodium,
		f.TotalCarbohydrates, f.DietaryFiber, f.TotalSugars, f.AddedSugars,
	}
}

// Float 建立數值指標
func Float(v float64) *float64 { return &v }

// Classification 營養分類
type Classification string

const (
	Good     Classification = "Good"
	Moderate Classification = "Moderate"
	Bad      Classification = "Bad"
)

var recommendations = map[Classification]string{
	Good:     "Regular",
	Moderate: "Occasional",
	Bad:      "Avoid",
}

// WarningSeverity 警示等級
type WarningSeverity string

const (
	WarningInfo    WarningSeverity = "info"
	WarningCaution WarningSeverity = "caution"
	WarningHigh    WarningSeverity = "high"
)

// Warning 超標項目
type Warning struct {
	Code     string          `json:"code"`
	Severity WarningSeverity `json:"severity"`
	Metric   string          `json:"metric"`
	Value    float64         `json:"value"`
	Limit    float64         `json:"limit"`
	Message  string          `json:"message"`
}

// Metrics 計分明細
type Metrics struct {
	PositiveScore int `json:"positive_score"`
	NegativeScore int `json:"negative_score"`
	CriticalFlags int `json:"critical_flags"`
}

// Result 分類結果
type Result struct {
	Classification         Classification       `json:"classification"`
	Score                  int                  `json:"nutrition_score"`
	Confidence             knowledge.Confidence `json:"confidence"`
	KeyPositives           []string             `json:"key_positives"`
	KeyNegatives           []string             `json:"key_negatives"`
	Warnings               []Warning            `json:"warnings"`
	HealthSummary          string               `json:"health_summary"`
	RecommendedConsumption string               `json:"recommended_consumption"`
	ThresholdsUsed         string               `json:"thresholds_used"`
	MetricsEvaluated       []string             `json:"metrics_evaluated"`
	Metrics                Metrics              `json:"metrics"`
}

// Thresholds 每份門檻
type Thresholds struct {
	HighCalories     float64
	HighAddedSugar   float64
	HighTotalSugar   float64
	HighSaturatedFat float64
	HighTotalFat     float64
	HighSodium       float64
	AnyTransFat      float64
	HighCholesterol  float64
	GoodProtein      float64
	GoodFiber        float64
	LowSodium        float64
	LowSaturatedFat  float64
	HealthyMUFA      float64
	HealthyPUFA      float64
}

// DefaultThresholds WHO/FSSAI 參考值
var DefaultThresholds = Thresholds{
	HighCalories:     250,
	HighAddedSugar:   10,
	HighTotalSugar:   15,
	HighSaturatedFat: 5,
	HighTotalFat:     15,
	HighSodium:       200,
	AnyTransFat:      0,
	HighCholesterol:  60,
	GoodProtein:      5,
	GoodFiber:        3,
	LowSodium:        100,
	LowSaturatedFat:  2,
	HealthyMUFA:      3,
	HealthyPUFA:      1,
}

// ThresholdSource 門檻出處
const ThresholdSource = "WHO/FSSAI"

// Classifier 營養分類器，無狀態
type Classifier struct {
	th Thresholds
}

// NewClassifier 建立分類器
func NewClassifier(th Thresholds) *Classifier {
	return &Classifier{th: th}
}

// Classify 以預設門檻分類
func Classify(f Facts) Result {
	return NewClassifier(DefaultThresholds).Classify(f)
}

type tally struct {
	items    []string
	warnings []Warning
	score    int
	critical int
}

// Classify 計分並分類；有任何臨界項目時直接判為 Bad
func (c *Classifier) Classify(f Facts) Result {
	pos := c.positives(f)
	neg := c.negatives(f)

	score := clamp(50+min(pos.score, 50)-min(neg.score, 50), 0, 100)
	class := Bad
	switch {
	case neg.critical > 0:
		class = Bad
	case score >= 70:
		class = Good
	case score >= 40:
		class = Moderate
	}

	return Result{
		Classification:         class,
		Score:                  score,
		Confidence:             confidence(f),
		KeyPositives:           nonNil(pos.items),
		KeyNegatives:           nonNil(neg.items),
		Warnings:               append([]Warning{}, neg.warnings...),
		HealthSummary:          summary(class, pos.items, neg.items, f),
		RecommendedConsumption: recommendations[class],
		ThresholdsUsed:         ThresholdSource,
		MetricsEvaluated:       evaluated(f),
		Metrics:                Metrics{PositiveScore: pos.score, NegativeScore: neg.score, CriticalFlags: neg.critical},
	}
}

func (c *Classifier) positives(f Facts) tally {
	var t tally
	add := func(points int, format string, args ...interface{}) {
		t.items = append(t.items, fmt.Sprintf(format, args...))
		t.score += points
	}
	if v, ok := get(f.Protein); ok && v >= c.th.GoodProtein {
		add(20, "Good protein content (%sg) - supports muscle health", num(v))
	}
	if v, ok := get(f.DietaryFiber); ok && v >= c.th.GoodFiber {
		add(25, "High dietary fiber (%sg) - aids digestion", num(v))
	}
	if v, ok := get(f.SaturatedFat); ok && v <= c.th.LowSaturatedFat {
		add(15, "Low saturated fat (%sg) - heart-friendly", num(v))
	}
	if v, ok := get(f.Sodium); ok && v <= c.th.LowSodium {
		add(15, "Low sodium (%smg) - good for blood pressure", num(v))
	}
	if v, ok := get(f.MonounsaturatedFat); ok && v > c.th.HealthyMUFA {
		add(10, "Contains healthy MUFA fats (%sg)", num(v))
	}
	if v, ok := get(f.PolyunsaturatedFat); ok && v > c.th.HealthyPUFA {
		add(10, "Contains omega fatty acids (%sg PUFA)", num(v))
	}
	if v, ok := get(f.TransFat); ok && v == 0 {
		add(15, "Zero trans fat - no hydrogenated oils")
	}
	return t
}

func (c *Classifier) negatives(f Facts) tally {
	var t tally
	add := func(points int, w Warning, format string, args ...interface{}) {
		w.Message = fmt.Sprintf(format, args...)
		t.items = append(t.items, w.Message)
		t.warnings = append(t.warnings, w)
		t.score += points
	}
	if v, ok := get(f.TransFat); ok && v > c.th.AnyTransFat {
		t.critical++
		add(40, Warning{Code: "TRANS_FAT", Severity: WarningHigh, Metric: "trans_fat", Value: v, Limit: c.th.AnyTransFat},
			"CRITICAL: Contains trans fat (%sg) - increases heart disease risk", num(v))
	}
	if v, ok := get(f.AddedSugars); ok && v > c.th.HighAddedSugar {
		add(25, Warning{Code: "HIGH_ADDED_SUGAR", Severity: WarningCaution, Metric: "added_sugars", Value: v, Limit: c.th.HighAddedSugar},
			"High added sugar (%sg) - linked to obesity and diabetes", num(v))
	} else if v, ok := get(f.TotalSugars); ok && v > c.th.HighTotalSugar {
		add(15, Warning{Code: "HIGH_TOTAL_SUGAR", Severity: WarningInfo, Metric: "total_sugars", Value: v, Limit: c.th.HighTotalSugar},
			"High total sugar (%sg) - monitor intake", num(v))
	}
	if v, ok := get(f.SaturatedFat); ok && v > c.th.HighSaturatedFat {
		add(20, Warning{Code: "HIGH_SATURATED_FAT", Severity: WarningCaution, Metric: "saturated_fat", Value: v, Limit: c.th.HighSaturatedFat},
			"High saturated fat (%sg) - raises LDL cholesterol", num(v))
	}
	if v, ok := get(f.Sodium); ok && v > c.th.HighSodium {
		add(20, Warning{Code: "HIGH_SODIUM", Severity: WarningCaution, Metric: "sodium", Value: v, Limit: c.th.HighSodium},
			"High sodium (%smg) - may increase blood pressure", num(v))
	}
	if v, ok := get(f.Calories); ok && v > c.th.HighCalories {
		add(15, Warning{Code: "HIGH_CALORIES", Severity: WarningInfo, Metric: "calories", Value: v, Limit: c.th.HighCalories},
			"High calorie density (%s kcal) - portion control advised", num(v))
	}
	if v, ok := get(f.TotalFat); ok && v > c.th.HighTotalFat {
		add(10, Warning{Code: "HIGH_TOTAL_FAT", Severity: WarningInfo, Metric: "total_fat", Value: v, Limit: c.th.HighTotalFat},
			"High total fat (%sg) - calorie-dense", num(v))
	}
	if v, ok := get(f.Cholesterol); ok && v > c.th.HighCholesterol {
		add(10, Warning{Code: "HIGH_CHOLESTEROL", Severity: WarningInfo, Metric: "cholesterol", Value: v, Limit: c.th.HighCholesterol},
			"High cholesterol (%smg) - limit if you have heart issues", num(v))
	}
	return t
}

// confidence 依六個關鍵欄位的完整度
func confidence(f Facts) knowledge.Confidence {
	present := 0
	for _, v := range []*float64{f.Calories, f.Protein, f.TotalFat, f.Sodium, f.TotalSugars, f.SaturatedFat} {
		if v != nil {
			present++
		}
	}
	switch {
	case present >= 5:
		return knowledge.ConfidenceHigh
	case present >= 3:
		return knowledge.ConfidenceMedium
	}
	return knowledge.ConfidenceLow
}

func evaluated(f Facts) []string {
	names := []string{
		"calories", "protein", "total_fat", "saturated_fat", "trans_fat",
		"monounsaturated_fat", "polyunsaturated_fat", "cholesterol", "sodium",
		"total_carbohydrates", "dietary_fiber", "total_sugars", "added_sugars",
	}
	out := []string{}
	for i, v := range f.values() {
		if v != nil {
			out = append(out, names[i])
		}
	}
	return out
}

func summary(class Classification, positives, negatives []string, f Facts) string {
	var b strings.Builder
	switch class {
	case Good:
		b.WriteString("This product has a favorable nutritional profile.")
	case Moderate:
		b.WriteString("This product has mixed nutritional qualities.")
	default:
		b.WriteString("This product has concerning nutritional issues.")
	}
	if len(negatives) > 0 {
		top := strings.TrimPrefix(negatives[0], "CRITICAL: ")
		fmt.Fprintf(&b, " Main concern: %s.", strings.SplitN(top, " - ", 2)[0])
	}
	if len(positives) > 0 {
		fmt.Fprintf(&b, " Notable benefit: %s.", strings.SplitN(positives[0], " - ", 2)[0])
	}
	if v, ok := get(f.ServingsPerPack); ok && v > 1 {
		fmt.Fprintf(&b, " Package contains %s servings - watch portion sizes.", num(v))
	}
	return b.String()
}

// Insufficient 沒有可用數值時的低信心結果
func Insufficient(reason string) Result {
	if reason == "" {
		reason = "Insufficient data to analyze"
	}
	return Result{
		Classification:         Moderate,
		Score:                  50,
		Confidence:             knowledge.ConfidenceLow,
		KeyPositives:           []string{},
		KeyNegatives:           []string{reason},
		Warnings:               []Warning{},
		HealthSummary:          "Unable to analyze nutrition facts. Please make sure the image shows the complete nutrition table.",
		RecommendedConsumption: recommendations[Moderate],
		ThresholdsUsed:         ThresholdSource,
		MetricsEvaluated:       []string{},
	}
}

func get(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func clamp(v, lo, hi int) int {
	return min(hi, max(lo, v))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
