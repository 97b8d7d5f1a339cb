// Package compare ranks two or three products by running each through the
// analysis pipeline concurrently and scoring the outcomes.
package compare

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"foodsense/internal/core/analysis"
	"foodsense/internal/core/knowledge"
	"foodsense/internal/core/reasoning"
	"foodsense/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// 比較數量限制
const (
	MinProducts = 2
	MaxProducts = 3
)

// Analyzer 單一產品分析
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// Product 待比較產品
type Product struct {
	ProductName string   `json:"product_name"`
	Ingredients []string `json:"ingredients"`
}

// Request 比較請求
type Request struct {
	Products        []Product `json:"products"`
	UserPreferences []string  `json:"user_preferences"`
	Language        string    `json:"language"`
}

// Entry 單一產品的比較結果
type Entry struct {
	Index                int                    `json:"index"`
	Rank                 int                    `json:"rank"`
	ProductName          string                 `json:"product_name"`
	Score                float64                `json:"score"`
	HealthSignal         reasoning.HealthSignal `json:"health_signal"`
	OverallSurpriseScore int                    `json:"overall_surprise_score"`
	AlertCount           int                    `json:"alert_count"`
	Concerns             []string               `json:"concerns"`
	Summary              string                 `json:"summary"`
}

// Difference 產品間的關鍵差異
type Difference struct {
	Category     string `json:"category"`
	Winner       int    `json:"winner"`
	Explanation  string `json:"explanation"`
	Significance string `json:"significance"`
}

// Comparison 比較結果；Products 依名次排列
type Comparison struct {
	Products       []Entry      `json:"products"`
	WinnerIndex    int          `json:"winner_index"`
	KeyDifferences []Difference `json:"key_differences"`
	Recommendation string       `json:"recommendation"`
}

var signalScores = map[reasoning.SignalLevel]float64{
	reasoning.LikelySafe:      3,
	reasoning.ModerateConcern: 2,
	reasoning.PotentialRisk:   1,
}

var alertPenalties = map[knowledge.Severity]float64{
	knowledge.SeverityHigh:   1,
	knowledge.SeverityMedium: 0.5,
}

// MaxDifferences 最多列出的差異數
const MaxDifferences = 3

// Compare 並行分析每個產品後排序；ELI5 一律關閉
func Compare(ctx context.Context, a Analyzer, req Request) (*Comparison, error) {
	n := len(req.Products)
	if n < MinProducts || n > MaxProducts {
		return nil, common.NewInputError("products", fmt.Sprintf("compare between %d and %d products", MinProducts, MaxProducts))
	}

	results := make([]*analysis.Result, n)
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range req.Products {
		i, p := i, p
		g.Go(func() error {
			res, err := a.Analyze(gctx, analysis.Request{
				Ingredients:     p.Ingredients,
				ProductName:     p.ProductName,
				UserPreferences: req.UserPreferences,
				Language:        req.Language,
			})
			if err != nil {
				return fmt.Errorf("product %d: %w", i+1, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]Entry, n)
	for i, res := range results {
		entries[i] = entry(i, displayName(req.Products[i].ProductName, i), res)
	}

	ranked := append([]Entry(nil), entries...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	winner := ranked[0]

	common.LogDebug("products compared",
		zap.Int("products", n),
		zap.String("winner", winner.ProductName),
		zap.Float64("score", winner.Score),
	)

	return &Comparison{
		Products:       ranked,
		WinnerIndex:    winner.Index,
		KeyDifferences: differences(entries, winner.Index),
		Recommendation: recommendation(winner),
	}, nil
}

// Score 訊號分數 + 信心分數 - 欺瞞警示扣分
func Score(res *analysis.Result) float64 {
	score := signalScores[res.HealthSignal.Level] + float64(res.HealthSignal.Confidence.Rank())
	for _, a := range res.DeceptionAlerts {
		score -= alertPenalties[a.Severity]
	}
	return score
}

func entry(i int, name string, res *analysis.Result) Entry {
	concerns := []string{}
	for _, in := range res.Insights {
		if in.ConcernLevel == reasoning.ConcernNegative {
			concerns = append(concerns, in.Name)
		}
	}
	return Entry{
		Index:                i,
		ProductName:          name,
		Score:                Score(res),
		HealthSignal:         res.HealthSignal,
		OverallSurpriseScore: res.OverallSurpriseScore,
		AlertCount:           len(res.DeceptionAlerts),
		Concerns:             concerns,
		Summary:              res.Summary,
	}
}

func displayName(name string, i int) string {
	if s := strings.TrimSpace(name); s != "" {
		return s
	}
	return fmt.Sprintf("Product %d", i+1)
}

// differences 依輸入順序比較訊號、疑慮數、隱藏成分與研究可信度
func differences(entries []Entry, winner int) []Difference {
	var out []Difference

	if !allSame(entries, func(e Entry) string { return string(e.HealthSignal.Level) }) {
		out = append(out, Difference{
			Category:     "Overall Safety",
			Winner:       winner,
			Explanation:  entries[winner].ProductName + " has the safest overall ingredient profile",
			Significance: "high",
		})
	}

	if best, ok := lowest(entries, func(e Entry) int { return len(e.Concerns) }); ok {
		out = append(out, Difference{
			Category:     "Ingredient Concerns",
			Winner:       best,
			Explanation:  entries[best].ProductName + " has fewer concerning ingredients",
			Significance: "medium",
		})
	}

	if best, ok := lowest(entries, func(e Entry) int { return e.OverallSurpriseScore }); ok {
		out = append(out, Difference{
			Category:     "Hidden Ingredients",
			Winner:       best,
			Explanation:  entries[best].ProductName + " hides fewer ingredients behind alternative names",
			Significance: "medium",
		})
	}

	if best, ok := lowest(entries, func(e Entry) int { return -e.HealthSignal.Confidence.Rank() }); ok {
		out = append(out, Difference{
			Category:     "Research Quality",
			Winner:       best,
			Explanation:  entries[best].ProductName + " has better-studied ingredients",
			Significance: "low",
		})
	}

	if len(out) > MaxDifferences {
		out = out[:MaxDifferences]
	}
	if out == nil {
		out = []Difference{}
	}
	return out
}

func allSame(entries []Entry, key func(Entry) string) bool {
	for _, e := range entries[1:] {
		if key(e) != key(entries[0]) {
			return false
		}
	}
	return true
}

// lowest 回傳值最小者的索引；所有值相同時回傳 false
func lowest(entries []Entry, value func(Entry) int) (int, bool) {
	best, same := 0, true
	for i, e := range entries[1:] {
		v := value(e)
		if v != value(entries[0]) {
			same = false
		}
		if v < value(entries[best]) {
			best = i + 1
		}
	}
	return best, !same
}

func recommendation(winner Entry) string {
	switch winner.HealthSignal.Level {
	case reasoning.LikelySafe:
		return winner.ProductName + " is your best choice with a safer ingredient profile and fewer health concerns."
	case reasoning.ModerateConcern:
		return winner.ProductName + " is the better option among these, though consider consuming in moderation."
	default:
		return "All options have concerns. " + winner.ProductName + " is relatively better, but consider healthier alternatives if possible."
	}
}
