package compare

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"foodsense/internal/core/analysis"
	"foodsense/internal/core/deception"
	"foodsense/internal/core/knowledge"
	"foodsense/internal/core/reasoning"
	"foodsense/internal/pkg/common"
)

// fakeAnalyzer 依產品名稱回傳預先設定的結果
type fakeAnalyzer struct {
	mu      sync.Mutex
	results map[string]*analysis.Result
	Calls   []analysis.Request
	err     error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req analysis.Request) (*analysis.Result, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.results[req.ProductName], nil
}

func result(level reasoning.SignalLevel, conf knowledge.Confidence, alerts ...knowledge.Severity) *analysis.Result {
	res := &analysis.Result{}
	res.HealthSignal = reasoning.HealthSignal{Level: level, Confidence: conf}
	for _, sev := range alerts {
		res.DeceptionAlerts = append(res.DeceptionAlerts, deception.Alert{Severity: sev, SurpriseScore: 40})
		res.OverallSurpriseScore = 40
	}
	return res
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		res  *analysis.Result
		want float64
	}{
		{"safe high", result(reasoning.LikelySafe, knowledge.ConfidenceHigh), 6},
		{"risk low", result(reasoning.PotentialRisk, knowledge.ConfidenceLow), 2},
		{"penalties", result(reasoning.ModerateConcern, knowledge.ConfidenceMedium, knowledge.SeverityHigh, knowledge.SeverityMedium, knowledge.SeverityLow), 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.res); got != tt.want {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompareRanksProducts(t *testing.T) {
	fake := &fakeAnalyzer{results: map[string]*analysis.Result{
		"Soda":  result(reasoning.PotentialRisk, knowledge.ConfidenceHigh, knowledge.SeverityHigh),
		"Water": result(reasoning.LikelySafe, knowledge.ConfidenceHigh),
		"Juice": result(reasoning.ModerateConcern, knowledge.ConfidenceMedium),
	}}
	cmp, err := Compare(context.Background(), fake, Request{Products: []Product{
		{ProductName: "Soda", Ingredients: []string{"sugar"}},
		{ProductName: "Water", Ingredients: []string{"water"}},
		{ProductName: "Juice", Ingredients: []string{"apple"}},
	}})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	var order []string
	for i, e := range cmp.Products {
		order = append(order, e.ProductName)
		if e.Rank != i+1 {
			t.Errorf("%s rank = %d", e.ProductName, e.Rank)
		}
	}
	if strings.Join(order, ",") != "Water,Juice,Soda" {
		t.Errorf("order = %v", order)
	}
	if cmp.WinnerIndex != 1 {
		t.Errorf("winner index = %d", cmp.WinnerIndex)
	}
	if cmp.KeyDifferences[0].Category != "Overall Safety" || cmp.KeyDifferences[0].Winner != 1 {
		t.Errorf("differences = %+v", cmp.KeyDifferences)
	}
	if len(cmp.KeyDifferences) > MaxDifferences {
		t.Errorf("got %d differences", len(cmp.KeyDifferences))
	}
	if !strings.HasPrefix(cmp.Recommendation, "Water is your best choice") {
		t.Errorf("recommendation = %q", cmp.Recommendation)
	}
	for _, call := range fake.Calls {
		if call.IncludeELI5 {
			t.Error("comparison must not request ELI5")
		}
	}
}

func TestCompareTiesKeepInputOrder(t *testing.T) {
	fake := &fakeAnalyzer{results: map[string]*analysis.Result{
		"B": result(reasoning.ModerateConcern, knowledge.ConfidenceMedium),
		"A": result(reasoning.ModerateConcern, knowledge.ConfidenceMedium),
	}}
	cmp, err := Compare(context.Background(), fake, Request{Products: []Product{
		{ProductName: "B", Ingredients: []string{"x"}},
		{ProductName: "A", Ingredients: []string{"y"}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if cmp.WinnerIndex != 0 || cmp.Products[0].ProductName != "B" {
		t.Errorf("winner = %+v", cmp.Products[0])
	}
	if len(cmp.KeyDifferences) != 0 {
		t.Errorf("identical products should have no differences, got %+v", cmp.KeyDifferences)
	}
	if !strings.Contains(cmp.Recommendation, "moderation") {
		t.Errorf("recommendation = %q", cmp.Recommendation)
	}
}

func TestCompareValidation(t *testing.T) {
	fake := &fakeAnalyzer{}
	for _, n := range []int{0, 1, 4} {
		products := make([]Product, n)
		if _, err := Compare(context.Background(), fake, Request{Products: products}); !common.IsInputError(err) {
			t.Errorf("%d products: error = %v, want input error", n, err)
		}
	}

	fake.err = common.NewInputError("ingredients", "at least one ingredient is required")
	_, err := Compare(context.Background(), fake, Request{Products: make([]Product, 2)})
	if !common.IsInputError(err) || !strings.Contains(err.Error(), "product") {
		t.Errorf("error = %v", err)
	}

	fake.err = errors.New("boom")
	if _, err := Compare(context.Background(), fake, Request{Products: make([]Product, 2)}); err == nil {
		t.Error("expected analyzer error to propagate")
	}
}

func TestCompareWithPipeline(t *testing.T) {
	svc := analysis.NewService(knowledge.MustDefault(), nil, analysis.DefaultConfig())
	cmp, err := Compare(context.Background(), svc, Request{Products: []Product{
		{ProductName: "Candy Bar", Ingredients: []string{"sugar", "corn syrup", "dextrose", "fructose", "maltodextrin", "palm oil", "red 40"}},
		{ProductName: "", Ingredients: []string{"oats", "almonds", "honey"}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if cmp.WinnerIndex != 1 || cmp.Products[0].ProductName != "Product 2" {
		t.Errorf("winner = %+v", cmp.Products[0])
	}
	if cmp.Products[1].AlertCount == 0 {
		t.Errorf("candy bar should carry deception alerts: %+v", cmp.Products[1])
	}
}
