package explain

import (
	"context"
	"strings"
	"testing"

	"foodsense/internal/core/intent"
	"foodsense/internal/core/knowledge"
	"foodsense/internal/core/normalizer"
	"foodsense/internal/core/reasoning"
)

type mockGenerator struct {
	enabled bool
	reply   string
	Calls   []string
}

func (m *mockGenerator) Enabled() bool { return m.enabled }

func (m *mockGenerator) GenerateText(_ context.Context, prompt string, _ int) string {
	m.Calls = append(m.Calls, prompt)
	return m.reply
}

func pipeline(t *testing.T, product string, ingredients ...string) (intent.Result, reasoning.Result) {
	t.Helper()
	base := knowledge.MustDefault()
	ings := normalizer.New(base).NormalizeAll(ingredients)
	in := intent.NewEngine(base, intent.DefaultConfig()).Infer(ings, product, nil)
	return in, reasoning.NewEngine(base, reasoning.DefaultConfig()).Analyze(ings, in)
}

func TestSummary(t *testing.T) {
	got := Summary(reasoning.LikelySafe, "This appears to be a beverage.")
	want := "This appears to be a beverage. This product appears relatively safe for moderate consumption."
	if got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}
}

func TestExplainWithoutProvider(t *testing.T) {
	in, r := pipeline(t, "", "sugar", "corn syrup", "salt", "red 40")
	out := New(nil, DefaultConfig()).Explain(context.Background(), in, r, true, "en")

	if len(out.DetailedInsights) != len(r.Insights) {
		t.Errorf("detailed lines = %d, want %d", len(out.DetailedInsights), len(r.Insights))
	}
	if out.ELI5 == "" || out.ELI5Source != SourceFallback {
		t.Errorf("ELI5 = %q (%s), want fallback text", out.ELI5, out.ELI5Source)
	}
	if len(out.FollowUps) == 0 || len(out.FollowUps) > 4 {
		t.Errorf("follow-ups = %d, want 1..4", len(out.FollowUps))
	}
}

func TestELI5UsesProviderOutputVerbatim(t *testing.T) {
	gen := &mockGenerator{enabled: true, reply: "  Sugar gives quick energy. Too much is not good.  "}
	g := New(gen, DefaultConfig())

	text, src := g.ELI5(context.Background(), "Sugar is linked to metabolic issues.", "hi")
	if src != SourceProvider || text != "Sugar gives quick energy. Too much is not good." {
		t.Errorf("ELI5 = %q (%s)", text, src)
	}
	if len(gen.Calls) != 1 {
		t.Fatalf("expected 1 provider call, got %d", len(gen.Calls))
	}
	if !strings.Contains(gen.Calls[0], "10-year-old") || !strings.Contains(gen.Calls[0], "max 15 words") {
		t.Errorf("prompt missing simplification instruction: %q", gen.Calls[0])
	}
	if !strings.Contains(gen.Calls[0], "Hindi") {
		t.Errorf("prompt missing language instruction: %q", gen.Calls[0])
	}
}

func TestELI5FallsBack(t *testing.T) {
	standard := "Sugar is linked to metabolic issues. Cardiovascular health suffers with excessive consumption."
	tests := []struct {
		name string
		gen  *mockGenerator
	}{
		{"disabled", &mockGenerator{enabled: false, reply: "ignored"}},
		{"empty reply", &mockGenerator{enabled: true, reply: "   "}},
		{"too long", &mockGenerator{enabled: true, reply: strings.Repeat("word ", 400)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, src := New(tt.gen, DefaultConfig()).ELI5(context.Background(), standard, "en")
			if src != SourceFallback {
				t.Fatalf("source = %s, want fallback", src)
			}
			if !strings.Contains(text, "how your body uses energy") || !strings.Contains(text, "eating") {
				t.Errorf("glossary not applied: %q", text)
			}
			if strings.Contains(strings.ToLower(text), "metabolic") {
				t.Errorf("jargon left in fallback: %q", text)
			}
		})
	}
}

func TestSimplifyTruncatesSentences(t *testing.T) {
	long := "one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen seventeen. Short one."
	got := Simplify(long, 15)
	for _, s := range sentencePattern.FindAllString(got, -1) {
		if n := len(strings.Fields(s)); n > 15 {
			t.Errorf("sentence has %d words: %q", n, s)
		}
	}
	if !strings.HasPrefix(got, "One two") {
		t.Errorf("first letter should be capitalised: %q", got)
	}
}

func TestSimplifyNeverEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n", "..."} {
		if got := Simplify(in, 15); strings.TrimSpace(got) == "" {
			t.Errorf("Simplify(%q) returned empty text", in)
		}
	}
}

func TestFollowUpsForChildMarketedProduct(t *testing.T) {
	in, r := pipeline(t, "Kids Fruit Snacks",
		"corn syrup", "sugar", "gelatin", "citric acid", "red 40", "yellow 5", "blue 1", "natural flavors")
	got := FollowUps(r.Insights, in, 4)
	if len(got) > 4 {
		t.Fatalf("got %d follow-ups, want <= 4", len(got))
	}
	if len(got) == 0 || got[0].Question != "Is this safe for kids?" {
		t.Errorf("first follow-up = %+v, want the kids question", got)
	}
}

func TestFollowUpsRespectLimit(t *testing.T) {
	in, r := pipeline(t, "Diet Protein Cola", "sugar", "palm oil", "whey protein", "bht", "salt", "red 40")
	for _, limit := range []int{1, 2, 4} {
		if got := FollowUps(r.Insights, in, limit); len(got) > limit {
			t.Errorf("limit %d: got %d", limit, len(got))
		}
	}
}

func TestLanguageInstruction(t *testing.T) {
	if LanguageInstruction("en") != "" {
		t.Error("english needs no instruction")
	}
	if LanguageInstruction("xx") != "" {
		t.Error("unknown language needs no instruction")
	}
	if !strings.Contains(LanguageInstruction("ta"), "Tamil") {
		t.Errorf("instruction = %q", LanguageInstruction("ta"))
	}
	if NormalizeLanguage("") != "en" || NormalizeLanguage("bn") != "bn" {
		t.Error("NormalizeLanguage mismatch")
	}
}
