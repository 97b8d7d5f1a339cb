package normalizer

import (
	"reflect"
	"testing"

	"foodsense/internal/core/knowledge"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	base, err := knowledge.Default()
	if err != nil {
		t.Fatalf("knowledge.Default() error = %v", err)
	}
	return New(base)
}

func TestClean(t *testing.T) {
	tests := map[string]string{
		"  Sugar ":                  "sugar",
		"FD&C Red No. 40":           "red 40",
		"red40":                     "red 40",
		"Red #40":                   "red 40",
		"Yellow 5 Lake":             "yellow 5 lake",
		"High-Fructose Corn Syrup.": "high fructose corn syrup",
		"E211":                      "e 211",
		"salt (sodium chloride)":    "salt sodium chloride",
		"":                          "",
	}
	for in, want := range tests {
		if got := Clean(in); got != want {
			t.Errorf("Clean(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	n := newTestNormalizer(t)
	tests := []struct {
		raw   string
		key   string
		match MatchKind
	}{
		{"Sugar", "sugar", MatchExact},
		{"sucrose", "sugar", MatchAlias},
		{"HFCS", "high fructose corn syrup", MatchAlias},
		{"corn syrup", "high fructose corn syrup", MatchAlias},
		{"MSG", "monosodium glutamate", MatchAlias},
		{"FD&C Red No. 40", "red 40", MatchExact},
		{"Allura Red AC", "red 40", MatchContains},
		{"wheat flour", "", MatchUnmatched},
		{"stone ground whole wheat flour", "whole wheat flour", MatchContains},
		{"partially hydrogenated soybean oil", "partially hydrogenated oil", MatchContains},
		{"organic cane sugar", "sugar", MatchContains},
		{"water", "", MatchUnmatched},
		{"basalt", "", MatchUnmatched},
		{"   ", "", MatchUnmatched},
	}
	for _, tt := range tests {
		got := n.Normalize(tt.raw)
		if got.Key != tt.key || got.Match != tt.match {
			t.Errorf("Normalize(%q) = (%q, %s), want (%q, %s)", tt.raw, got.Key, got.Match, tt.key, tt.match)
		}
	}
}

func TestNormalizePrefersLongestMatch(t *testing.T) {
	n := newTestNormalizer(t)
	// "high fructose corn syrup" 同時包含 "corn syrup"、"fructose"，應取最長者
	got := n.Normalize("organic high fructose corn syrup")
	if got.Key != "high fructose corn syrup" || got.Via != "high fructose corn syrup" {
		t.Errorf("got key %q via %q", got.Key, got.Via)
	}
}

func TestNormalizeDoesNotWidenToSpecificRecord(t *testing.T) {
	n := newTestNormalizer(t)
	// 較短的名稱不得被解析成包含它的更具體條目
	tests := []string{"wheat flour", "flour", "chocolate", "corn", "oil"}
	for _, raw := range tests {
		if got := n.Normalize(raw); got.Matched() {
			t.Errorf("Normalize(%q) = %q via %q, want unmatched", raw, got.Key, got.Via)
		}
	}
}

func TestNormalizeSkipsFreeFromPhrases(t *testing.T) {
	n := newTestNormalizer(t)
	if got := n.Normalize("sugar free sweetener"); got.Key == "sugar" {
		t.Errorf("\"sugar free\" must not resolve to sugar, got via %q", got.Via)
	}
	if got := n.Normalize("gluten free oats"); got.Key != "oats" {
		t.Errorf("gluten free oats = %q, want oats", got.Key)
	}
}

func TestNormalizeAllKeepsUnmatched(t *testing.T) {
	n := newTestNormalizer(t)
	out := n.NormalizeAll([]string{"water", "salt", "gelatin"})
	if len(out) != 3 {
		t.Fatalf("expected 3 ingredients, got %d", len(out))
	}
	for i, ing := range out {
		if ing.Position != i {
			t.Errorf("position %d = %d", i, ing.Position)
		}
	}
	if out[0].Matched() || !out[1].Matched() || out[2].Matched() {
		t.Errorf("unexpected match flags: %+v", out)
	}
}

func TestSplitLabel(t *testing.T) {
	got := SplitLabel("Ingredients: Enriched flour (wheat flour, niacin, iron), sugar; salt, yellow 5.")
	want := []string{"Enriched flour (wheat flour, niacin, iron)", "sugar", "salt", "yellow 5"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitLabel() = %#v, want %#v", got, want)
	}
	if len(SplitLabel(" , ;")) != 0 {
		t.Error("expected no parts from separators only")
	}
}

func TestIngredientSection(t *testing.T) {
	label := "ACME Crunch\nIngredients: sugar, corn\nsyrup, salt.\nNutrition Facts\nCalories 120"
	if got := IngredientSection(label); got != "sugar, corn syrup, salt." {
		t.Errorf("IngredientSection() = %q", got)
	}
	if got := IngredientSection("oats,\n honey"); got != "oats, honey" {
		t.Errorf("text without a header should be kept, got %q", got)
	}
}

func TestNeedsSplit(t *testing.T) {
	if !NeedsSplit([]string{"sugar, salt"}) {
		t.Error("single comma-separated string should be split")
	}
	if NeedsSplit([]string{"sugar", "salt, iodized"}) {
		t.Error("multi-element lists are left as given")
	}
}
