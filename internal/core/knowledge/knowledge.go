// Package knowledge holds the static ingredient knowledge table and the
// deception alias groups. Both are embedded YAML, parsed once and never
// mutated afterwards, so a *Base is safe for any number of concurrent readers.
package knowledge

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Confidence 研究可信度
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Rank 回傳可比較的等級（high=3, medium=2, low=1）
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}

// Valid 檢查是否為已知的可信度標籤
func (c Confidence) Valid() bool { return c.Rank() > 0 }

// Severity 警示嚴重度
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank 回傳可比較的等級（high=3, medium=2, low=1）
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// IngredientRecord 成分知識條目
type IngredientRecord struct {
	Key                string     `yaml:"key" json:"key"`
	Name               string     `yaml:"name" json:"name"`
	Category           string     `yaml:"category" json:"category"`
	HealthImpact       string     `yaml:"health_impact" json:"health_impact"`
	ResearchConfidence Confidence `yaml:"research_confidence" json:"research_confidence"`
	Concerns           []string   `yaml:"concerns" json:"concerns"`
	Benefits           []string   `yaml:"benefits" json:"benefits"`
	SafeLimit          string     `yaml:"safe_limit" json:"safe_limit"`
	CommonIn           []string   `yaml:"common_in" json:"common_in"`
	Aliases            []string   `yaml:"aliases" json:"aliases,omitempty"`
	Severe             bool       `yaml:"severe" json:"severe,omitempty"`
}

// Alias 別名群組成員；Canonical 非空時也可解析為知識條目
type Alias struct {
	Name      string `yaml:"name"`
	Canonical string `yaml:"canonical"`
}

// SeverityBand 數量門檻對應的嚴重度
type SeverityBand struct {
	MinCount int      `yaml:"min_count"`
	Severity Severity `yaml:"severity"`
}

// AliasGroup 同一類化合物的多個標示名稱
type AliasGroup struct {
	Category         string         `yaml:"category"`
	Title            string         `yaml:"title"`
	Explanation      string         `yaml:"explanation"`
	CumulativeImpact string         `yaml:"cumulative_impact"`
	ImpactPerAlias   int            `yaml:"impact_per_alias"`
	Threshold        int            `yaml:"threshold"`
	ScoreBase        int            `yaml:"score_base"`
	ScoreStep        int            `yaml:"score_step"`
	Bands            []SeverityBand `yaml:"bands"`
	Override         bool           `yaml:"override"`
	OverrideSeverity Severity       `yaml:"override_severity"`
	OverrideScore    int            `yaml:"override_score"`
	Aliases          []Alias        `yaml:"aliases"`
}

// SeverityFor 依數量回傳嚴重度；未達門檻回傳空字串
func (g AliasGroup) SeverityFor(count int) Severity {
	if g.Override {
		if count > 0 {
			return g.OverrideSeverity
		}
		return ""
	}
	var sev Severity
	for _, b := range g.Bands {
		if count >= b.MinCount {
			sev = b.Severity
		}
	}
	return sev
}

// DemoProduct 示範產品
type DemoProduct struct {
	ID          int      `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Category    string   `yaml:"category" json:"category"`
	Ingredients []string `yaml:"ingredients" json:"ingredients"`
}

// Base 已載入的知識庫
type Base struct {
	records map[string]IngredientRecord
	order   []string
	groups  []AliasGroup
	demos   []DemoProduct
}

var (
	defaultOnce sync.Once
	defaultBase *Base
	defaultErr  error
)

// Default 回傳內嵌資料的知識庫，整個程序只解析一次
func Default() (*Base, error) {
	defaultOnce.Do(func() {
		defaultBase, defaultErr = Load()
	})
	return defaultBase, defaultErr
}

// MustDefault 同 Default，失敗時 panic（內嵌資料錯誤屬於建置錯誤）
func MustDefault() *Base {
	b, err := Default()
	if err != nil {
		panic(err)
	}
	return b
}

// Load 解析內嵌的 YAML 資料
func Load() (*Base, error) {
	var ing struct {
		Ingredients []IngredientRecord `yaml:"ingredients"`
	}
	var grp struct {
		Groups []AliasGroup `yaml:"groups"`
	}
	var demo struct {
		Products []DemoProduct `yaml:"products"`
	}
	if err := readYAML("data/ingredients.yaml", &ing); err != nil {
		return nil, err
	}
	if err := readYAML("data/alias_groups.yaml", &grp); err != nil {
		return nil, err
	}
	if err := readYAML("data/demo_products.yaml", &demo); err != nil {
		return nil, err
	}
	return New(ing.Ingredients, grp.Groups, demo.Products)
}

func readYAML(path string, v interface{}) error {
	raw, err := dataFS.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// New 由記錄與群組建立知識庫並驗證一致性
func New(records []IngredientRecord, groups []AliasGroup, demos []DemoProduct) (*Base, error) {
	b := &Base{
		records: make(map[string]IngredientRecord, len(records)),
		groups:  groups,
		demos:   demos,
	}
	for _, r := range records {
		r.Key = strings.ToLower(strings.TrimSpace(r.Key))
		if r.Key == "" || r.Name == "" {
			return nil, fmt.Errorf("ingredient record missing key or name: %+v", r)
		}
		if _, dup := b.records[r.Key]; dup {
			return nil, fmt.Errorf("duplicate ingredient key %q", r.Key)
		}
		if !r.ResearchConfidence.Valid() {
			return nil, fmt.Errorf("ingredient %q: invalid research_confidence %q", r.Key, r.ResearchConfidence)
		}
		b.records[r.Key] = r
		b.order = append(b.order, r.Key)
	}

	canonicalOf := map[string]string{}
	for i, g := range groups {
		if g.Category == "" || len(g.Aliases) == 0 {
			return nil, fmt.Errorf("alias group %d missing category or aliases", i)
		}
		if err := validateGroup(g); err != nil {
			return nil, fmt.Errorf("alias group %q: %w", g.Category, err)
		}
		for _, a := range g.Aliases {
			if a.Canonical == "" {
				continue
			}
			if _, ok := b.records[a.Canonical]; !ok {
				return nil, fmt.Errorf("alias group %q: alias %q points to unknown record %q", g.Category, a.Name, a.Canonical)
			}
			if prev, seen := canonicalOf[a.Name]; seen && prev != a.Canonical {
				return nil, fmt.Errorf("alias %q resolves to both %q and %q", a.Name, prev, a.Canonical)
			}
			canonicalOf[a.Name] = a.Canonical
		}
	}
	return b, nil
}

// validateGroup 嚴重度必須隨數量單調不減
func validateGroup(g AliasGroup) error {
	if g.Override {
		if g.OverrideSeverity.Rank() == 0 {
			return fmt.Errorf("override group needs override_severity")
		}
		if g.OverrideScore < 0 || g.OverrideScore > 100 {
			return fmt.Errorf("override_score %d out of [0,100]", g.OverrideScore)
		}
		return nil
	}
	if g.Threshold < 1 {
		return fmt.Errorf("threshold must be >= 1")
	}
	if len(g.Bands) == 0 || g.Bands[0].MinCount != g.Threshold {
		return fmt.Errorf("first band must start at the threshold")
	}
	if g.ScoreStep < 0 || g.ScoreBase < 0 {
		return fmt.Errorf("score base and step must be non-negative")
	}
	ok := sort.SliceIsSorted(g.Bands, func(i, j int) bool { return g.Bands[i].MinCount < g.Bands[j].MinCount })
	if !ok {
		return fmt.Errorf("bands must be ascending by min_count")
	}
	for i, band := range g.Bands {
		if band.Severity.Rank() == 0 {
			return fmt.Errorf("band %d has unknown severity %q", i, band.Severity)
		}
		if i > 0 && band.Severity.Rank() < g.Bands[i-1].Severity.Rank() {
			return fmt.Errorf("band %d lowers severity", i)
		}
	}
	return nil
}

// Lookup 以標準鍵查詢知識條目
func (b *Base) Lookup(key string) (IngredientRecord, bool) {
	r, ok := b.records[key]
	return r, ok
}

// Keys 依宣告順序回傳所有標準鍵
func (b *Base) Keys() []string {
	return append([]string(nil), b.order...)
}

// Groups 依宣告順序回傳別名群組
func (b *Base) Groups() []AliasGroup {
	return b.groups
}

// DemoProducts 回傳示範產品
func (b *Base) DemoProducts() []DemoProduct {
	return b.demos
}
