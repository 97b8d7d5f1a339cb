// Package normalizer resolves raw label strings to canonical knowledge keys.
package normalizer

import (
	"regexp"
	"strings"

	"foodsense/internal/core/knowledge"
)

// MatchKind 說明成分是如何被解析的
type MatchKind string

const (
	MatchExact     MatchKind = "exact"
	MatchAlias     MatchKind = "alias"
	MatchContains  MatchKind = "contains"
	MatchUnmatched MatchKind = "unmatched"
)

// Ingredient 正規化後的成分；未匹配的成分仍保留供欺瞞偵測使用
type Ingredient struct {
	Raw      string    `json:"raw"`
	Clean    string    `json:"clean"`
	Position int       `json:"position"`
	Key      string    `json:"key,omitempty"`
	Match    MatchKind `json:"match"`
	Via      string    `json:"via,omitempty"`
}

// Matched 是否解析到知識條目
func (i Ingredient) Matched() bool { return i.Key != "" }

type candidate struct {
	text string
	key  string
}

// Normalizer 由知識庫建立的唯讀索引
type Normalizer struct {
	exact      map[string]string
	aliases    map[string]string
	candidates []candidate
}

// New 建立索引：標準名稱、記錄別名，以及帶 canonical 的群組別名
func New(base *knowledge.Base) *Normalizer {
	n := &Normalizer{
		exact:   make(map[string]string),
		aliases: make(map[string]string),
	}
	for _, key := range base.Keys() {
		rec, _ := base.Lookup(key)
		ck := Clean(key)
		n.exact[ck] = key
		n.candidates = append(n.candidates, candidate{text: ck, key: key})
		for _, a := range rec.Aliases {
			n.addAlias(Clean(a), key)
		}
	}
	for _, g := range base.Groups() {
		for _, a := range g.Aliases {
			if a.Canonical != "" {
				n.addAlias(Clean(a.Name), a.Canonical)
			}
		}
	}
	return n
}

func (n *Normalizer) addAlias(text, key string) {
	if text == "" {
		return
	}
	if _, isName := n.exact[text]; isName {
		return
	}
	if _, seen := n.aliases[text]; seen {
		return
	}
	n.aliases[text] = key
	n.candidates = append(n.candidates, candidate{text: text, key: key})
}

// Normalize 解析單一成分字串
func (n *Normalizer) Normalize(raw string) Ingredient {
	clean := Clean(raw)
	ing := Ingredient{Raw: raw, Clean: clean, Match: MatchUnmatched}
	if clean == "" {
		return ing
	}

	if key, ok := n.exact[clean]; ok {
		ing.Key, ing.Match, ing.Via = key, MatchExact, clean
		return ing
	}
	if key, ok := n.aliases[clean]; ok {
		ing.Key, ing.Match, ing.Via = key, MatchAlias, clean
		return ing
	}

	// 包含比對：只接受輸入包含候選名稱，不反向推論成更具體的條目
	// （"wheat flour" 不是 "whole wheat flour"）；"sugar free" 這類否定片語不算
	// 取最長的匹配，平手時取先宣告者
	best, bestLen := -1, 0
	for i, c := range n.candidates {
		if !ContainsPhrase(clean, c.text) || ContainsPhrase(clean, c.text+" free") {
			continue
		}
		if l := len(c.text); l > bestLen {
			best, bestLen = i, l
		}
	}
	if best >= 0 {
		ing.Key, ing.Match, ing.Via = n.candidates[best].key, MatchContains, n.candidates[best].text
	}
	return ing
}

// NormalizeAll 依輸入順序解析所有成分，Position 從 0 起算
func (n *Normalizer) NormalizeAll(raws []string) []Ingredient {
	out := make([]Ingredient, 0, len(raws))
	for i, raw := range raws {
		ing := n.Normalize(raw)
		ing.Position = i
		out = append(out, ing)
	}
	return out
}

var (
	fdcPattern     = regexp.MustCompile(`fd\s*(&|and)\s*c`)
	numberPattern  = regexp.MustCompile(`(^|[\s(])(?:no\.?|#)\s*(\d)`)
	nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	letterDigit    = regexp.MustCompile(`(\p{L})(\p{N})`)
	digitLetter    = regexp.MustCompile(`(\p{N})(\p{L})`)
	labelPrefix    = regexp.MustCompile(`(?i)^\s*(contains\s+)?ingredients?\s*[:\-]\s*`)
	trailingPunct  = regexp.MustCompile(`[.\s]+$`)

	ingredientsHeader = regexp.MustCompile(`(?i)\b(?:contains\s+)?ingredients?\s*[:\-]`)
	sectionEnd        = regexp.MustCompile(`(?i)\n\s*(?:nutrition|allergen|contains\b|may contain|net\s*w|best before|storage|manufactured|serving size)`)
)

// Clean 轉小寫、移除標點並統一空白；"FD&C Red No. 40"、"red40" 皆得到 "red 40"
func Clean(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = fdcPattern.ReplaceAllString(s, " ")
	s = numberPattern.ReplaceAllString(s, "$1$2")
	s = nonWordPattern.ReplaceAllString(s, " ")
	s = letterDigit.ReplaceAllString(s, "$1 $2")
	s = digitLetter.ReplaceAllString(s, "$1 $2")
	return strings.Join(strings.Fields(s), " ")
}

// ContainsPhrase 以詞為邊界判斷 needle 是否出現在 haystack（兩者皆須先經 Clean）
func ContainsPhrase(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}

// SplitLabel 將整段成分標示拆成列表，括號內的逗號不拆
func SplitLabel(text string) []string {
	text = labelPrefix.ReplaceAllString(text, "")

	var parts []string
	var cur strings.Builder
	depth := 0
	flush := func() {
		p := trailingPunct.ReplaceAllString(strings.TrimSpace(cur.String()), "")
		if p != "" {
			parts = append(parts, p)
		}
		cur.Reset()
	}
	for _, r := range text {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case ',', ';', '\n':
			if depth == 0 {
				flush()
				continue
			}
		}
		cur.WriteRune(r)
	}
	flush()
	return parts
}

// IngredientSection 從整張標籤的文字取出成分段落並合併換行；找不到標題時回傳整段文字
func IngredientSection(text string) string {
	if loc := ingredientsHeader.FindStringIndex(text); loc != nil {
		text = text[loc[1]:]
		if end := sectionEnd.FindStringIndex(text); end != nil {
			text = text[:end[0]]
		}
	}
	return strings.Join(strings.Fields(text), " ")
}

// NeedsSplit 單一字串內含分隔符時才需要拆分
func NeedsSplit(ingredients []string) bool {
	return len(ingredients) == 1 && strings.ContainsAny(ingredients[0], ",;\n")
}

// GroupMatches 回傳群組中出現的不同別名，依輸入中首次出現的順序；
// 每個成分只貢獻其最長的匹配別名
func GroupMatches(ings []Ingredient, g knowledge.AliasGroup) []string {
	seen := map[string]bool{}
	var out []string
	for _, ing := range ings {
		best := ""
		for _, a := range g.Aliases {
			name := Clean(a.Name)
			if len(name) > len(best) && ContainsPhrase(ing.Clean, name) {
				best = name
			}
		}
		if best != "" && !seen[best] {
			seen[best] = true
			out = append(out, best)
		}
	}
	return out
}
