// Package explain renders reasoning output as readable text: a summary,
// per-insight lines, an optional ELI5 rewrite and follow-up questions.
// The template path needs no model; a configured text generator only
// improves the ELI5 rewrite.
package explain

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"foodsense/internal/core/intent"
	"foodsense/internal/core/reasoning"
)

// TextGenerator 可選的外部文字生成能力；失敗時回傳空字串
type TextGenerator interface {
	Enabled() bool
	GenerateText(ctx context.Context, prompt string, maxTokens int) string
}

// ELI5 來源
const (
	SourceProvider = "provider"
	SourceFallback = "fallback"
)

// Config 說明產生器設定
type Config struct {
	MaxFollowUps     int
	WordsPerSentence int
	ELI5MaxChars     int
	MaxTokens        int
}

// DefaultConfig 預設設定
func DefaultConfig() Config {
	return Config{MaxFollowUps: 4, WordsPerSentence: 15, ELI5MaxChars: 1200, MaxTokens: 400}
}

// Output 說明結果
type Output struct {
	Summary          string     `json:"summary"`
	DetailedInsights []string   `json:"detailed_insights"`
	ELI5             string     `json:"eli5_text,omitempty"`
	ELI5Source       string     `json:"eli5_source,omitempty"`
	FollowUps        []FollowUp `json:"follow_up_questions"`
}

// Generator 說明產生器；gen 可為 nil
type Generator struct {
	gen TextGenerator
	cfg Config
}

// New 建立說明產生器
func New(gen TextGenerator, cfg Config) *Generator {
	if cfg.MaxFollowUps <= 0 {
		cfg.MaxFollowUps = DefaultConfig().MaxFollowUps
	}
	if cfg.WordsPerSentence <= 0 {
		cfg.WordsPerSentence = DefaultConfig().WordsPerSentence
	}
	return &Generator{gen: gen, cfg: cfg}
}

// Explain 產生完整說明
func (g *Generator) Explain(ctx context.Context, in intent.Result, r reasoning.Result, includeELI5 bool, language string) Output {
	out := Output{
		Summary:          Summary(r.HealthSignal.Level, in.ContextSummary),
		DetailedInsights: Detailed(r.Insights),
		FollowUps:        FollowUps(r.Insights, in, g.cfg.MaxFollowUps),
	}
	if includeELI5 {
		out.ELI5, out.ELI5Source = g.ELI5(ctx, StandardText(out.Summary, r), language)
	}
	return out
}

var signalDescriptions = map[reasoning.SignalLevel]string{
	reasoning.LikelySafe:      "appears relatively safe for moderate consumption",
	reasoning.ModerateConcern: "has some ingredients worth being aware of",
	reasoning.PotentialRisk:   "contains ingredients that may warrant caution",
}

// Summary 一句話總結
func Summary(level reasoning.SignalLevel, contextSummary string) string {
	desc, ok := signalDescriptions[level]
	if !ok {
		desc = "has mixed characteristics"
	}
	return strings.TrimSpace(fmt.Sprintf("%s This product %s.", contextSummary, desc))
}

// Detailed 每個洞察一行
func Detailed(insights []reasoning.Insight) []string {
	lines := make([]string, 0, len(insights))
	for _, in := range insights {
		lines = append(lines, fmt.Sprintf("%s %s: %s", in.Icon, in.Title, in.Explanation))
	}
	return lines
}

// StandardText 標準模式全文，也是 ELI5 改寫的輸入
func StandardText(summary string, r reasoning.Result) string {
	var b strings.Builder
	b.WriteString(summary)
	for _, in := range r.Insights {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s: %s", in.Name, in.Explanation)
	}
	if r.UncertaintyNote != "" {
		b.WriteString("\n")
		b.WriteString(r.UncertaintyNote)
	}
	return b.String()
}

// ELI5 優先使用外部模型；無模型、失敗、空白或過長時改用本地詞彙替換
func (g *Generator) ELI5(ctx context.Context, standard, language string) (string, string) {
	if g.gen != nil && g.gen.Enabled() && strings.TrimSpace(standard) != "" {
		text := strings.TrimSpace(g.gen.GenerateText(ctx, eli5Prompt(standard, g.cfg.WordsPerSentence, language), g.cfg.MaxTokens))
		if text != "" && (g.cfg.ELI5MaxChars <= 0 || utf8.RuneCountInString(text) <= g.cfg.ELI5MaxChars) {
			return text, SourceProvider
		}
	}
	return Simplify(standard, g.cfg.WordsPerSentence), SourceFallback
}

func eli5Prompt(standard string, words int, language string) string {
	return fmt.Sprintf(`Simplify the following food analysis for a 10-year-old.

Requirements:
- Use very simple words
- Short sentences, max %d words per sentence
- No scientific terms
- Be honest about good and bad parts
- Limit to 4-5 sentences total

Analysis:
%s%s`, words, standard, LanguageInstruction(language))
}

type glossaryEntry struct {
	re   *regexp.Regexp
	repl string
}

func entry(term, repl string) glossaryEntry {
	return glossaryEntry{re: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`), repl: repl}
}

// glossary 較長的詞條排在前面
var glossary = []glossaryEntry{
	entry("endocrine disruptor", "something that can mess with your hormones"),
	entry("associated with", "connected to"),
	entry("linked to", "connected to"),
	entry("metabolic", "how your body uses energy"),
	entry("metabolized", "used by your body"),
	entry("cardiovascular", "heart and blood vessel"),
	entry("hyperactivity", "being extra restless"),
	entry("endocrine", "hormone"),
	entry("carcinogen", "something that might cause cancer"),
	entry("consumption", "eating"),
	entry("consumed", "eaten"),
	entry("excessively", "too much"),
	entry("excessive", "too much"),
	entry("satiety", "feeling full"),
	entry("palatability", "taste"),
	entry("rancidity", "going bad"),
	entry("oxidation", "going stale"),
	entry("cholesterol", "fat in your blood"),
	entry("moderation", "small amounts"),
}

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]*`)

const fallbackELI5 = "This food has some good parts and some parts to be careful about. Eat it in small amounts."

// Simplify 詞彙替換後將每句截斷到 words 個字；結果不會是空字串
func Simplify(text string, words int) string {
	for _, e := range glossary {
		text = e.re.ReplaceAllString(text, e.repl)
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		var sentences []string
		for _, s := range sentencePattern.FindAllString(line, -1) {
			if s = truncateWords(strings.TrimSpace(s), words); s != "" {
				sentences = append(sentences, capitalize(s))
			}
		}
		if len(sentences) > 0 {
			lines = append(lines, strings.Join(sentences, " "))
		}
	}
	if len(lines) == 0 {
		return fallbackELI5
	}
	return strings.Join(lines, "\n")
}

func truncateWords(s string, n int) string {
	fields := strings.Fields(s)
	if n <= 0 || len(fields) <= n {
		return strings.Join(fields, " ")
	}
	return strings.TrimRight(strings.Join(fields[:n], " "), ",;:") + "."
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
