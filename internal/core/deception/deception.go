// Package deception detects ingredient "stacking": one compound class split
// across several label names so that each one sits lower on the list.
package deception

import (
	"sort"
	"strconv"
	"strings"

	"foodsense/internal/core/knowledge"
	"foodsense/internal/core/normalizer"
)

// Alert 欺瞞警示
type Alert struct {
	AlertType        string             `json:"alert_type"`
	Severity         knowledge.Severity `json:"severity"`
	SurpriseScore    int                `json:"surprise_score"`
	Title            string             `json:"title"`
	Explanation      string             `json:"explanation"`
	MatchedAliases   []string           `json:"matched_aliases"`
	CumulativeImpact string             `json:"cumulative_impact"`
}

// Report 偵測結果；OverallScore 為各警示分數的最大值
type Report struct {
	Alerts       []Alert `json:"alerts"`
	OverallScore int     `json:"overall_score"`
}

// Detector 依知識庫的別名群組掃描成分
type Detector struct {
	groups []knowledge.AliasGroup
}

// New 建立偵測器
func New(base *knowledge.Base) *Detector {
	return &Detector{groups: base.Groups()}
}

// Detect 掃描所有成分（包含未匹配知識庫者）
func (d *Detector) Detect(ings []normalizer.Ingredient) Report {
	report := Report{Alerts: []Alert{}}
	for _, g := range d.groups {
		matched := normalizer.GroupMatches(ings, g)
		sev := g.SeverityFor(len(matched))
		if sev == "" {
			continue
		}
		report.Alerts = append(report.Alerts, buildAlert(g, matched, sev))
	}

	// 嚴重度高者優先，其次分數；穩定排序保留群組宣告順序
	sort.SliceStable(report.Alerts, func(i, j int) bool {
		a, b := report.Alerts[i], report.Alerts[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		return a.SurpriseScore > b.SurpriseScore
	})

	for _, a := range report.Alerts {
		report.OverallScore = max(report.OverallScore, a.SurpriseScore)
	}
	return report
}

// Score 單一群組的驚訝分數，隨數量單調不減並限制在 [0,100]
func Score(g knowledge.AliasGroup, count int) int {
	if g.Override {
		if count == 0 {
			return 0
		}
		return bound(g.OverrideScore)
	}
	if count < g.Threshold {
		return 0
	}
	return bound(g.ScoreBase + g.ScoreStep*(count-g.Threshold))
}

func bound(v int) int {
	return min(100, max(0, v))
}

func buildAlert(g knowledge.AliasGroup, matched []string, sev knowledge.Severity) Alert {
	count := len(matched)
	r := strings.NewReplacer(
		"{count}", strconv.Itoa(count),
		"{aliases}", strings.Join(matched, ", "),
		"{estimate}", strconv.Itoa(count*g.ImpactPerAlias),
	)
	return Alert{
		AlertType:        g.Category,
		Severity:         sev,
		SurpriseScore:    Score(g, count),
		Title:            r.Replace(g.Title),
		Explanation:      r.Replace(strings.TrimSpace(g.Explanation)),
		MatchedAliases:   matched,
		CumulativeImpact: r.Replace(g.CumulativeImpact),
	}
}
