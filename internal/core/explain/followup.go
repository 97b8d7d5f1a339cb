package explain

import (
	"sort"

	"foodsense/internal/core/intent"
	"foodsense/internal/core/reasoning"
)

// FollowUp 建議的追問
type FollowUp struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

// followUpRule 候選追問；Categories 命中時以該洞察的排序分數加權
type followUpRule struct {
	FollowUp
	Categories []string
	Intents    []intent.Intent
	Contexts   []intent.FoodContext
	Base       float64
}

const (
	intentMatchBonus  = 10.0
	contextMatchBonus = 5.0
)

// 宣告順序即同分時的順序
var followUpRules = []followUpRule{
	{
		FollowUp:   FollowUp{"Is this safe for kids?", "Children may be more sensitive to certain additives"},
		Categories: []string{"food_coloring", "artificial_sweetener", "preservative", "flavor_enhancer"},
		Intents:    []intent.Intent{intent.ChildSafety},
	},
	{
		FollowUp:   FollowUp{"What if I'm trying to lose weight?", "Weight management considerations"},
		Categories: []string{"sweetener", "natural_sweetener", "saturated_fat", "trans_fat"},
		Intents:    []intent.Intent{intent.WeightManagement},
	},
	{
		FollowUp:   FollowUp{"What about the sugar content?", "Sugars are often split across several names"},
		Categories: []string{"sweetener"},
		Contexts:   []intent.FoodContext{intent.Beverage, intent.BreakfastCereal},
	},
	{
		FollowUp:   FollowUp{"How much is too much?", "Portion control and safe consumption limits"},
		Categories: []string{"sweetener", "seasoning", "saturated_fat"},
		Contexts:   []intent.FoodContext{intent.PackagedSnack, intent.Candy},
	},
	{
		FollowUp:   FollowUp{"Is this good before or after a workout?", "Protein and grains matter for recovery"},
		Categories: []string{"protein", "whole_grain", "natural_grain"},
		Intents:    []intent.Intent{intent.AthleticPerformance},
	},
	{
		FollowUp:   FollowUp{"What does this do to my heart over time?", "Fats and sodium add up across years"},
		Categories: []string{"trans_fat", "saturated_fat", "seasoning"},
		Intents:    []intent.Intent{intent.LongTermHealth},
	},
	{
		FollowUp:   FollowUp{"Are these additives really necessary?", "Many additives exist for shelf life or looks"},
		Categories: []string{"preservative", "food_coloring", "flavor_enhancer", "emulsifier", "artificial_sweetener"},
		Intents:    []intent.Intent{intent.IngredientTransparency},
	},
	{
		FollowUp: FollowUp{"Can I eat this daily?", "Frequency of consumption affects health impact"},
		Base:     1,
	},
	{
		FollowUp: FollowUp{"What are healthier alternatives?", "Similar products with better ingredient profiles"},
		Base:     0.5,
	},
}

// FollowUps 依洞察類別、意圖與食品類別挑選追問，最多 limit 個
func FollowUps(insights []reasoning.Insight, in intent.Result, limit int) []FollowUp {
	type scored struct {
		q     FollowUp
		score float64
	}
	var picked []scored
	for _, rule := range followUpRules {
		s := rule.Base
		for _, ins := range insights {
			if containsString(rule.Categories, ins.Category) {
				s += ins.Score
			}
		}
		for _, it := range rule.Intents {
			if it == in.PrimaryIntent {
				s += intentMatchBonus
			}
		}
		for _, c := range rule.Contexts {
			if c == in.FoodContext {
				s += contextMatchBonus
			}
		}
		if s > 0 {
			picked = append(picked, scored{rule.FollowUp, s})
		}
	}

	sort.SliceStable(picked, func(i, j int) bool { return picked[i].score > picked[j].score })

	out := make([]FollowUp, 0, limit)
	for _, p := range picked {
		if len(out) == limit {
			break
		}
		out = append(out, p.q)
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
