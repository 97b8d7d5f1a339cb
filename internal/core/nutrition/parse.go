package nutrition

import (
	"regexp"
	"strconv"
	"strings"
)

type labelField struct {
	labels []string
	target func(*Facts) **float64
}

// 順序由具體到一般；"saturated fat" 必須先於 "fat"
var labelFields = []labelField{
	{[]string{"servings per"}, func(f *Facts) **float64 { return &f.ServingsPerPack }},
	{[]string{"calories", "energy"}, func(f *Facts) **float64 { return &f.Calories }},
	{[]string{"saturated", "saturates"}, func(f *Facts) **float64 { return &f.SaturatedFat }},
	{[]string{"trans"}, func(f *Facts) **float64 { return &f.TransFat }},
	{[]string{"monounsaturated", "mufa"}, func(f *Facts) **float64 { return &f.MonounsaturatedFat }},
	{[]string{"polyunsaturated", "pufa"}, func(f *Facts) **float64 { return &f.PolyunsaturatedFat }},
	{[]string{"cholesterol"}, func(f *Facts) **float64 { return &f.Cholesterol }},
	{[]string{"sodium"}, func(f *Facts) **float64 { return &f.Sodium }},
	{[]string{"fiber", "fibre"}, func(f *Facts) **float64 { return &f.DietaryFiber }},
	{[]string{"added sugar"}, func(f *Facts) **float64 { return &f.AddedSugars }},
	{[]string{"sugar"}, func(f *Facts) **float64 { return &f.TotalSugars }},
	{[]string{"carbohydrate", "carbs"}, func(f *Facts) **float64 { return &f.TotalCarbohydrates }},
	{[]string{"fat"}, func(f *Facts) **float64 { return &f.TotalFat }},
	{[]string{"protein"}, func(f *Facts) **float64 { return &f.Protein }},
}

var (
	quantityPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(mg|g|kcal|kj|cal|%)?`)
	kcalPattern     = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*kcal`)
	servingPattern  = regexp.MustCompile(`(?i)serving size\s*[:\-]?\s*(.+)$`)
)

// ParseLabel 解析營養標示文字，回傳解析出的欄位數；
// "Not listed" 或 "-" 視為缺省
func ParseLabel(text string) (Facts, int) {
	var f Facts
	found := 0
	for _, raw := range strings.Split(text, "\n") {
		line := strings.ToLower(strings.TrimSpace(strings.Trim(raw, "*-•| \t")))
		if line == "" || strings.Contains(line, "not listed") || strings.Contains(line, "from fat") {
			continue
		}
		if m := servingPattern.FindStringSubmatch(raw); m != nil && !strings.Contains(line, "servings per") {
			if f.ServingSize == "" {
				f.ServingSize = strings.TrimSpace(m[1])
			}
			continue
		}
		for _, lf := range labelFields {
			if !containsAny(line, lf.labels) {
				continue
			}
			target := lf.target(&f)
			if *target == nil {
				if v, ok := lineValue(line, lf.labels[0]); ok {
					*target = Float(v)
					found++
				}
			}
			break
		}
	}
	return f, found
}

func lineValue(line, label string) (float64, bool) {
	if label == "calories" {
		if m := kcalPattern.FindStringSubmatch(line); m != nil {
			return parseNumber(m[1])
		}
	}
	for _, m := range quantityPattern.FindAllStringSubmatch(line, -1) {
		if m[2] == "%" {
			continue
		}
		v, ok := parseNumber(m[1])
		if !ok {
			continue
		}
		if label == "sodium" && m[2] == "g" {
			v *= 1000
		}
		return v, true
	}
	return 0, false
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	return v, err == nil
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
