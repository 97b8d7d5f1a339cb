package intent

// FoodContext 產品所屬的食品類別
type FoodContext string

const (
	PackagedSnack     FoodContext = "packaged_snack"
	Beverage          FoodContext = "beverage"
	BreakfastCereal   FoodContext = "breakfast_cereal"
	ProteinSupplement FoodContext = "protein_supplement"
	BakedGood         FoodContext = "baked_good"
	PreparedMeal      FoodContext = "prepared_meal"
	Condiment         FoodContext = "condiment"
	Candy             FoodContext = "candy"
)

// Intent 使用者最可能關心的健康面向
type Intent string

const (
	GeneralHealth          Intent = "general_health"
	WeightManagement       Intent = "weight_management"
	ChildSafety            Intent = "child_safety"
	AthleticPerformance    Intent = "athletic_performance"
	LongTermHealth         Intent = "long_term_health"
	IngredientTransparency Intent = "ingredient_transparency"
)

// Intents 依宣告順序列出所有意圖，argmax 平手時取前者
var Intents = []Intent{
	GeneralHealth,
	WeightManagement,
	ChildSafety,
	AthleticPerformance,
	LongTermHealth,
	IngredientTransparency,
}

// hintAliases 接受客戶端較短的標籤
var hintAliases = map[string]Intent{
	"general":            GeneralHealth,
	"weight":             WeightManagement,
	"child":              ChildSafety,
	"kids":               ChildSafety,
	"athletic":           AthleticPerformance,
	"long_term":          LongTermHealth,
	"ingredient_concern": IngredientTransparency,
}

// ParseIntent 解析意圖標籤；未知標籤回傳 false
func ParseIntent(s string) (Intent, bool) {
	for _, in := range Intents {
		if string(in) == s {
			return in, true
		}
	}
	in, ok := hintAliases[s]
	return in, ok
}

// contextRule 食品類別投票規則；Combos 內所有關鍵字同時出現時額外加分
type contextRule struct {
	Context    FoodContext
	Keywords   []string
	Categories []string
	Combos     [][]string
}

// 宣告順序即平手時的優先順序
var contextRules = []contextRule{
	{Context: Beverage, Keywords: []string{"soda", "sodas", "cola", "juice", "drink", "drinks", "beverage", "carbonated water", "lemonade", "iced tea", "energy drink"}},
	{Context: BreakfastCereal, Keywords: []string{"cereal", "granola", "corn flakes", "muesli", "flakes", "oatmeal"}},
	{Context: ProteinSupplement, Keywords: []string{"whey", "protein", "bcaa", "creatine", "isolate", "casein"}, Categories: []string{"protein"}},
	{Context: BakedGood, Keywords: []string{"cookie", "cookies", "cake", "brownie", "muffin", "pastry", "bread", "biscuit", "biscuits", "flour", "yeast", "baking soda", "baking powder"}, Combos: [][]string{{"flour", "sugar"}}},
	{Context: Candy, Keywords: []string{"candy", "candies", "chocolate", "gummy", "gummies", "lollipop", "gelatin", "confection", "toffee"}},
	{Context: PackagedSnack, Keywords: []string{"chips", "crisps", "crackers", "popcorn", "pretzels", "snack", "snacks"}},
	{Context: Condiment, Keywords: []string{"sauce", "ketchup", "mayo", "mayonnaise", "dressing", "mustard", "vinegar", "relish"}},
	{Context: PreparedMeal, Keywords: []string{"frozen", "meal", "dinner", "lunch", "entree", "ready to eat"}},
}

// 產品名稱命中的權重高於成分命中
const (
	nameKeywordWeight       = 4.0
	ingredientKeywordWeight = 1.0
	categoryWeight          = 1.0
	comboWeight             = 2.0
)

// contribution 單一規則對某意圖的加分
type contribution struct {
	Intent Intent
	Weight float64
}

// categoryIntents 知識條目類別 → 意圖加分
var categoryIntents = map[string][]contribution{
	"sweetener":            {{WeightManagement, 0.75}},
	"natural_sweetener":    {{WeightManagement, 0.5}},
	"artificial_sweetener": {{WeightManagement, 0.5}, {IngredientTransparency, 1}, {ChildSafety, 0.5}},
	"saturated_fat":        {{WeightManagement, 0.5}, {LongTermHealth, 1}},
	"trans_fat":            {{LongTermHealth, 2}},
	"preservative":         {{IngredientTransparency, 1}, {LongTermHealth, 0.5}, {ChildSafety, 0.5}},
	"food_coloring":        {{IngredientTransparency, 1}, {ChildSafety, 0.5}},
	"flavor_enhancer":      {{IngredientTransparency, 1}},
	"seasoning":            {{LongTermHealth, 0.5}},
	"protein":              {{AthleticPerformance, 1.5}},
	"whole_grain":          {{GeneralHealth, 0.5}, {AthleticPerformance, 0.5}},
	"natural_grain":        {{GeneralHealth, 0.5}, {AthleticPerformance, 0.5}},
	"healthy_fat":          {{GeneralHealth, 0.5}},
	"nuts":                 {{GeneralHealth, 0.5}},
}

// groupIntents 別名群組每多一個別名 → 意圖加分
var groupIntents = map[string]contribution{
	"sugar":            {WeightManagement, 0.5},
	"sodium":           {LongTermHealth, 0.5},
	"artificial_color": {ChildSafety, 0.25},
}

// nameRule 產品名稱關鍵字規則
type nameRule struct {
	Keywords []string
	Intent   Intent
	Weight   float64
}

var nameRules = []nameRule{
	{Keywords: []string{"kid", "kids", "child", "children", "baby", "toddler", "junior", "lunchbox", "school"}, Intent: ChildSafety, Weight: 8},
	{Keywords: []string{"diet", "lite", "light", "zero", "sugar free", "low calorie", "keto", "skinny", "low fat"}, Intent: WeightManagement, Weight: 4},
	{Keywords: []string{"protein", "sport", "sports", "energy", "workout", "athletic", "gym", "muscle", "recovery"}, Intent: AthleticPerformance, Weight: 3},
	{Keywords: []string{"organic", "natural", "clean", "non gmo"}, Intent: IngredientTransparency, Weight: 1},
}

// childAmplifier 兒童導向產品中，兒童相關成分再額外加分
const childAmplifier = 1.0

// baseGeneralHealth 沒有任何訊號時的預設傾向
const baseGeneralHealth = 1.0

// ConcernAreas 各意圖關注的成分類別，也用於推理引擎的相關性加分
var ConcernAreas = map[Intent][]string{
	WeightManagement:       {"sweetener", "natural_sweetener", "saturated_fat", "trans_fat"},
	ChildSafety:            {"artificial_sweetener", "food_coloring", "preservative", "flavor_enhancer"},
	AthleticPerformance:    {"protein", "natural_grain", "whole_grain"},
	LongTermHealth:         {"trans_fat", "saturated_fat", "preservative", "seasoning"},
	IngredientTransparency: {"artificial_sweetener", "food_coloring", "preservative", "flavor_enhancer", "emulsifier"},
}

// InConcernArea 類別是否屬於該意圖的關注範圍
func InConcernArea(in Intent, category string) bool {
	for _, c := range ConcernAreas[in] {
		if c == category {
			return true
		}
	}
	return false
}

var contextDescriptions = map[FoodContext]string{
	PackagedSnack:     "a packaged snack",
	Beverage:          "a beverage",
	BreakfastCereal:   "a breakfast cereal",
	ProteinSupplement: "a protein supplement",
	BakedGood:         "a baked good",
	PreparedMeal:      "a prepared meal",
	Condiment:         "a condiment or sauce",
	Candy:             "a candy or confection",
}

var intentDescriptions = map[Intent]string{
	GeneralHealth:          "overall health considerations",
	WeightManagement:       "weight and metabolism",
	ChildSafety:            "child safety",
	AthleticPerformance:    "athletic performance and recovery",
	LongTermHealth:         "long-term health impacts",
	IngredientTransparency: "ingredient safety and transparency",
}
