package main

import (
	"context"
	"fmt"
	"strings"

	"foodsense/internal/core/analysis"
	"foodsense/internal/core/nutrition"
	"foodsense/internal/pkg/common"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd(opts *options) *cobra.Command {
	var (
		label    string
		product  string
		prefs    []string
		eli5     bool
		language string
	)

	cmd := &cobra.Command{
		Use:   "analyze [ingredient...]",
		Short: "Analyze an ingredient list",
		Long: `Analyze the given ingredients, or the ingredient section of a full label
passed with --label. Output is the same JSON the HTTP API returns.`,
		Example: `  foodsense analyze sugar "palm oil" salt
  foodsense analyze --label "Ingredients: oats, honey, almonds (12%)" --prefer weight_management`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ingredients := args
			if label != "" {
				_, ingredients = analysis.SplitIngredients(label)
			}
			if len(ingredients) == 0 {
				return fmt.Errorf("no ingredients given: pass them as arguments or with --label")
			}

			ctx := context.Background()
			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.closer()

			res, err := a.svc.Analyze(ctx, analysis.Request{
				Ingredients:     ingredients,
				ProductName:     product,
				UserPreferences: prefs,
				IncludeELI5:     eli5,
				Language:        language,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "full label text; the ingredient section is extracted")
	cmd.Flags().StringVar(&product, "product", "", "product name")
	cmd.Flags().StringSliceVar(&prefs, "prefer", nil, "intent hints such as weight_management, child_safety, athletic_performance")
	cmd.Flags().BoolVar(&eli5, "eli5", false, "include a simplified explanation")
	cmd.Flags().StringVar(&language, "language", "en", "language code for the simplified explanation")
	return cmd
}

func newNutritionCmd(opts *options) *cobra.Command {
	var (
		label   string
		facts   string
		product string
	)

	cmd := &cobra.Command{
		Use:   "nutrition",
		Short: "Classify a nutrition panel as Good, Moderate or Bad",
		Example: `  foodsense nutrition --facts '{"total_sugars": 22, "sodium": 310, "dietary_fiber": 1}'
  foodsense nutrition --label "Calories 250
Sodium 480mg
Total Sugars 18g"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (label == "") == (facts == "") {
				return fmt.Errorf("pass exactly one of --facts or --label")
			}

			ctx := context.Background()
			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.closer()

			if label != "" {
				res, parsed := a.svc.NutritionFromLabel(label)
				return printJSON(cmd, struct {
					ProductName string          `json:"product_name,omitempty"`
					Nutrition   nutrition.Facts `json:"nutrition"`
					nutrition.Result
				}{product, parsed, res})
			}

			var f nutrition.Facts
			if err := common.DecodeJSONStrict(strings.NewReader(facts), &f); err != nil {
				return fmt.Errorf("invalid --facts: %w", err)
			}
			res, err := a.svc.AnalyzeNutrition(analysis.Request{ProductName: product, Nutrition: &f})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "nutrition panel text")
	cmd.Flags().StringVar(&facts, "facts", "", "nutrition values as JSON, per serving")
	cmd.Flags().StringVar(&product, "product", "", "product name")
	return cmd
}
