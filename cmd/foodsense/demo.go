package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"foodsense/internal/core/analysis"
	"foodsense/internal/core/compare"

	"github.com/spf13/cobra"
)

func newDemoCmd(opts *options) *cobra.Command {
	var eli5 bool

	cmd := &cobra.Command{
		Use:   "demo [id]",
		Short: "List the built-in demo products, or analyze one by id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.closer()

			demos := a.base.DemoProducts()
			if len(args) == 0 {
				return printJSON(cmd, demos)
			}

			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid demo id %q", args[0])
			}
			for _, d := range demos {
				if d.ID != id {
					continue
				}
				res, err := a.svc.Analyze(ctx, analysis.Request{
					Ingredients: d.Ingredients,
					ProductName: d.Name,
					IncludeELI5: eli5,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			}
			return fmt.Errorf("no demo product with id %d", id)
		},
	}

	cmd.Flags().BoolVar(&eli5, "eli5", false, "include a simplified explanation")
	return cmd
}

func newCompareCmd(opts *options) *cobra.Command {
	var (
		products []string
		prefs    []string
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Rank two or three products side by side",
		Example: `  foodsense compare --product "Cola=carbonated water,sugar,caramel color" \
    --product "Sparkling Water=carbonated water,natural flavors"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := compare.Request{UserPreferences: prefs}
			for _, p := range products {
				name, list, ok := strings.Cut(p, "=")
				if !ok {
					name, list = "", p
				}
				var ingredients []string
				for _, ing := range strings.Split(list, ",") {
					if ing = strings.TrimSpace(ing); ing != "" {
						ingredients = append(ingredients, ing)
					}
				}
				req.Products = append(req.Products, compare.Product{
					ProductName: strings.TrimSpace(name),
					Ingredients: ingredients,
				})
			}

			ctx := context.Background()
			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.closer()

			res, err := compare.Compare(ctx, a.svc, req)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}

	cmd.Flags().StringArrayVar(&products, "product", nil, `product as "name=ingredient,ingredient"; repeat 2 or 3 times`)
	cmd.Flags().StringSliceVar(&prefs, "prefer", nil, "intent hints")
	return cmd
}
