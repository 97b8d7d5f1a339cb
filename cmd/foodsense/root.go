package main

import (
	"context"
	"fmt"

	"foodsense/internal/core/ai/cache"
	"foodsense/internal/core/ai/provider"
	"foodsense/internal/core/ai/queue"
	"foodsense/internal/core/analysis"
	"foodsense/internal/core/explain"
	"foodsense/internal/core/knowledge"
	"foodsense/internal/infrastructure/config"
	"foodsense/internal/pkg/common"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options 全域旗標
type options struct {
	offline  bool
	logLevel string
}

// app 單次指令使用的服務
type app struct {
	cfg    *config.Config
	base   *knowledge.Base
	svc    *analysis.Service
	closer func()
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "foodsense",
		Short: "Explain what the ingredients of a food product mean for you",
		Long: `foodsense reads an ingredient list or a nutrition panel and explains
the trade-offs, hidden sugars and sodium, and how confident the research is.
The analysis runs locally; a configured text provider only rewrites the
simplified explanation.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&opts.offline, "offline", false, "skip .env and external providers, use built-in defaults")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	root.AddCommand(
		newAnalyzeCmd(opts),
		newNutritionCmd(opts),
		newCompareCmd(opts),
		newDemoCmd(opts),
	)
	return root
}

// open 載入設定並建立分析服務
func (o *options) open(ctx context.Context) (*app, error) {
	common.InitConsoleLogger(o.logLevel)

	base, err := knowledge.Default()
	if err != nil {
		return nil, fmt.Errorf("loading knowledge base: %w", err)
	}

	if o.offline {
		cfg := config.Default()
		return &app{
			cfg:    cfg,
			base:   base,
			svc:    analysis.NewService(base, nil, analysis.ConfigFrom(cfg)),
			closer: func() {},
		}, nil
	}

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	store := cache.New(ctx, &cfg.Cache)
	q := queue.NewManager(&cfg.Queue)
	p := provider.New(ctx, cfg, store, q)

	var gen explain.TextGenerator
	if p.Enabled() {
		gen = p
	}
	common.LogDebug("cli services ready",
		zap.String("text_provider", p.Name()),
		zap.String("vision_provider", p.VisionName()),
	)

	return &app{
		cfg:  cfg,
		base: base,
		svc:  analysis.NewService(base, gen, analysis.ConfigFrom(cfg)),
		closer: func() {
			q.Close()
			if store != nil {
				_ = store.Close()
			}
		},
	}, nil
}

// printJSON 以縮排 JSON 輸出
func printJSON(cmd *cobra.Command, v interface{}) error {
	out, err := common.ToIndentedJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
