package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"desirefinder-be/internal/config"
	"desirefinder-be/internal/pkg/logger"
	"desirefinder-be/pkg/dropshipping"
	"desirefinder-be/pkg/llm/factory"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "funnel_probe [query...]",
	Short: "Run the vetting funnel against the configured suppliers",
	Long: `Builds the supplier sources from the environment, runs every query
through the vetting funnel and prints the surviving products with their
display price.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProbe,
}

func init() {
	rootCmd.Flags().Int("limit", 5, "maximum number of vetted products")
	rootCmd.Flags().Bool("vision", false, "enable the image check (needs an LLM provider)")
	rootCmd.Flags().Duration("timeout", 90*time.Second, "overall deadline")
	rootCmd.Flags().StringSlice("providers", nil, "override DROPSHIPPING_API_PROVIDER, e.g. cj,serpapi")
}

func runProbe(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	vision, _ := cmd.Flags().GetBool("vision")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	providers, _ := cmd.Flags().GetStringSlice("providers")

	cfg := config.Load()
	if len(providers) > 0 {
		cfg.Funnel.Providers = providers
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	log := logger.NewIsolatedLogger("logs/funnel_probe.log")
	sources, err := dropshipping.NewSources(ctx, cfg.Funnel.Providers, dropshipping.Credentials{
		RapidAPIKey:         cfg.Keys.RapidAPI,
		AliExpressURL:       cfg.Keys.AliExpressURL,
		AliExpressAppKey:    cfg.Keys.AliExpressAppKey,
		AliExpressAppSecret: cfg.Keys.AliExpressSecret,
		AliExpressToken:     cfg.Keys.AliExpressToken,
		CJKey:               cfg.Keys.CJDropshipping,
		CJURL:               cfg.Keys.CJDropshippingURL,
		SerpAPIKey:          cfg.Keys.SerpApi,
	}, &http.Client{Timeout: cfg.Funnel.SourceTimeout})
	if err != nil {
		return err
	}

	var judge dropshipping.ImageJudge
	if vision {
		provider, err := factory.NewLLMProvider(ctx, cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL, cfg.Keys.GoogleGemini)
		if err != nil {
			return fmt.Errorf("vision provider: %w", err)
		}
		judge = dropshipping.NewVisionJudge(provider, cfg.Ai.VisionModel, nil)
	}

	stages := &stagePrinter{}
	funnel := dropshipping.NewFunnel(sources, judge, dropshipping.Config{
		PageSize:      cfg.Funnel.PageSize,
		ShipTo:        cfg.Funnel.ShipTo,
		SortBy:        cfg.Funnel.SortBy,
		SourceTimeout: cfg.Funnel.SourceTimeout,
		MaxRetries:    cfg.Funnel.MaxRetries,
		VisionEnabled: vision,
	}, log, dropshipping.WithObserver(stages))

	color.Cyan("Probing %d source(s) with %d quer(ies)", len(sources), len(args))
	start := time.Now()
	results, err := funnel.Run(ctx, dropshipping.Request{Queries: args, Limit: limit})
	if err != nil {
		color.Red("Funnel failed: %v", err)
		return err
	}

	color.Yellow("\n%d product(s) in %s", len(results), time.Since(start).Round(time.Millisecond))
	for i, r := range results {
		p := r.Product
		color.Green("%d. %s", i+1, p.Name)
		fmt.Printf("   %s %.2f (supplier %.2f) from %s\n", p.Currency, p.Price, p.SupplierPrice, p.Source)
		fmt.Printf("   rating %.1f, %d orders, %d reviews\n", p.Rating, p.Orders, p.Reviews)
		if p.BuyURL != "" {
			fmt.Printf("   %s\n", p.BuyURL)
		}
	}
	return nil
}

// stagePrinter shows the funnel counters as they happen.
type stagePrinter struct{}

func (stagePrinter) StageCount(stage string, n int) {
	color.Magenta("  [%s] %d", stage, n)
}

func (stagePrinter) VisionVerdict(verdict string) {
	if verdict != "accept" {
		color.HiBlack("  vision: %s", verdict)
	}
}

func (stagePrinter) SourceError(source string) {
	color.Red("  source %s failed", source)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
