package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"blogsmith/internal/cost"
	"blogsmith/internal/logger"
	"blogsmith/internal/prompts"
	"blogsmith/internal/store"
)

// NewCostCmd creates the cost estimation command
func NewCostCmd() *cobra.Command {
	costCmd := &cobra.Command{
		Use:   "cost <product-title>",
		Short: "Estimate the token cost of generating an article",
		Long: `Build the three generation conversations for the named product and
print a pre-flight token and dollar estimate per section, without
calling the model.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			model, _ := cmd.Flags().GetString("model")
			if err := runCostEstimate(args[0], model); err != nil {
				logger.Error("Failed to estimate cost", err)
				os.Exit(1)
			}
		},
	}

	costCmd.Flags().String("model", "", "Model to price (defaults to ai.model)")
	costCmd.AddCommand(newCostHistoryCmd())
	return costCmd
}

func newCostHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the actual cost of previously generated drafts",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runCostHistory(); err != nil {
				logger.Error("Failed to read draft history", err)
				os.Exit(1)
			}
		},
	}
}

func runCostEstimate(productTitle, model string) error {
	if model == "" {
		model = cfg.AI.Model
	}

	opts := prompts.Options{
		ProductTitle: productTitle,
		Language:     cfg.Generation.Language,
		MinFeatures:  cfg.Generation.MinFeatures,
		MinSteps:     cfg.Generation.MinSteps,
	}

	sections := []struct {
		name     string
		estimate cost.RequestEstimate
	}{
		{"introduction", cost.EstimateRequest(prompts.BuildIntroConversation(opts), model)},
		{"features", cost.EstimateRequest(prompts.BuildFeatureConversation(opts), model)},
		{"guide", cost.EstimateRequest(prompts.BuildGuideConversation(opts), model)},
	}

	var total float64
	for _, section := range sections {
		fmt.Printf("── %s ──\n%s\n", section.name, section.estimate.Format())
		total += section.estimate.TotalCost
	}
	fmt.Printf("Estimated article total: $%.6f\n", total)
	return nil
}

func runCostHistory() error {
	cacheStore, err := store.NewStore(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize cache store: %w", err)
	}
	defer func() {
		if err := cacheStore.Close(); err != nil {
			logger.Error("Failed to close cache store", err)
		}
	}()

	drafts, err := cacheStore.ListDrafts()
	if err != nil {
		return err
	}
	if len(drafts) == 0 {
		fmt.Println("No drafts generated yet.")
		return nil
	}

	var total float64
	for _, d := range drafts {
		fmt.Printf("%s  %-30s %6d in / %6d out  $%.6f  (%s)\n",
			d.DateGenerated.Format("2006-01-02"), d.Handle, d.InputTokens, d.OutputTokens, d.Cost, d.ModelUsed)
		total += d.Cost
	}
	fmt.Printf("\nTotal spent: $%.6f across %d drafts\n", total, len(drafts))
	return nil
}
