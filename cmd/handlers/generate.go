package handlers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"blogsmith/internal/assemble"
	"blogsmith/internal/contract"
	"blogsmith/internal/core"
	"blogsmith/internal/cost"
	"blogsmith/internal/llm"
	"blogsmith/internal/logger"
	"blogsmith/internal/prompts"
	"blogsmith/internal/retry"
	"blogsmith/internal/shopify"
	"blogsmith/internal/store"
)

// remoteWriteAttempts bounds the backoff loop around publish calls.
const remoteWriteAttempts = 10

// NewGenerateCmd creates the article generation command
func NewGenerateCmd() *cobra.Command {
	generateCmd := &cobra.Command{
		Use:   "generate <product-url>",
		Short: "Generate a blog article for a product",
		Long: `Generate a complete blog article about the product at the given URL.

The article is produced in three model calls (introduction, feature
list, how-to guide), each validated against a strict JSON contract and
retried on malformed output. The validated fields are assembled into an
HTML document with product links, saved as a draft, and optionally
published to the store blog, replacing any article with the same handle.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			publish, _ := cmd.Flags().GetBool("publish")
			blogID, _ := cmd.Flags().GetInt64("blog-id")
			model, _ := cmd.Flags().GetString("model")
			output, _ := cmd.Flags().GetString("output")

			if err := runGenerate(cmd.Context(), args[0], model, output, publish, blogID); err != nil {
				logger.Error("Failed to generate article", err)
				os.Exit(1)
			}
		},
	}

	generateCmd.Flags().Bool("publish", false, "Publish the article to the store blog after generating")
	generateCmd.Flags().Int64("blog-id", 0, "Blog to publish into (defaults to store.blog_id)")
	generateCmd.Flags().String("model", "", "Model to use (defaults to ai.model)")
	generateCmd.Flags().StringP("output", "o", "", "Write the HTML document to this file (default <handle>.html)")

	return generateCmd
}

func runGenerate(ctx context.Context, productURL, model, output string, publish bool, blogIDFlag int64) error {
	handle, title := assemble.HandleAndTitleFromURL(productURL)
	if handle == "" {
		return fmt.Errorf("could not derive a product handle from %q", productURL)
	}
	if model == "" {
		model = cfg.AI.Model
	}

	fmt.Printf("📝 Generating article for %q (handle %s)\n", title, handle)

	cacheStore, err := store.NewStore(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize cache store: %w", err)
	}
	defer func() {
		if err := cacheStore.Close(); err != nil {
			logger.Error("Failed to close cache store", err)
		}
	}()

	promptOpts := prompts.Options{
		ProductTitle: title,
		Language:     cfg.Generation.Language,
		MinFeatures:  cfg.Generation.MinFeatures,
		MinSteps:     cfg.Generation.MinSteps,
	}

	// A previously synced product gives the model real source material
	// and the article a hero image.
	var heroSrc, heroAlt string
	if product, err := cacheStore.GetProductByHandle(handle); err != nil {
		return err
	} else if product != nil {
		promptOpts.ProductTitle = product.Title
		promptOpts.ProductDescription = product.BodyHTML
		promptOpts.Tags = product.Tags
		heroSrc = product.ImageSrc
		heroAlt = product.ImageAlt
		title = product.Title
	} else {
		logger.Warn("product not found in cache, generating from the URL alone", "handle", handle)
	}

	client, err := llm.NewClient(ctx, cfg.AI.APIKey, model, logger.Get())
	if err != nil {
		return err
	}

	retryOpts := retry.Options{
		MaxAttempts: cfg.Generation.MaxAttempts,
		Delay:       cfg.Generation.Delay(),
		Logger:      logger.Get(),
	}

	sections := []struct {
		name     string
		messages []core.Message
		contract contract.Contract
	}{
		{"introduction", prompts.BuildIntroConversation(promptOpts), contract.Intro()},
		{"features", prompts.BuildFeatureConversation(promptOpts), contract.FeatureList(cfg.Generation.MinFeatures)},
		{"guide", prompts.BuildGuideConversation(promptOpts), contract.Guide(cfg.Generation.MinSteps)},
	}

	var usage core.TokenUsage
	outcomes := make([]retry.Outcome, len(sections))
	for i, section := range sections {
		req := core.GenerationRequest{
			Messages:    section.messages,
			Model:       model,
			Temperature: cfg.AI.Temperature,
			JSONOutput:  true,
		}

		outcome, err := retry.Run(ctx, client, req, section.contract, retryOpts)
		if err != nil {
			return fmt.Errorf("failed to generate %s section: %w", section.name, err)
		}
		outcomes[i] = outcome
		usage.InputTokens += outcome.Usage.InputTokens
		usage.OutputTokens += outcome.Usage.OutputTokens
		usage.TotalTokens += outcome.Usage.TotalTokens
		fmt.Printf("  ✅ %s section accepted (attempt %d)\n", section.name, outcome.Attempts)
	}

	doc := assemble.Document(assemble.Input{
		Intro:        outcomes[0].Content,
		Features:     outcomes[1].Content,
		Guide:        outcomes[2].Content,
		ProductURL:   productURL,
		ProductTitle: title,
		Language:     cfg.Generation.Language,
		CSS:          cfg.Article.CSS,
		HeroImageURL: heroSrc,
		HeroImageAlt: heroAlt,
	})

	articleTitle := outcomes[0].Content.Field("title")
	totalCost := cost.ActualCost(usage, model)

	draft := store.Draft{
		ID:            uuid.NewString(),
		Handle:        handle,
		Title:         articleTitle,
		BodyHTML:      doc,
		ModelUsed:     model,
		InputTokens:   usage.InputTokens,
		OutputTokens:  usage.OutputTokens,
		Cost:          totalCost,
		DateGenerated: time.Now().UTC(),
	}
	if err := cacheStore.SaveDraft(draft); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}

	fmt.Printf("💰 Tokens used: %d in / %d out (~$%.6f)\n", usage.InputTokens, usage.OutputTokens, totalCost)

	if output == "" {
		output = handle + ".html"
	}
	if err := os.WriteFile(output, []byte(doc), 0644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	fmt.Printf("📄 Document written to %s\n", output)

	if !publish {
		return nil
	}

	blogID, err := requireBlogID(blogIDFlag)
	if err != nil {
		return err
	}
	remote, err := storeClient()
	if err != nil {
		return err
	}

	articleDraft := core.ArticleDraft{
		Title:    articleTitle,
		Author:   cfg.Article.Author,
		Tags:     cfg.Article.Tags,
		BodyHTML: doc,
		ImageSrc: heroSrc,
		ImageAlt: heroAlt,
	}

	record, err := retry.DoWithBackoff(ctx, func(ctx context.Context) (core.ArticleRecord, error) {
		return remote.ReplaceArticleByHandle(ctx, blogID, handle, articleDraft)
	}, remoteWriteAttempts, retry.DefaultRemoteSchedule, shopify.IsNetworkError)
	if err != nil {
		return fmt.Errorf("failed to publish article: %w", err)
	}

	fmt.Printf("🚀 Published article %d to blog %d\n", record.ID, blogID)
	return nil
}
