package handlers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"blogsmith/internal/core"
	"blogsmith/internal/logger"
	"blogsmith/internal/store"
)

// NewArticlesCmd creates the blog article management command
func NewArticlesCmd() *cobra.Command {
	articlesCmd := &cobra.Command{
		Use:   "articles",
		Short: "Inspect and sync blog articles",
	}

	articlesCmd.PersistentFlags().Int64("blog-id", 0, "Blog to operate on (defaults to store.blog_id)")

	articlesCmd.AddCommand(newArticlesSyncCmd())
	articlesCmd.AddCommand(newArticlesCountCmd())
	articlesCmd.AddCommand(newArticlesListCmd())
	articlesCmd.AddCommand(newArticlesDeleteCmd())

	return articlesCmd
}

func newArticlesSyncCmd() *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch the complete article set from the store into the local cache",
		Long: `Reconstruct the blog's complete article set by walking the publish
timeline backward and forward from the current time, and store it in
the local cache. Partial results are discarded if the store fails
mid-fetch unless --best-effort is given.`,
		Run: func(cmd *cobra.Command, args []string) {
			blogID, _ := cmd.Flags().GetInt64("blog-id")
			bestEffort, _ := cmd.Flags().GetBool("best-effort")
			if err := runArticlesSync(cmd.Context(), blogID, bestEffort); err != nil {
				logger.Error("Failed to sync articles", err)
				os.Exit(1)
			}
		},
	}

	syncCmd.Flags().Bool("best-effort", false, "Keep articles collected before a fetch failure")
	return syncCmd
}

func newArticlesCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show the blog's article count",
		Run: func(cmd *cobra.Command, args []string) {
			blogID, _ := cmd.Flags().GetInt64("blog-id")
			if err := runArticlesCount(cmd.Context(), blogID); err != nil {
				logger.Error("Failed to count articles", err)
				os.Exit(1)
			}
		},
	}
}

func newArticlesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached articles",
		Run: func(cmd *cobra.Command, args []string) {
			blogID, _ := cmd.Flags().GetInt64("blog-id")
			if err := runArticlesList(blogID); err != nil {
				logger.Error("Failed to list articles", err)
				os.Exit(1)
			}
		},
	}
}

func newArticlesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <article-id>",
		Short: "Delete an article from the store",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			blogID, _ := cmd.Flags().GetInt64("blog-id")
			if err := runArticlesDelete(cmd.Context(), blogID, args[0]); err != nil {
				logger.Error("Failed to delete article", err)
				os.Exit(1)
			}
		},
	}
}

func runArticlesSync(ctx context.Context, blogIDFlag int64, bestEffort bool) error {
	blogID, err := requireBlogID(blogIDFlag)
	if err != nil {
		return err
	}
	remote, err := storeClient()
	if err != nil {
		return err
	}

	fmt.Printf("🔄 Syncing articles for blog %d...\n", blogID)
	ref := time.Now().UTC()

	var articles []core.ArticleRecord
	var fetchErr error
	if bestEffort {
		articles, fetchErr = remote.FetchAllArticlesBestEffort(ctx, blogID, ref)
		if fetchErr != nil {
			logger.Warn("fetch ended early, keeping partial results", "error", fetchErr.Error(), "articles", len(articles))
		}
	} else {
		articles, fetchErr = remote.FetchAllArticles(ctx, blogID, ref)
		if fetchErr != nil {
			return fmt.Errorf("failed to fetch articles: %w", fetchErr)
		}
	}

	cacheStore, err := store.NewStore(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize cache store: %w", err)
	}
	defer func() {
		if err := cacheStore.Close(); err != nil {
			logger.Error("Failed to close cache store", err)
		}
	}()

	if err := cacheStore.UpsertArticles(articles); err != nil {
		return fmt.Errorf("failed to cache articles: %w", err)
	}

	fmt.Printf("✅ Synced %d articles\n", len(articles))
	return nil
}

func runArticlesCount(ctx context.Context, blogIDFlag int64) error {
	blogID, err := requireBlogID(blogIDFlag)
	if err != nil {
		return err
	}
	remote, err := storeClient()
	if err != nil {
		return err
	}

	count, err := remote.CountArticles(ctx, blogID)
	if err != nil {
		return err
	}
	fmt.Printf("📰 Blog %d has %d articles\n", blogID, count)
	return nil
}

func runArticlesList(blogIDFlag int64) error {
	blogID, err := requireBlogID(blogIDFlag)
	if err != nil {
		return err
	}

	cacheStore, err := store.NewStore(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize cache store: %w", err)
	}
	defer func() {
		if err := cacheStore.Close(); err != nil {
			logger.Error("Failed to close cache store", err)
		}
	}()

	articles, err := cacheStore.ListArticles(blogID)
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		fmt.Println("No cached articles. Run `blogsmith articles sync` first.")
		return nil
	}

	for _, a := range articles {
		fmt.Printf("%-12d %-10s %-40s %s\n", a.ID, a.PublishedAt.Format("2006-01-02"), a.Handle, a.Title)
	}
	fmt.Printf("\n%d articles cached\n", len(articles))
	return nil
}

func runArticlesDelete(ctx context.Context, blogIDFlag int64, rawID string) error {
	blogID, err := requireBlogID(blogIDFlag)
	if err != nil {
		return err
	}

	var articleID int64
	if _, err := fmt.Sscanf(rawID, "%d", &articleID); err != nil {
		return fmt.Errorf("invalid article ID %q", rawID)
	}

	remote, err := storeClient()
	if err != nil {
		return err
	}
	if err := remote.DeleteArticle(ctx, blogID, articleID); err != nil {
		return err
	}

	fmt.Printf("🗑️  Deleted article %d from blog %d\n", articleID, blogID)
	return nil
}
