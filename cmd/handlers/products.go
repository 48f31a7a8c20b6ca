package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"blogsmith/internal/core"
	"blogsmith/internal/logger"
	"blogsmith/internal/retry"
	"blogsmith/internal/shopify"
	"blogsmith/internal/store"
)

// NewProductsCmd creates the product catalog command
func NewProductsCmd() *cobra.Command {
	productsCmd := &cobra.Command{
		Use:   "products",
		Short: "Inspect and sync the store product catalog",
	}

	productsCmd.AddCommand(newProductsSyncCmd())
	productsCmd.AddCommand(newProductsCountCmd())
	productsCmd.AddCommand(newProductsListCmd())

	return productsCmd
}

func newProductsSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch every product from the store into the local cache",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runProductsSync(cmd.Context()); err != nil {
				logger.Error("Failed to sync products", err)
				os.Exit(1)
			}
		},
	}
}

func newProductsCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show the store's product count",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runProductsCount(cmd.Context()); err != nil {
				logger.Error("Failed to count products", err)
				os.Exit(1)
			}
		},
	}
}

func newProductsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached products",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runProductsList(); err != nil {
				logger.Error("Failed to list products", err)
				os.Exit(1)
			}
		},
	}
}

func runProductsSync(ctx context.Context) error {
	remote, err := storeClient()
	if err != nil {
		return err
	}

	fmt.Println("🔄 Syncing product catalog...")
	products, err := retry.DoWithBackoff(ctx, func(ctx context.Context) ([]core.Product, error) {
		return remote.AllProducts(ctx)
	}, remoteWriteAttempts, retry.DefaultRemoteSchedule, shopify.IsNetworkError)
	if err != nil {
		return fmt.Errorf("failed to fetch products: %w", err)
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

	if err := cacheStore.UpsertProducts(products); err != nil {
		return fmt.Errorf("failed to cache products: %w", err)
	}

	fmt.Printf("✅ Synced %d products\n", len(products))
	return nil
}

func runProductsCount(ctx context.Context) error {
	remote, err := storeClient()
	if err != nil {
		return err
	}

	count, err := remote.CountProducts(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("🛍️  Store has %d products\n", count)
	return nil
}

func runProductsList() error {
	cacheStore, err := store.NewStore(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize cache store: %w", err)
	}
	defer func() {
		if err := cacheStore.Close(); err != nil {
			logger.Error("Failed to close cache store", err)
		}
	}()

	products, err := cacheStore.ListProducts()
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Println("No cached products. Run `blogsmith products sync` first.")
		return nil
	}

	for _, p := range products {
		fmt.Printf("%-12d %-40s %s\n", p.ID, p.Handle, p.Title)
	}
	fmt.Printf("\n%d products cached\n", len(products))
	return nil
}
