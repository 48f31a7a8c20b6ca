package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"blogsmith/internal/logger"
)

// NewShopCmd creates the shop metadata command
func NewShopCmd() *cobra.Command {
	shopCmd := &cobra.Command{
		Use:   "shop",
		Short: "Inspect store metadata",
	}

	shopCmd.AddCommand(newShopInfoCmd())
	shopCmd.AddCommand(newShopSitemapCmd())

	return shopCmd
}

func newShopInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the store's own metadata record",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runShopInfo(cmd.Context()); err != nil {
				logger.Error("Failed to get shop info", err)
				os.Exit(1)
			}
		},
	}
}

func newShopSitemapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sitemap",
		Short: "List product pages from the store sitemap",
		Long: `Read the storefront sitemap index, follow its product sub-sitemaps
and print each product page URL with its image, when one is declared.`,
		Run: func(cmd *cobra.Command, args []string) {
			if err := runShopSitemap(cmd.Context()); err != nil {
				logger.Error("Failed to read sitemap", err)
				os.Exit(1)
			}
		},
	}
}

func runShopInfo(ctx context.Context) error {
	remote, err := storeClient()
	if err != nil {
		return err
	}

	shop, err := remote.ShopInfo(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("🏪 %s\n", shop.Name)
	fmt.Printf("   Domain:          %s\n", shop.Domain)
	fmt.Printf("   Platform domain: %s\n", shop.MyshopifyDomain)
	return nil
}

func runShopSitemap(ctx context.Context) error {
	remote, err := storeClient()
	if err != nil {
		return err
	}

	entries, err := remote.AllSitemapProducts(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("The sitemap lists no product pages.")
		return nil
	}

	for _, entry := range entries {
		if entry.ImageURL != "" {
			fmt.Printf("%s\n    image: %s\n", entry.URL, entry.ImageURL)
		} else {
			fmt.Println(entry.URL)
		}
	}
	fmt.Printf("\n%d product pages\n", len(entries))
	return nil
}
