/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"blogsmith/internal/config"
	"blogsmith/internal/logger"
	"blogsmith/internal/shopify"
)

var (
	cfgFile string
	cfg     *config.Config
)

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "blogsmith",
		Short: "Blogsmith generates and publishes product blog articles for a store.",
		Long: `Blogsmith is a CLI tool that writes marketing blog articles about
store products with a generative model, validates the output against
strict JSON contracts, assembles it into publishable HTML, and manages
the article and product catalog of a Shopify-style store.`,
	}

	// Initialize configuration
	cobra.OnInitialize(initConfig)

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.blogsmith.yaml)")

	// Add subcommands
	rootCmd.AddCommand(NewGenerateCmd())
	rootCmd.AddCommand(NewProductsCmd())
	rootCmd.AddCommand(NewArticlesCmd())
	rootCmd.AddCommand(NewBlogsCmd())
	rootCmd.AddCommand(NewShopCmd())
	rootCmd.AddCommand(NewCostCmd())
	rootCmd.AddCommand(NewCacheCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	cfg = loaded

	level := cfg.App.LogLevel
	if cfg.App.Debug {
		level = "debug"
	}
	logger.Init(level)
}

// storeClient builds the remote store client from the loaded config.
func storeClient() (*shopify.Client, error) {
	if cfg.Store.URL == "" || cfg.Store.AccessToken == "" {
		return nil, fmt.Errorf("store.url and store.access_token must be configured (or set SHOPIFY_STORE_URL and SHOPIFY_ACCESS_TOKEN)")
	}
	return shopify.New(cfg.Store.URL, cfg.Store.AccessToken,
		shopify.WithRequestInterval(cfg.Fetch.Interval()),
		shopify.WithLogger(logger.Get()),
	), nil
}

// requireBlogID resolves the blog ID from a flag value or the config.
func requireBlogID(flagValue int64) (int64, error) {
	if flagValue != 0 {
		return flagValue, nil
	}
	if cfg.Store.BlogID != 0 {
		return cfg.Store.BlogID, nil
	}
	return 0, fmt.Errorf("no blog ID given: pass --blog-id or set store.blog_id")
}
