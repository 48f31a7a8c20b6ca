package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"blogsmith/internal/logger"
	"blogsmith/internal/shopify"
)

// NewBlogsCmd creates the blog management command
func NewBlogsCmd() *cobra.Command {
	blogsCmd := &cobra.Command{
		Use:   "blogs",
		Short: "List and create store blogs",
	}

	blogsCmd.AddCommand(newBlogsListCmd())
	blogsCmd.AddCommand(newBlogsCreateCmd())

	return blogsCmd
}

func newBlogsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the blogs available on the store",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runBlogsList(cmd.Context()); err != nil {
				logger.Error("Failed to list blogs", err)
				os.Exit(1)
			}
		},
	}
}

func newBlogsCreateCmd() *cobra.Command {
	createCmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a new blog, optionally with a metafield",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			key, _ := cmd.Flags().GetString("metafield-key")
			value, _ := cmd.Flags().GetString("metafield-value")
			namespace, _ := cmd.Flags().GetString("metafield-namespace")
			if err := runBlogsCreate(cmd.Context(), args[0], key, value, namespace); err != nil {
				logger.Error("Failed to create blog", err)
				os.Exit(1)
			}
		},
	}

	createCmd.Flags().String("metafield-key", "", "Metafield key to attach to the blog")
	createCmd.Flags().String("metafield-value", "", "Metafield value")
	createCmd.Flags().String("metafield-namespace", "global", "Metafield namespace")
	return createCmd
}

func runBlogsList(ctx context.Context) error {
	remote, err := storeClient()
	if err != nil {
		return err
	}

	blogs, err := remote.ListBlogs(ctx)
	if err != nil {
		return err
	}
	if len(blogs) == 0 {
		fmt.Println("The store has no blogs.")
		return nil
	}

	for _, b := range blogs {
		fmt.Printf("%-12d %s\n", b.ID, b.Title)
	}
	return nil
}

func runBlogsCreate(ctx context.Context, title, key, value, namespace string) error {
	remote, err := storeClient()
	if err != nil {
		return err
	}

	var metafield *shopify.Metafield
	if key != "" {
		metafield = &shopify.Metafield{
			Key:       key,
			Value:     value,
			Type:      "single_line_text_field",
			Namespace: namespace,
		}
	}

	blog, err := remote.CreateBlog(ctx, title, metafield)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Created blog %d (%s)\n", blog.ID, blog.Title)
	return nil
}
