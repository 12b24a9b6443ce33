package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cancer-ai-portal/internal/news"
)

var newsCategory string

// newsCmd lists articles, or shows one when an id is given
var newsCmd = &cobra.Command{
	Use:   "news [id]",
	Short: "List news articles or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, release, err := newBackend()
		if err != nil {
			return err
		}
		defer release()

		ctx, cancel := commandContext()
		defer cancel()

		service := news.NewService(backend, cfg.BackendURL, logger)
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			article, err := service.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if ok, err := printJSON(cmd, article); ok {
				return err
			}
			fmt.Fprintf(out, "%s\n%s | %s\n\n%s\n", article.Title, article.Category, article.CreatedAt, article.Body)
			return nil
		}

		listing, err := service.List(ctx, newsCategory)
		if err != nil {
			return err
		}
		if ok, err := printJSON(cmd, listing); ok {
			return err
		}
		fmt.Fprintf(out, "Categories: %s\n", strings.Join(listing.Categories, ", "))
		if len(listing.Articles) == 0 {
			fmt.Fprintln(out, "No articles in this category.")
		}
		for _, a := range listing.Articles {
			fmt.Fprintf(out, "[%d] %s (%s)\n", a.ID, a.Title, a.Category)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which prediction models the AI backend has loaded",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, release, err := newBackend()
		if err != nil {
			return err
		}
		defer release()

		ctx, cancel := commandContext()
		defer cancel()

		status, err := backend.Status(ctx)
		if err != nil {
			return err
		}
		if ok, err := printJSON(cmd, status); ok {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Status: %s (%d/%d models loaded)\n", status.Status, status.ModelsLoaded, status.ModelsTotal)
		for _, m := range status.Models {
			state := "not loaded"
			if m.Loaded {
				state = "loaded"
			}
			fmt.Fprintf(out, "  %-28s %-20s %s\n", m.ModelName, m.CancerType, state)
		}
		return nil
	},
}

func init() {
	newsCmd.Flags().StringVar(&newsCategory, "category", "", "Category filter, case-insensitive")
	rootCmd.AddCommand(newsCmd, statusCmd)
}
