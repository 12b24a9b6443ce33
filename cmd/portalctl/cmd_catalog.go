package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cancer-ai-portal/internal/selector"
)

// cancersCmd lists the cancer types for a feature context
var cancersCmd = &cobra.Command{
	Use:   "cancers",
	Short: "List cancer types offered for a feature context",
	RunE: func(cmd *cobra.Command, args []string) error {
		feature, err := parseFeature(cmd)
		if err != nil {
			return err
		}
		backend, release, err := newBackend()
		if err != nil {
			return err
		}
		defer release()

		ctx, cancel := commandContext()
		defer cancel()

		cancers := selector.NewLoader(backend, feature, logger).LoadCancers(ctx)
		if ok, err := printJSON(cmd, cancers); ok {
			return err
		}

		out := cmd.OutOrStdout()
		if len(cancers) == 0 {
			fmt.Fprintf(out, "No cancer types available for %s.\n", feature.Title())
			return nil
		}
		for _, c := range cancers {
			fmt.Fprintf(out, "%-30s %s\n", c.Slug, c.Name)
		}
		return nil
	},
}

// optionsCmd lists the AI data types and datasets for one cancer
var optionsCmd = &cobra.Command{
	Use:   "options <cancer-slug>",
	Short: "List AI data types and datasets for a cancer type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		feature, err := parseFeature(cmd)
		if err != nil {
			return err
		}
		backend, release, err := newBackend()
		if err != nil {
			return err
		}
		defer release()

		ctx, cancel := commandContext()
		defer cancel()

		rows, detail := selector.NewLoader(backend, feature, logger).LoadOptions(ctx, args[0])
		if ok, err := printJSON(cmd, map[string]interface{}{"detail": detail, "options": rows}); ok {
			return err
		}

		out := cmd.OutOrStdout()
		if detail != nil && detail.Description != "" {
			fmt.Fprintf(out, "%s\n\n", detail.Description)
		}
		features := selector.DistinctFeatures(rows)
		if len(features) == 0 {
			fmt.Fprintf(out, "No AI features available for %s.\n", args[0])
			return nil
		}
		for _, f := range features {
			fmt.Fprintf(out, "%s (%s)\n", selector.FeatureLabel(f), f)
			for _, d := range selector.DatasetsFor(rows, f) {
				fmt.Fprintf(out, "  %-20s %s\n", d.Key, d.Label)
			}
		}
		return nil
	},
}

func init() {
	addFeatureFlag(cancersCmd)
	addFeatureFlag(optionsCmd)
	rootCmd.AddCommand(cancersCmd, optionsCmd)
}
