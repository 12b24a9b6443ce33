package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cancer-ai-portal/internal/domain"
	"github.com/cancer-ai-portal/internal/result"
	"github.com/cancer-ai-portal/internal/selector"
	"github.com/cancer-ai-portal/internal/upload"
)

var (
	predictCancer  string
	predictAIType  string
	predictDataset string
	showProgress   bool
)

// predictCmd walks the selector, uploads the CSV and prints the report
var predictCmd = &cobra.Command{
	Use:   "predict <file.csv>",
	Short: "Run a prediction on a local CSV dataset",
	Long: `predict applies the portal's selection rules to --cancer, --ai-type and
--dataset, uploads the file and prints the result summary.`,
	Args: cobra.MaximumNArgs(1),
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

		handoff, err := selectDataset(ctx, backend, feature)
		if err != nil {
			return err
		}

		sub := upload.Submission{
			Feature:    feature,
			CancerSlug: handoff.CancerSlug,
			DatasetKey: handoff.DatasetKey,
		}
		if len(args) == 1 {
			file, closer, err := upload.OpenLocal(args[0])
			if err != nil {
				return err
			}
			defer closer.Close()
			sub.File = file
		}

		ctrl := upload.NewController(backend, upload.Options{Timeout: cfg.UploadTimeout}, logger)
		if showProgress {
			updates, stop := ctrl.Watch()
			defer stop()
			go renderProgress(cmd.ErrOrStderr(), updates)
		}

		out, err := ctrl.Submit(ctx, sub)
		if err != nil {
			return err
		}
		if !out.Succeeded() {
			if ok, jerr := printJSON(cmd, out); ok && jerr != nil {
				return jerr
			}
			if out.Raw != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Raw response:\n%s\n", out.Raw)
			}
			return fmt.Errorf("%s", out.Message)
		}

		report, err := result.Build(&result.State{
			FeatureContext:   feature,
			PredictionResult: out.Result,
			CancerName:       handoff.CancerName,
			DatasetLabel:     handoff.DatasetLabel,
		})
		if err != nil {
			return err
		}
		if ok, err := printJSON(cmd, report); ok {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), report.Text())
		return nil
	},
}

// selectDataset drives a selector the way the portal page does and returns
// its handoff, or the first blocking message.
func selectDataset(ctx context.Context, backend domain.Backend, feature domain.FeatureContext) (*selector.Handoff, error) {
	sel := selector.New(selector.NewLoader(backend, feature, logger), logger)
	defer sel.Close()

	sel.Init(ctx)
	sel.SelectCancer(ctx, strings.TrimSpace(predictCancer))
	if predictAIType != "" {
		if err := sel.SelectFeature(strings.TrimSpace(predictAIType)); err != nil {
			return nil, err
		}
	}
	if predictDataset != "" {
		if err := sel.SelectDataset(strings.TrimSpace(predictDataset)); err != nil {
			return nil, err
		}
	}
	return sel.Continue()
}

func renderProgress(w io.Writer, updates <-chan upload.Snapshot) {
	for snap := range updates {
		if snap.Phase == upload.PhaseIdle {
			continue
		}
		fmt.Fprintf(w, "\r%-12s %6.1f%%", snap.Phase, snap.Percent)
		if snap.Done {
			fmt.Fprintln(w)
		}
	}
}

func init() {
	addFeatureFlag(predictCmd)
	predictCmd.Flags().StringVarP(&predictCancer, "cancer", "c", "", "Cancer slug")
	predictCmd.Flags().StringVarP(&predictAIType, "ai-type", "a", "", "AI data type, e.g. gene")
	predictCmd.Flags().StringVarP(&predictDataset, "dataset", "d", "", "Dataset key, e.g. gene37")
	predictCmd.Flags().BoolVar(&showProgress, "progress", false, "Show upload progress on stderr")
	rootCmd.AddCommand(predictCmd)
}
