// Command portalctl drives the Cancer AI Portal flows from a terminal:
// browsing the catalog, running predictions on local CSV files, reading
// news and registering the MCP server with Claude Desktop.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cancer-ai-portal/internal/config"
	"github.com/cancer-ai-portal/internal/domain"
	"github.com/cancer-ai-portal/pkg/aiclient"
)

var (
	// Global flags
	backendURL string
	verbose    bool
	jsonOutput bool
	timeout    time.Duration

	cfg    *config.LiteConfig
	logger *logrus.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "portalctl",
	Short: "Command line client for the Cancer AI Portal",
	Long: `portalctl talks to the portal's AI backend directly.

It applies the same selection rules, upload validation and result
formatting as the web portal, so messages match what users see there.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.LoadLiteConfig()
		if backendURL != "" {
			cfg.BackendURL = backendURL
		}

		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logger.SetLevel(logrus.WarnLevel)
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "AI backend base URL (or set PORTAL_BACKEND_BASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print machine-readable JSON")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall command timeout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// commandContext is cancelled on SIGINT/SIGTERM or when --timeout expires
func commandContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// newBackend builds the cached, rate-limited backend client. The returned
// func releases the cache.
func newBackend() (domain.Backend, func(), error) {
	cache, err := aiclient.NewOptionCache(cfg.Cache(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create option cache: %w", err)
	}
	backendCfg := cfg.Backend()
	client := aiclient.NewResilientClient(aiclient.NewClient(backendCfg, logger), cache, backendCfg.CircuitBreaker, logger)
	return client, func() { _ = cache.Close() }, nil
}

func parseFeature(cmd *cobra.Command) (domain.FeatureContext, error) {
	value, _ := cmd.Flags().GetString("feature")
	return domain.ParseFeatureContext(value)
}

func addFeatureFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("feature", "f", string(domain.FeatureDiagnosis), "Feature context: diagnosis, prognosis or treatment")
}

// printJSON writes v when --json is set and reports whether it did
func printJSON(cmd *cobra.Command, v interface{}) (bool, error) {
	if !jsonOutput {
		return false, nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return true, enc.Encode(v)
}
