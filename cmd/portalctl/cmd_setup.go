package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cancer-ai-portal/internal/setup"
)

var (
	setupConfigPath string
	setupBinaryPath string
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Register the portal MCP server with desktop assistants",
}

var setupClaudeCmd = &cobra.Command{
	Use:   "claude-desktop",
	Short: "Add the portal MCP server to Claude Desktop's configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := setup.ConfigureClaudeDesktop(setup.Options{
			ConfigPath: setupConfigPath,
			BinaryPath: setupBinaryPath,
			BackendURL: cfg.BackendURL,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s in %s\nRestart Claude Desktop to load it.\n", setup.ServerKey, path)
		return nil
	},
}

var setupStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the Claude Desktop registration",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := setup.GetStatus(setupConfigPath)
		if err != nil {
			return err
		}
		if ok, err := printJSON(cmd, status); ok {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Config:     %s\n", status.ConfigPath)
		fmt.Fprintf(out, "Registered: %t\n", status.Registered)
		if status.Registered {
			fmt.Fprintf(out, "Command:    %s\n", status.Command)
			fmt.Fprintf(out, "Backend:    %s\n", status.BackendURL)
		}
		for _, issue := range status.Issues {
			fmt.Fprintf(out, "! %s\n", issue)
		}
		return nil
	},
}

func init() {
	setupCmd.PersistentFlags().StringVar(&setupConfigPath, "config", "", "Claude Desktop config path (default: platform location)")
	setupClaudeCmd.Flags().StringVar(&setupBinaryPath, "binary", "", "Path to the "+setup.BinaryName+" binary (default: search PATH)")
	setupCmd.AddCommand(setupClaudeCmd, setupStatusCmd)
	rootCmd.AddCommand(setupCmd)
}
