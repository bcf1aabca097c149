// Package authsmoke implements the authsmoke CLI.
package authsmoke

import (
	"fmt"
	"os"

	"github.com/kamilpajak/authsmoke/internal/config"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "authsmoke",
	Short: "Sign-in smoke tests for Clerk-protected apps",
	Long: `Authsmoke drives a real browser through the sign-in flow of a
Clerk-protected application using the provider's test-mode conventions:
test email addresses (+clerk_test), the magic verification code, and
testing tokens that bypass bot detection.

No real verification email is ever sent: identities that would trigger
delivery are rejected before the browser starts.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to config file")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
