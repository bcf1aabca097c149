package authsmoke

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kamilpajak/authsmoke/internal/clerk"
	"github.com/spf13/cobra"
)

var tokenFormat string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a testing token",
	Long: `Mint a short-lived testing token from the Clerk backend API.

The token bypasses the provider's bot-detection heuristics when appended
to the sign-in URL as __clerk_testing_token. Requires CLERK_SECRET_KEY
(or clerk.secret_key in the config file).

Examples:
  authsmoke token
  authsmoke token --format json`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVarP(&tokenFormat, "format", "f", "text", "Output format (text, json)")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := clerk.NewClient(cfg.Clerk.SecretKey)
	token, err := client.CreateTestingToken(context.Background())
	if err != nil {
		return fmt.Errorf("failed to mint testing token: %w", err)
	}

	if tokenFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(token)
	}

	// Token only on stdout so it can be captured in shell scripts.
	fmt.Println(token.Token)
	return nil
}
