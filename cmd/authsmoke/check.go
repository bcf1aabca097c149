package authsmoke

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/kamilpajak/authsmoke/internal/testmail"
	"github.com/spf13/cobra"
)

var checkFormat string

var checkCmd = &cobra.Command{
	Use:   "check <email>",
	Short: "Check whether an email address is a test identity",
	Long: `Check whether an email address matches Clerk's test-email convention
and would trigger the verification bypass.

Exits non-zero when the address is not a test identity, so CI can gate
on it before running browser flows.

Examples:
  authsmoke check user+clerk_test@example.com
  authsmoke check admin+clerk_test_admin@example.com --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text, json)")
}

type checkResult struct {
	Email     string `json:"email"`
	TestEmail bool   `json:"test_email"`
	Role      string `json:"role,omitempty"`
	MagicCode string `json:"magic_code,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	result := classify(args[0])

	if checkFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printCheckResult(os.Stdout, result)
	}

	if !result.TestEmail {
		return fmt.Errorf("%s is not a test email", result.Email)
	}
	return nil
}

func classify(email string) checkResult {
	result := checkResult{
		Email:     email,
		TestEmail: testmail.IsTestEmail(email),
	}
	if result.TestEmail {
		result.Role = testmail.Role(email)
		result.MagicCode = testmail.MagicCode
	}
	return result
}

func printCheckResult(w io.Writer, result checkResult) {
	if result.TestEmail {
		green := color.New(color.FgGreen, color.Bold)
		_, _ = green.Fprint(w, "TEST EMAIL")
		fmt.Fprintf(w, "  %s\n", result.Email)
		if result.Role != "" {
			fmt.Fprintf(w, "  role: %s\n", result.Role)
		}
		fmt.Fprintf(w, "  magic code: %s\n", result.MagicCode)
		return
	}

	red := color.New(color.FgRed, color.Bold)
	_, _ = red.Fprint(w, "NOT A TEST EMAIL")
	fmt.Fprintf(w, "  %s\n", result.Email)
	fmt.Fprintf(w, "  the local part must contain %q before the @\n", testmail.Marker)
}
