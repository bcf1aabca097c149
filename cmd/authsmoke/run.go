package authsmoke

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/kamilpajak/authsmoke/internal/clerk"
	"github.com/kamilpajak/authsmoke/internal/config"
	"github.com/kamilpajak/authsmoke/internal/fixture"
	"github.com/kamilpajak/authsmoke/internal/registry"
	"github.com/kamilpajak/authsmoke/internal/session"
	"github.com/kamilpajak/authsmoke/internal/signin"
	"github.com/kamilpajak/authsmoke/internal/testmail"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	runEmail         string
	runRole          string
	runURL           string
	runFixture       bool
	runHeaded        bool
	runNoRecord      bool
	runTimeout       time.Duration
	runScreenshotDir string
	runJSON          bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sign-in smoke flow",
	Long: `Drive a browser through the sign-in flow with a test identity.

The identity comes from --email, or from the configured identities
(--role picks one). A testing token is minted automatically when a
secret key is available. The resulting session token is verified
against the instance's JWKS when clerk.frontend_api is configured.

Examples:
  authsmoke run --email user+clerk_test@example.com --url http://localhost:3000/sign-in
  authsmoke run --role admin
  authsmoke run --fixture`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runEmail, "email", "e", "", "Test email to sign in with (overrides config)")
	runCmd.Flags().StringVarP(&runRole, "role", "r", "", "Pick the configured identity with this role")
	runCmd.Flags().StringVarP(&runURL, "url", "u", "", "Sign-in page URL (overrides config)")
	runCmd.Flags().BoolVar(&runFixture, "fixture", false, "Run against the embedded fixture sign-in page")
	runCmd.Flags().BoolVar(&runHeaded, "headed", false, "Show the browser window")
	runCmd.Flags().BoolVar(&runNoRecord, "no-record", false, "Skip recording the run even when a database is configured")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Second, "How long to wait for the session")
	runCmd.Flags().StringVar(&runScreenshotDir, "screenshot-dir", "", "Capture a screenshot here on failure")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Output result as JSON")
}

// runReport is the JSON shape emitted with --json.
type runReport struct {
	Email          string `json:"email"`
	URL            string `json:"url"`
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
	DurationMs     int64  `json:"duration_ms"`
	SessionSubject string `json:"session_subject,omitempty"`
	SessionID      string `json:"session_id,omitempty"`
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	opts := signin.DefaultOptions()
	opts.Headless = !runHeaded
	opts.Timeout = runTimeout
	opts.ScreenshotDir = runScreenshotDir

	opts.Email = runEmail
	if opts.Email == "" {
		if identity := cfg.Identity(runRole); identity != nil {
			opts.Email = identity.Email
		}
	}

	var fixtureSrv *fixture.Server
	if runFixture {
		fixtureSrv, err = fixture.Start()
		if err != nil {
			return err
		}
		defer fixtureSrv.Stop()
		opts.URL = fixtureSrv.URL()
		if opts.Email == "" {
			opts.Email = "user+clerk_test@example.com"
		}
	} else {
		opts.URL = runURL
		if opts.URL == "" {
			opts.URL = cfg.App.SignInURL
		}
		if opts.URL == "" {
			return fmt.Errorf("no sign-in URL: set --url, app.sign_in_url, or AUTHSMOKE_SIGN_IN_URL")
		}
	}

	// Mint a testing token so the hosted flow is not blocked by bot
	// detection. The fixture has none, and without a secret key we just
	// proceed without one.
	if !runFixture && cfg.Clerk.SecretKey != "" {
		token, err := clerk.NewClient(cfg.Clerk.SecretKey).CreateTestingToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to mint testing token: %w", err)
		}
		opts.TestingToken = token.Token
	}

	stop := startSpinner(fmt.Sprintf(" signing in as %s", opts.Email))
	start := time.Now()
	result, runErr := signin.Run(opts)
	elapsed := time.Since(start)
	stop()

	report := runReport{
		Email:  opts.Email,
		URL:    opts.URL,
		Status: registry.RunPassed,
	}

	if runErr != nil {
		report.Status = registry.RunFailed
		report.Error = runErr.Error()
		report.DurationMs = elapsed.Milliseconds()
	} else {
		report.DurationMs = result.Duration.Milliseconds()

		if !runFixture && cfg.Clerk.FrontendAPI != "" {
			claims, err := verifySession(cfg.Clerk.FrontendAPI, result.SessionToken)
			if err != nil {
				report.Status = registry.RunFailed
				report.Error = fmt.Sprintf("session token verification failed: %v", err)
			} else {
				report.SessionSubject = claims.Subject
				report.SessionID = claims.SessionID
			}
		}
	}

	if !runNoRecord && !runFixture && recordable(cfg, report) {
		if err := recordRun(ctx, cfg, report); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to record run: %v\n", err)
		}
	}

	if runJSON {
		if err := json.NewEncoder(os.Stdout).Encode(report); err != nil {
			return err
		}
	} else {
		printRunReport(os.Stdout, report)
	}

	if report.Status != registry.RunPassed {
		return fmt.Errorf("sign-in smoke test failed")
	}
	return nil
}

func verifySession(frontendAPI, token string) (*session.Claims, error) {
	verifier, err := session.NewVerifier(frontendAPI)
	if err != nil {
		return nil, err
	}
	return verifier.Verify(token)
}

// recordable reports whether a run outcome belongs in the registry. Gate
// rejections never reached the provider and carry a non-test (or empty)
// address, which must not become an identities row.
func recordable(cfg *config.Config, report runReport) bool {
	return cfg.DatabaseURL != "" && testmail.IsTestEmail(report.Email)
}

func recordRun(ctx context.Context, cfg *config.Config, report runReport) error {
	if err := registry.Migrate(cfg.DatabaseURL); err != nil {
		return err
	}
	db, err := registry.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	identity, err := db.GetOrCreateIdentity(ctx, report.Email, testmail.Role(report.Email), "")
	if err != nil {
		return err
	}

	_, err = db.RecordRun(ctx, registry.RecordRunParams{
		IdentityID:     identity.ID,
		AppURL:         report.URL,
		Status:         report.Status,
		Error:          report.Error,
		Duration:       time.Duration(report.DurationMs) * time.Millisecond,
		SessionSubject: report.SessionSubject,
	})
	return err
}

// startSpinner shows a spinner on stderr while the browser runs, but only
// when stderr is a terminal. Returns a stop function.
func startSpinner(suffix string) func() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		fmt.Fprintf(os.Stderr, "%s...\n", suffix)
		return func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = suffix
	s.Start()
	return s.Stop
}

func printRunReport(w io.Writer, report runReport) {
	if report.Status == registry.RunPassed {
		green := color.New(color.FgGreen, color.Bold)
		_, _ = green.Fprint(w, "PASS")
	} else {
		red := color.New(color.FgRed, color.Bold)
		_, _ = red.Fprint(w, "FAIL")
	}

	fmt.Fprintf(w, "  %s → %s", report.Email, report.URL)
	fmt.Fprintf(w, "  (%dms)\n", report.DurationMs)

	if report.SessionSubject != "" {
		fmt.Fprintf(w, "  session: %s (sub=%s)\n", report.SessionID, report.SessionSubject)
	}
	if report.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", report.Error)
	}
}
