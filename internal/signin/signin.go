// Package signin drives a real browser through a Clerk-hosted sign-in flow
// using the provider's test-mode conventions: a test email address, the
// magic verification code, and an optional testing token to bypass bot
// detection.
package signin

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/kamilpajak/authsmoke/internal/testmail"
	"github.com/playwright-community/playwright-go"
)

// TestingTokenParam is the query parameter Clerk reads the testing token
// from.
const TestingTokenParam = "__clerk_testing_token"

// SessionCookie is the cookie Clerk sets once a session is established.
const SessionCookie = "__session"

// Selectors tried in order for the identifier and verification-code steps.
// Clerk's hosted components use the first entry of each list; the rest cover
// custom sign-in pages and the local fixture.
var (
	identifierSelectors = []string{
		"input[name='identifier']",
		"input[type='email']",
		"input[name='email']",
	}
	codeSelectors = []string{
		"input[autocomplete='one-time-code']",
		"input[name='code']",
	}
)

// Options configures a sign-in run.
type Options struct {
	// URL of the sign-in page.
	URL string
	// Email must match the test-email convention.
	Email string
	// Code overrides the magic verification code. Defaults to
	// testmail.MagicCode.
	Code string
	// TestingToken, when set, is appended to the sign-in URL so Clerk
	// skips bot detection.
	TestingToken string
	// Headless launches the browser without a window. Defaults to true
	// via DefaultOptions.
	Headless bool
	// Timeout bounds the wait for the session cookie.
	Timeout time.Duration
	// ScreenshotDir, when set, receives a PNG of the page on failure.
	ScreenshotDir string
}

// DefaultOptions returns Options with the defaults filled in.
func DefaultOptions() Options {
	return Options{
		Code:     testmail.MagicCode,
		Headless: true,
		Timeout:  30 * time.Second,
	}
}

// Result describes a completed sign-in run.
type Result struct {
	Email        string        `json:"email"`
	SessionToken string        `json:"-"`
	Duration     time.Duration `json:"duration"`
	Screenshot   string        `json:"screenshot,omitempty"`
}

// Run executes the sign-in flow. It fails before launching a browser when
// the email would not trigger the provider's verification bypass, since
// proceeding would send a real verification message.
func Run(opts Options) (*Result, error) {
	if err := gate(opts.Email); err != nil {
		return nil, err
	}
	if opts.Code == "" {
		opts.Code = testmail.MagicCode
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	target, err := buildURL(opts.URL, opts.TestingToken)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}
	defer pw.Stop() //nolint:errcheck // best-effort cleanup

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}
	defer browser.Close() //nolint:errcheck // best-effort cleanup

	browserCtx, err := browser.NewContext()
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("could not create page: %w", err)
	}

	token, err := drive(page, browserCtx, target, opts)
	if err != nil {
		shot := captureFailure(page, opts.ScreenshotDir)
		if shot != "" {
			return nil, fmt.Errorf("%w (screenshot: %s)", err, shot)
		}
		return nil, err
	}

	return &Result{
		Email:        opts.Email,
		SessionToken: token,
		Duration:     time.Since(start),
	}, nil
}

// gate rejects identities that would trigger real verification delivery.
func gate(email string) error {
	if email == "" {
		return fmt.Errorf("no email configured")
	}
	if !testmail.IsTestEmail(email) {
		return fmt.Errorf(
			"%s is not a test email: the local part must carry the %s tag, or the provider will send a real verification message",
			email, testmail.Marker)
	}
	return nil
}

// buildURL appends the testing token to the sign-in URL when present.
func buildURL(rawURL, testingToken string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid sign-in URL %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid sign-in URL %q: missing scheme or host", rawURL)
	}
	if testingToken != "" {
		q := u.Query()
		q.Set(TestingTokenParam, testingToken)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func drive(page playwright.Page, browserCtx playwright.BrowserContext, target string, opts Options) (string, error) {
	if _, err := page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return "", fmt.Errorf("could not navigate: %w", err)
	}

	identifier, err := firstVisible(page, identifierSelectors)
	if err != nil {
		return "", fmt.Errorf("sign-in form not found: %w", err)
	}
	if err := identifier.Fill(opts.Email); err != nil {
		return "", fmt.Errorf("could not fill identifier: %w", err)
	}
	if err := identifier.Press("Enter"); err != nil {
		return "", fmt.Errorf("could not submit identifier: %w", err)
	}

	code, err := firstVisible(page, codeSelectors)
	if err != nil {
		return "", fmt.Errorf("verification step not reached: %w", err)
	}
	// Hosted components render one input per digit; typing from the first
	// input advances focus automatically. A single input accepts the whole
	// code either way.
	if err := code.Click(); err != nil {
		return "", fmt.Errorf("could not focus code input: %w", err)
	}
	if err := page.Keyboard().Type(opts.Code); err != nil {
		return "", fmt.Errorf("could not enter verification code: %w", err)
	}

	return waitForSession(browserCtx, opts.Timeout)
}

// firstVisible returns the first selector from the list that resolves to a
// visible element, waiting briefly for each.
func firstVisible(page playwright.Page, selectors []string) (playwright.Locator, error) {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		for _, selector := range selectors {
			loc := page.Locator(selector).First()
			visible, err := loc.IsVisible()
			if err == nil && visible {
				return loc, nil
			}
		}
		page.WaitForTimeout(250) //nolint:staticcheck // polling interval
	}
	return nil, fmt.Errorf("none of %v became visible", selectors)
}

// waitForSession polls the browser context until the session cookie appears.
func waitForSession(browserCtx playwright.BrowserContext, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		cookies, err := browserCtx.Cookies()
		if err != nil {
			return "", fmt.Errorf("could not read cookies: %w", err)
		}
		for _, c := range cookies {
			if c.Name == SessionCookie && c.Value != "" {
				return c.Value, nil
			}
		}
		time.Sleep(250 * time.Millisecond)
	}
	return "", fmt.Errorf("session cookie %q not set within %s", SessionCookie, timeout)
}

func captureFailure(page playwright.Page, dir string) string {
	if dir == "" || page == nil {
		return ""
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ""
	}
	path := filepath.Join(dir, fmt.Sprintf("signin-failure-%d.png", time.Now().Unix()))
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		return ""
	}
	return path
}

// IsAvailable checks if playwright browsers are installed.
func IsAvailable() bool {
	pw, err := playwright.Run()
	if err != nil {
		return false
	}
	pw.Stop() //nolint:errcheck // best-effort cleanup
	return true
}

// Install installs playwright browsers.
func Install() error {
	return playwright.Install()
}
