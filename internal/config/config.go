// Package config loads authsmoke configuration from a YAML file with
// environment-variable overrides. Environment always wins, so CI can inject
// secrets without touching the file.
package config

import (
	"fmt"
	"os"

	"github.com/kamilpajak/authsmoke/internal/testmail"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no --config flag is given.
const DefaultPath = "authsmoke.yaml"

// Config holds the full tool configuration.
type Config struct {
	Clerk       Clerk      `yaml:"clerk"`
	App         App        `yaml:"app"`
	DatabaseURL string     `yaml:"database_url"`
	Identities  []Identity `yaml:"identities"`
}

// Clerk holds provider credentials and addresses.
type Clerk struct {
	// SecretKey is the backend API key (sk_test_...). Never commit it;
	// use the CLERK_SECRET_KEY environment variable.
	SecretKey string `yaml:"secret_key"`
	// FrontendAPI is the instance's frontend API origin, e.g.
	// "https://healthy-gnu-42.clerk.accounts.dev". Used for JWKS.
	FrontendAPI string `yaml:"frontend_api"`
}

// App holds properties of the application under test.
type App struct {
	// SignInURL is the page the harness drives.
	SignInURL string `yaml:"sign_in_url"`
}

// Identity is a configured test identity.
type Identity struct {
	Email    string `yaml:"email"`
	Role     string `yaml:"role"`
	Password string `yaml:"password"`
}

// Load reads the config file at path (if it exists) and applies environment
// overrides. A missing file is not an error: everything can come from the
// environment.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// env-only configuration
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CLERK_SECRET_KEY"); v != "" {
		c.Clerk.SecretKey = v
	}
	if v := os.Getenv("CLERK_FRONTEND_API"); v != "" {
		c.Clerk.FrontendAPI = v
	}
	if v := os.Getenv("AUTHSMOKE_SIGN_IN_URL"); v != "" {
		c.App.SignInURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
}

// validate rejects configured identities that would trigger real
// verification delivery. Catching this at load time turns a confusing
// mid-run browser timeout into an upfront configuration error.
func (c *Config) validate() error {
	for _, identity := range c.Identities {
		if !testmail.IsTestEmail(identity.Email) {
			return fmt.Errorf(
				"configured identity %q is not a test email (missing %s tag in the local part)",
				identity.Email, testmail.Marker)
		}
	}
	return nil
}

// Identity returns the configured identity with the given role, or nil.
// An empty role returns the first identity.
func (c *Config) Identity(role string) *Identity {
	for i := range c.Identities {
		if role == "" || c.Identities[i].Role == role {
			return &c.Identities[i]
		}
	}
	return nil
}
