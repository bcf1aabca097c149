package authsmoke

import (
	"context"
	"fmt"
	"os"

	"github.com/kamilpajak/authsmoke/internal/clerk"
	"github.com/kamilpajak/authsmoke/internal/registry"
	"github.com/kamilpajak/authsmoke/internal/testmail"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Provision configured test identities in Clerk",
	Long: `Create the test identities listed in the config file in the Clerk
instance. Identities that already exist are left alone. When a database
is configured, identities are also recorded for run bookkeeping.

Only addresses matching the test-email convention are accepted; the
config loader rejects anything else before this command runs.`,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Identities) == 0 {
		return fmt.Errorf("no identities configured in %s", configPath)
	}

	ctx := context.Background()
	client := clerk.NewClient(cfg.Clerk.SecretKey)

	var db *registry.DB
	if cfg.DatabaseURL != "" {
		if err := registry.Migrate(cfg.DatabaseURL); err != nil {
			return err
		}
		db, err = registry.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	for _, identity := range cfg.Identities {
		userID, err := seedIdentity(ctx, client, identity.Email, identity.Password)
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", identity.Email, err)
		}

		if db != nil {
			role := identity.Role
			if role == "" {
				role = testmail.Role(identity.Email)
			}
			rec, err := db.GetOrCreateIdentity(ctx, identity.Email, role, userID)
			if err != nil {
				return fmt.Errorf("failed to record %s: %w", identity.Email, err)
			}
			if rec.ClerkUserID != userID {
				if err := db.UpdateIdentityClerkUserID(ctx, rec.ID, userID); err != nil {
					return fmt.Errorf("failed to record %s: %w", identity.Email, err)
				}
			}
		}
	}

	fmt.Fprintf(os.Stderr, "Seeded %d identities\n", len(cfg.Identities))
	return nil
}

// seedIdentity creates the user unless it already exists, returning the
// provider-side user ID either way.
func seedIdentity(ctx context.Context, client *clerk.Client, email, password string) (string, error) {
	existing, err := client.ListUsers(ctx, email)
	if err != nil {
		return "", err
	}
	if len(existing) > 0 {
		fmt.Fprintf(os.Stderr, "  %s already exists (%s)\n", email, existing[0].ID)
		return existing[0].ID, nil
	}

	user, err := client.CreateUser(ctx, clerk.CreateUserParams{
		EmailAddress: email,
		Password:     password,
	})
	if err != nil {
		return "", err
	}

	fmt.Fprintf(os.Stderr, "  created %s (%s)\n", email, user.ID)
	return user.ID, nil
}
