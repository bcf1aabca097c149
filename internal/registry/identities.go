package registry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Identity is a provisioned test identity.
type Identity struct {
	ID          uuid.UUID
	Email       string
	Role        string
	ClerkUserID string
	CreatedAt   time.Time
}

// CreateIdentity records a test identity. The email must already be
// validated by the caller as matching the test convention.
func (db *DB) CreateIdentity(ctx context.Context, email, role, clerkUserID string) (*Identity, error) {
	var identity Identity
	err := db.pool.QueryRow(ctx,
		`INSERT INTO identities (email, role, clerk_user_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, email, role, clerk_user_id, created_at`,
		email, role, clerkUserID,
	).Scan(&identity.ID, &identity.Email, &identity.Role, &identity.ClerkUserID, &identity.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// GetIdentityByEmail retrieves an identity by email, or nil when absent.
func (db *DB) GetIdentityByEmail(ctx context.Context, email string) (*Identity, error) {
	var identity Identity
	err := db.pool.QueryRow(ctx,
		`SELECT id, email, role, clerk_user_id, created_at
		 FROM identities WHERE email = $1`,
		email,
	).Scan(&identity.ID, &identity.Email, &identity.Role, &identity.ClerkUserID, &identity.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// GetOrCreateIdentity returns the identity with the given email, creating it
// if necessary.
func (db *DB) GetOrCreateIdentity(ctx context.Context, email, role, clerkUserID string) (*Identity, error) {
	identity, err := db.GetIdentityByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if identity != nil {
		return identity, nil
	}
	return db.CreateIdentity(ctx, email, role, clerkUserID)
}

// ListIdentities returns all identities ordered by creation time.
func (db *DB) ListIdentities(ctx context.Context) ([]Identity, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, email, role, clerk_user_id, created_at
		 FROM identities ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var identities []Identity
	for rows.Next() {
		var identity Identity
		if err := rows.Scan(&identity.ID, &identity.Email, &identity.Role, &identity.ClerkUserID, &identity.CreatedAt); err != nil {
			return nil, err
		}
		identities = append(identities, identity)
	}
	return identities, rows.Err()
}

// UpdateIdentityClerkUserID stores the provider-side user ID after
// provisioning.
func (db *DB) UpdateIdentityClerkUserID(ctx context.Context, id uuid.UUID, clerkUserID string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE identities SET clerk_user_id = $1 WHERE id = $2`,
		clerkUserID, id,
	)
	return err
}

// DeleteIdentity deletes an identity and, via cascade, its runs.
func (db *DB) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`DELETE FROM identities WHERE id = $1`,
		id,
	)
	return err
}
