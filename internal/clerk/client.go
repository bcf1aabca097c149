// Package clerk is a minimal client for the Clerk backend API, covering the
// operations a sign-in smoke test needs: provisioning test users and minting
// testing tokens.
package clerk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"golang.org/x/time/rate"
)

// Client handles Clerk backend API interactions.
type Client struct {
	secretKey  string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// DefaultBaseURL is the production Clerk backend API origin.
const DefaultBaseURL = "https://api.clerk.com/v1"

// NewClient creates a new Clerk backend API client. If secretKey is empty,
// CLERK_SECRET_KEY is used.
func NewClient(secretKey string) *Client {
	return NewClientWithBaseURL(secretKey, DefaultBaseURL)
}

// NewClientWithBaseURL creates a client against a non-default API origin,
// e.g. an httptest server in tests.
func NewClientWithBaseURL(secretKey, baseURL string) *Client {
	if secretKey == "" {
		secretKey = os.Getenv("CLERK_SECRET_KEY")
	}
	return &Client{
		secretKey:  secretKey,
		httpClient: &http.Client{},
		baseURL:    baseURL,
		// Clerk rate-limits the backend API; stay well under the
		// documented 100 req / 10 s window.
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}
}

// TestingToken is a short-lived credential that bypasses Clerk's bot
// detection during automated testing.
type TestingToken struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// User represents a Clerk user.
type User struct {
	ID             string         `json:"id"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
	CreatedAt      int64          `json:"created_at"`
}

// EmailAddress is one of a user's email addresses.
type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// PrimaryEmail returns the user's first email address, or "".
func (u *User) PrimaryEmail() string {
	if len(u.EmailAddresses) == 0 {
		return ""
	}
	return u.EmailAddresses[0].EmailAddress
}

// CreateTestingToken mints a testing token for the instance.
func (c *Client) CreateTestingToken(ctx context.Context) (*TestingToken, error) {
	var token TestingToken
	if err := c.doRequest(ctx, "POST", "/testing_tokens", nil, &token); err != nil {
		return nil, err
	}
	if token.Token == "" {
		return nil, fmt.Errorf("testing token response was empty")
	}
	return &token, nil
}

// CreateUserParams holds the fields for creating a test user.
type CreateUserParams struct {
	EmailAddress string
	Password     string
}

// CreateUser creates a user. The caller is responsible for only creating
// addresses that match the test-email convention; Clerk itself accepts any
// address here and will send real mail to non-test ones during sign-in.
func (c *Client) CreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	body := map[string]any{
		"email_address": []string{params.EmailAddress},
	}
	if params.Password != "" {
		body["password"] = params.Password
	}

	var user User
	if err := c.doRequest(ctx, "POST", "/users", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser fetches a user by ID.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	var user User
	if err := c.doRequest(ctx, "GET", "/users/"+url.PathEscape(userID), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers fetches users filtered by email address. An empty email lists
// the most recent users.
func (c *Client) ListUsers(ctx context.Context, email string) ([]User, error) {
	path := "/users"
	if email != "" {
		path += "?email_address=" + url.QueryEscape(email)
	}

	var users []User
	if err := c.doRequest(ctx, "GET", path, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteUser deletes a user by ID.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.doRequest(ctx, "DELETE", "/users/"+url.PathEscape(userID), nil, nil)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Clerk API error: %s - %s", resp.Status, string(respBody))
	}

	if result == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}
