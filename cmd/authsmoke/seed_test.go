package authsmoke

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kamilpajak/authsmoke/internal/clerk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTestClient(t *testing.T, handler http.Handler) *clerk.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return clerk.NewClientWithBaseURL("sk_test_secret", srv.URL)
}

func TestSeedIdentity_CreatesMissingUser(t *testing.T) {
	created := false
	client := seedTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users", r.URL.Path)

		switch r.Method {
		case "GET":
			assert.Equal(t, "user+clerk_test@example.com", r.URL.Query().Get("email_address"))
			_, _ = w.Write([]byte(`[]`))
		case "POST":
			created = true
			var body struct {
				EmailAddress []string `json:"email_address"`
				Password     string   `json:"password"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, []string{"user+clerk_test@example.com"}, body.EmailAddress)
			assert.Equal(t, "hunter2hunter2", body.Password)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "user_new"})
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))

	userID, err := seedIdentity(context.Background(), client, "user+clerk_test@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "user_new", userID)
	assert.True(t, created)
}

func TestSeedIdentity_SkipsExistingUser(t *testing.T) {
	client := seedTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("existing user must not be re-created, got %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"user_abc"}]`))
	}))

	userID, err := seedIdentity(context.Background(), client, "user+clerk_test@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "user_abc", userID)
}

func TestSeedIdentity_ListError(t *testing.T) {
	client := seedTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"invalid secret key"}]}`))
	}))

	_, err := seedIdentity(context.Background(), client, "user+clerk_test@example.com", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
