package session

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKID = "ins_test_key"

// newInstance stands up a fake Clerk frontend API serving a JWKS for the
// generated key, and returns the instance URL plus the signing key.
func newInstance(t *testing.T) (string, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwks := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": testKID,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/jwks.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwks)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv.URL, key
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKID
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestVerify_ValidToken(t *testing.T) {
	instance, key := newInstance(t)

	verifier, err := NewVerifier(instance)
	require.NoError(t, err)

	tokenString := signToken(t, key, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    instance,
			Subject:   "user_abc",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		SessionID:       "sess_123",
		AuthorizedParty: "http://localhost:3000",
	})

	claims, err := verifier.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user_abc", claims.Subject)
	assert.Equal(t, "sess_123", claims.SessionID)
	assert.Equal(t, "http://localhost:3000", claims.AuthorizedParty)
}

func TestVerify_ExpiredToken(t *testing.T) {
	instance, key := newInstance(t)

	verifier, err := NewVerifier(instance)
	require.NoError(t, err)

	tokenString := signToken(t, key, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    instance,
			Subject:   "user_abc",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	_, err = verifier.Verify(tokenString)
	assert.Error(t, err)
}

func TestVerify_WrongIssuer(t *testing.T) {
	instance, key := newInstance(t)

	verifier, err := NewVerifier(instance)
	require.NoError(t, err)

	tokenString := signToken(t, key, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://evil.example.com",
			Subject:   "user_abc",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})

	_, err = verifier.Verify(tokenString)
	assert.Error(t, err)
}

func TestVerify_MissingExpiry(t *testing.T) {
	instance, key := newInstance(t)

	verifier, err := NewVerifier(instance)
	require.NoError(t, err)

	tokenString := signToken(t, key, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:  instance,
			Subject: "user_abc",
		},
	})

	_, err = verifier.Verify(tokenString)
	assert.Error(t, err)
}

func TestVerify_Garbage(t *testing.T) {
	instance, _ := newInstance(t)

	verifier, err := NewVerifier(instance)
	require.NoError(t, err)

	_, err = verifier.Verify("not.a.jwt")
	assert.Error(t, err)
}
