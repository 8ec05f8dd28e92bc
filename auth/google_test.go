package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newGoogleTestServer(t *testing.T, aud string, user GoogleUser) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/v3/tokeninfo":
			_ = json.NewEncoder(w).Encode(map[string]string{"aud": aud, "sub": user.ID})
		case "/oauth2/v2/userinfo":
			_ = json.NewEncoder(w).Encode(user)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestGoogleVerifier(t *testing.T) {
	server := newGoogleTestServer(t, "client-123", GoogleUser{
		ID:    "g-1",
		Email: "pilot@example.com",
		Name:  "Test Pilot",
	})
	defer server.Close()

	v := NewGoogleVerifier("client-123")
	v.base = server.URL

	user, err := v.Verify(context.Background(), "token")
	assert.NoError(t, err)
	assert.Equal(t, "g-1", user.ID)
	assert.Equal(t, "pilot@example.com", user.Email)
}

func TestGoogleVerifierWrongAudience(t *testing.T) {
	server := newGoogleTestServer(t, "someone-else", GoogleUser{ID: "g-1", Email: "pilot@example.com"})
	defer server.Close()

	v := NewGoogleVerifier("client-123")
	v.base = server.URL

	_, err := v.Verify(context.Background(), "token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGoogleVerifierEndpointDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	v := NewGoogleVerifier("client-123")
	v.base = server.URL

	_, err := v.Verify(context.Background(), "token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGoogleVerifierMissingProfileData(t *testing.T) {
	server := newGoogleTestServer(t, "client-123", GoogleUser{ID: "g-1"})
	defer server.Close()

	v := NewGoogleVerifier("client-123")
	v.base = server.URL

	_, err := v.Verify(context.Background(), "token")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
