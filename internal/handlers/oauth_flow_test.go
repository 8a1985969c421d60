package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"carenest/internal/database"
	"carenest/internal/repository"
	"carenest/internal/security"
	"carenest/internal/service"
)

func newFakeProvider(t *testing.T) OAuthProvider {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "abc", "token_type": "Bearer", "expires_in": 3600})
	})
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "g-42", "email": "Oauth@Example.com", "name": "OAuth Parent"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return OAuthProvider{
		Name:  "google",
		Label: "Google",
		Config: &oauth2.Config{
			ClientID:     "client",
			ClientSecret: "secret",
			Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
		},
		UserInfoURL: srv.URL + "/me",
	}
}

func newOAuthHandler(t *testing.T, providers map[string]OAuthProvider) *AuthHandler {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "oauth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.RunMigrations(context.Background(), "../../migrations")
	require.NoError(t, err)

	auth := service.NewAuthService(repository.NewUserRepository(db), security.NewTokenManager("secret", time.Hour), zap.NewNop())
	return NewAuthHandler(auth, providers, "https://carenest.test/", zap.NewNop())
}

func TestListOAuthProviders(t *testing.T) {
	h := newOAuthHandler(t, map[string]OAuthProvider{
		"google":   newFakeProvider(t),
		"facebook": {Name: "facebook", Label: "Facebook", Config: &oauth2.Config{}},
	})

	rec := httptest.NewRecorder()
	h.ListOAuthProviders(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/providers", nil))

	var body struct {
		Data []oauthProviderView `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "google", body.Data[0].Name)
	assert.Equal(t, "/api/v1/auth/google/start", body.Data[0].URL)
}

func TestOAuthFlow(t *testing.T) {
	h := newOAuthHandler(t, map[string]OAuthProvider{"google": newFakeProvider(t)})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil)
	req.SetPathValue("provider", "google")
	rec := httptest.NewRecorder()
	h.StartOAuth(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "https://carenest.test/api/v1/auth/google/callback", location.Query().Get("redirect_uri"))
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"missing code", "?state=" + state, http.StatusBadRequest},
		{"state mismatch", "?code=xyz&state=forged", http.StatusBadRequest},
		{"success", "?code=xyz&state=" + state, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback"+tt.query, nil)
			req.SetPathValue("provider", "google")
			for _, c := range cookies {
				req.AddCookie(c)
			}
			rec := httptest.NewRecorder()
			h.OAuthCallback(rec, req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			if tt.status != http.StatusOK {
				return
			}
			var body struct {
				Data service.AuthResult `json:"data"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body.Data.Token)
			assert.Equal(t, "oauth@example.com", body.Data.User.Email)
		})
	}
}

func TestStartOAuthUnknownProvider(t *testing.T) {
	h := newOAuthHandler(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/apple/start", nil)
	req.SetPathValue("provider", "apple")
	rec := httptest.NewRecorder()
	h.StartOAuth(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
