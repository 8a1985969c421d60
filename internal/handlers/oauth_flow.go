package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"carenest/internal/apperr"
	"carenest/internal/security"
)

const (
	oauthStateCookie    = "oauth_state"
	oauthProviderCookie = "oauth_provider"
	oauthCookieTTL      = 10 * time.Minute
)

// OAuthProvider defines provider configuration and metadata
type OAuthProvider struct {
	Name        string
	Label       string
	Config      *oauth2.Config
	UserInfoURL string
}

func (p OAuthProvider) configured() bool {
	return p.Config != nil && p.Config.ClientID != "" && p.Config.ClientSecret != ""
}

type oauthUserInfo struct {
	Subject string
	Email   string
	Name    string
}

type oauthProviderView struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// ListOAuthProviders reports the configured sign-in providers
func (h *AuthHandler) ListOAuthProviders(w http.ResponseWriter, r *http.Request) {
	views := []oauthProviderView{}
	for key, provider := range h.oauthProviders {
		if !provider.configured() {
			continue
		}
		views = append(views, oauthProviderView{
			Name:  key,
			Label: provider.Label,
			URL:   fmt.Sprintf("/api/v1/auth/%s/start", key),
		})
	}
	respondWithData(w, http.StatusOK, "", views)
}

// StartOAuth initiates the OAuth flow for a provider
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok || !provider.configured() {
		respondWithError(w, r, h.logger, apperr.Validation("OAuth provider not configured"))
		return
	}

	state := security.NewStateToken()
	http.SetCookie(w, security.TempCookie(r, oauthStateCookie, state, oauthCookieTTL))
	http.SetCookie(w, security.TempCookie(r, oauthProviderCookie, providerKey, oauthCookieTTL))

	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(r, providerKey)

	http.Redirect(w, r, config.AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusFound)
}

// OAuthCallback exchanges the authorization code and signs the user in
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok || !provider.configured() {
		respondWithError(w, r, h.logger, apperr.Validation("OAuth provider not configured"))
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if code == "" {
		respondWithError(w, r, h.logger, apperr.Validation("Missing authorization code"))
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		respondWithError(w, r, h.logger, apperr.Validation("Invalid OAuth state"))
		return
	}
	if providerCookie, err := r.Cookie(oauthProviderCookie); err == nil && providerCookie.Value != providerKey {
		respondWithError(w, r, h.logger, apperr.Validation("OAuth provider mismatch"))
		return
	}

	http.SetCookie(w, security.DeleteCookie(r, oauthStateCookie))
	http.SetCookie(w, security.DeleteCookie(r, oauthProviderCookie))

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(r, providerKey)

	token, err := config.Exchange(ctx, code)
	if err != nil {
		h.logger.Warn("oauth code exchange failed", zap.String("provider", providerKey), zap.Error(err))
		respondWithError(w, r, h.logger, apperr.Validation("Failed to exchange OAuth code"))
		return
	}

	info, err := fetchOAuthUserInfo(ctx, provider, token)
	if err != nil {
		h.logger.Warn("oauth user info failed", zap.String("provider", providerKey), zap.Error(err))
		respondWithError(w, r, h.logger, apperr.Validation("Failed to fetch %s profile", provider.Label))
		return
	}

	result, err := h.authService.OAuthLogin(r.Context(), providerKey, info.Subject, info.Email, info.Name)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "Logged in successfully", result)
}

// fetchOAuthUserInfo reads the profile endpoint. Google and Facebook both
// answer with id, email and name.
func fetchOAuthUserInfo(ctx context.Context, provider OAuthProvider, token *oauth2.Token) (oauthUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(provider.UserInfoURL)
	if err != nil {
		return oauthUserInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oauthUserInfo{}, fmt.Errorf("user info returned status %d", resp.StatusCode)
	}

	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to parse user info: %w", err)
	}
	return oauthUserInfo{Subject: payload.ID, Email: payload.Email, Name: payload.Name}, nil
}

func (h *AuthHandler) oauthRedirectURL(r *http.Request, providerKey string) string {
	baseURL := strings.TrimSpace(h.oauthRedirectBaseURL)
	if baseURL == "" {
		scheme := "http"
		if security.IsSecureRequest(r) {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	return fmt.Sprintf("%s/api/v1/auth/%s/callback", strings.TrimRight(baseURL, "/"), providerKey)
}
