package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"carenest/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService          *service.AuthService
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
	logger               *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
		logger:               logger,
	}
}

type registerRequest struct {
	FullName string `json:"fullName" validate:"required,notblank,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

// Register creates a parent account
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	result, err := h.authService.Register(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusCreated, "Registered successfully", result)
}

// Login handles email and password sign in
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "Logged in successfully", result)
}

// ChangePassword replaces the caller's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	actor := GetActorFromContext(r.Context())
	if err := h.authService.ChangePassword(r.Context(), actor, req.CurrentPassword, req.NewPassword); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithMessage(w, http.StatusOK, "Password updated")
}
