package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"carenest/internal/apperr"
	"carenest/internal/models"
	"carenest/internal/repository"
	"carenest/internal/security"
)

const minPasswordLength = 8

// AuthResult is returned by every successful sign in
type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// AuthService handles authentication business logic
type AuthService struct {
	users  *repository.UserRepository
	tokens *security.TokenManager
	logger *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users *repository.UserRepository, tokens *security.TokenManager, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a parent account and signs it in
func (s *AuthService) Register(ctx context.Context, fullName, email, password string) (*AuthResult, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalizeEmail(email)
	if fullName == "" || email == "" {
		return nil, apperr.Validation("full name and email are required")
	}
	if len(password) < minPasswordLength {
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLength)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Upstream("failed to check existing user", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("Email already registered")
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, apperr.Upstream("failed to hash password", err)
	}

	user := &models.User{FullName: fullName, Email: email, PasswordHash: hash, Role: models.RoleParent}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperr.Upstream("failed to create user", err)
	}
	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return s.issue(user)
}

// Login authenticates with email and password
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, apperr.Upstream("failed to get user", err)
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return nil, apperr.AccessDenied("Invalid email or password")
	}
	if !user.IsActive() {
		return nil, apperr.AccessDenied("Your account has been blocked")
	}
	return s.issue(user)
}

// OAuthLogin signs in an OAuth identity, linking it to an account with the
// same email or creating a parent account when none exists.
func (s *AuthService) OAuthLogin(ctx context.Context, provider, subject, email, name string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if subject == "" || email == "" {
		return nil, apperr.Validation("OAuth provider did not return an email address")
	}

	user, err := s.users.GetByOAuth(ctx, provider, subject)
	if err != nil {
		return nil, apperr.Upstream("failed to look up OAuth user", err)
	}

	if user == nil {
		user, err = s.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, apperr.Upstream("failed to look up user", err)
		}
		if user != nil {
			if err := s.users.LinkOAuth(ctx, user.ID, provider, subject); err != nil {
				return nil, apperr.Upstream("failed to link OAuth identity", err)
			}
		}
	}

	if user == nil {
		if strings.TrimSpace(name) == "" {
			name = email
		}
		user = &models.User{
			FullName:      strings.TrimSpace(name),
			Email:         email,
			Role:          models.RoleParent,
			OAuthProvider: provider,
			OAuthSubject:  subject,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, apperr.Upstream("failed to create user", err)
		}
		s.logger.Info("user registered via oauth", zap.Int64("user_id", user.ID), zap.String("provider", provider))
	}

	if !user.IsActive() {
		return nil, apperr.AccessDenied("Your account has been blocked")
	}
	return s.issue(user)
}

// Authenticate verifies a bearer token and returns the current actor. The
// role is re-read from the account so demotions and blocks apply at once.
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.Actor, error) {
	claimed, err := s.tokens.Parse(token)
	if err != nil {
		return models.Actor{}, apperr.AccessDenied("Invalid or expired token")
	}

	user, err := s.users.GetByID(ctx, claimed.ID)
	if err != nil {
		return models.Actor{}, apperr.Upstream("failed to load user", err)
	}
	if user == nil || !user.IsActive() {
		return models.Actor{}, apperr.AccessDenied("Invalid or expired token")
	}
	return models.Actor{ID: user.ID, Role: user.Role}, nil
}

// ChangePassword replaces the actor's password after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, actor models.Actor, current, next string) error {
	if len(next) < minPasswordLength {
		return apperr.Validation("password must be at least %d characters", minPasswordLength)
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return apperr.Upstream("failed to load user", err)
	}
	if user == nil {
		return apperr.NotFound("User not found")
	}
	if user.PasswordHash != "" && !security.CheckPassword(current, user.PasswordHash) {
		return apperr.AccessDenied("Current password is incorrect")
	}

	hash, err := security.HashPassword(next)
	if err != nil {
		return apperr.Upstream("failed to hash password", err)
	}
	return storeErr(s.users.UpdatePassword(ctx, actor.ID, hash), "update password", "User not found")
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperr.Upstream("failed to issue token", err)
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
