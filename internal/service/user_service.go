package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"carenest/internal/access"
	"carenest/internal/apperr"
	"carenest/internal/credentials"
	"carenest/internal/models"
	"carenest/internal/repository"
	"carenest/internal/security"
)

// UserService manages profiles, caregivers and admin account control
type UserService struct {
	users    *repository.UserRepository
	resolver *access.Resolver
	mailer   Mailer
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(users *repository.UserRepository, resolver *access.Resolver, mailer Mailer, logger *zap.Logger) *UserService {
	return &UserService{users: users, resolver: resolver, mailer: mailer, logger: logger}
}

// GetProfile returns the actor's own account
func (s *UserService) GetProfile(ctx context.Context, actor models.Actor) (*models.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, apperr.Upstream("failed to load user", err)
	}
	if user == nil || user.IsDeleted {
		return nil, apperr.NotFound("User not found")
	}
	return user, nil
}

// UpdateProfile changes the actor's name and phone
func (s *UserService) UpdateProfile(ctx context.Context, actor models.Actor, fullName, phone string) (*models.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, apperr.Validation("full name is required")
	}
	if err := s.users.UpdateProfile(ctx, actor.ID, fullName, strings.TrimSpace(phone)); err != nil {
		return nil, storeErr(err, "update profile", "User not found")
	}
	return s.GetProfile(ctx, actor)
}

// CreateCaregiver creates a caregiver account delegated to the parent actor
// and emails them a temporary password. A failed email does not undo the
// account; the parent can share the password another way.
func (s *UserService) CreateCaregiver(ctx context.Context, actor models.Actor, fullName, email string) (*models.User, string, error) {
	if actor.Role != models.RoleParent {
		return nil, "", apperr.AccessDenied("Only parents can add caregivers")
	}
	fullName = strings.TrimSpace(fullName)
	email = normalizeEmail(email)
	if fullName == "" || email == "" {
		return nil, "", apperr.Validation("full name and email are required")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", apperr.Upstream("failed to check existing user", err)
	}
	if existing != nil {
		return nil, "", apperr.Conflict("Email already registered")
	}

	parent, err := s.GetProfile(ctx, actor)
	if err != nil {
		return nil, "", err
	}

	password, err := credentials.GenerateTemporaryPassword()
	if err != nil {
		return nil, "", apperr.Upstream("failed to generate password", err)
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, "", apperr.Upstream("failed to hash password", err)
	}

	caregiver := &models.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleCaregiver,
		CreatedByID:  &parent.ID,
	}
	if err := s.users.Create(ctx, caregiver); err != nil {
		return nil, "", apperr.Upstream("failed to create caregiver", err)
	}

	invite := CaregiverInvite{ToEmail: email, ToName: fullName, ParentName: parent.FullName, TempPassword: password}
	if err := s.mailer.SendCaregiverInvite(ctx, invite); err != nil {
		s.logger.Warn("caregiver invite email failed",
			zap.Int64("caregiver_id", caregiver.ID), zap.Error(err))
	}
	return caregiver, password, nil
}

// ListCaregivers returns the caregivers delegated to the actor's owner
func (s *UserService) ListCaregivers(ctx context.Context, actor models.Actor) ([]models.User, error) {
	ownerID, err := s.resolver.ResolveEffectiveOwner(ctx, actor)
	if err != nil {
		return nil, err
	}
	users, err := s.users.ListCaregivers(ctx, ownerID)
	if err != nil {
		return nil, apperr.Upstream("failed to list caregivers", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// RemoveCaregiver soft-deletes a caregiver created by the parent actor
func (s *UserService) RemoveCaregiver(ctx context.Context, actor models.Actor, caregiverID int64) error {
	caregiver, err := s.users.GetByID(ctx, caregiverID)
	if err != nil {
		return apperr.Upstream("failed to load caregiver", err)
	}
	if caregiver == nil || caregiver.IsDeleted || caregiver.Role != models.RoleCaregiver {
		return apperr.NotFound("Caregiver not found")
	}
	if caregiver.CreatedByID == nil {
		return apperr.AccessDenied("You do not have access to this caregiver")
	}
	if err := access.CheckOwner(actor.ID, *caregiver.CreatedByID, "caregiver"); err != nil {
		return err
	}
	return storeErr(s.users.SoftDelete(ctx, caregiverID), "delete caregiver", "Caregiver not found")
}

// ListUsers returns a filtered page of accounts for admins
func (s *UserService) ListUsers(ctx context.Context, actor models.Actor, f repository.UserFilter, opts models.ListOptions) (models.Page[models.User], error) {
	if !actor.IsAdmin() {
		return models.Page[models.User]{}, apperr.AccessDenied("Admin access required")
	}
	opts = opts.Normalize()
	users, total, err := s.users.List(ctx, f, opts)
	if err != nil {
		return models.Page[models.User]{}, apperr.Upstream("failed to list users", err)
	}
	return models.NewPage(users, total, opts), nil
}

// SetStatus blocks or unblocks an account. Admins cannot block themselves.
func (s *UserService) SetStatus(ctx context.Context, actor models.Actor, userID int64, status models.UserStatus) error {
	if !actor.IsAdmin() {
		return apperr.AccessDenied("Admin access required")
	}
	if status != models.UserStatusActive && status != models.UserStatusBlocked {
		return apperr.Validation("status must be ACTIVE or BLOCKED")
	}
	if userID == actor.ID {
		return apperr.Validation("you cannot change your own status")
	}
	if err := s.users.SetStatus(ctx, userID, status); err != nil {
		return storeErr(err, "set user status", "User not found")
	}
	s.logger.Info("user status changed", zap.Int64("user_id", userID), zap.String("status", string(status)))
	return nil
}
