package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carenest/internal/apperr"
	"carenest/internal/models"
	"carenest/internal/repository"
	"carenest/internal/security"
)

func TestUserServiceCreateCaregiver(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	parent := env.parent(t, "p@example.com")

	caregiver, password, err := env.userSvc.CreateCaregiver(ctx, parent, "Bo", "BO@example.com")
	require.NoError(t, err)
	require.NotNil(t, caregiver.CreatedByID)
	assert.Equal(t, parent.ID, *caregiver.CreatedByID)
	assert.Equal(t, models.RoleCaregiver, caregiver.Role)
	assert.True(t, security.CheckPassword(password, caregiver.PasswordHash))

	require.Len(t, env.mailer.invites, 1)
	assert.Equal(t, "bo@example.com", env.mailer.invites[0].ToEmail)
	assert.Equal(t, password, env.mailer.invites[0].TempPassword)

	_, _, err = env.userSvc.CreateCaregiver(ctx, parent, "Bo", "bo@example.com")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	carer := models.Actor{ID: caregiver.ID, Role: caregiver.Role}
	_, _, err = env.userSvc.CreateCaregiver(ctx, carer, "Cy", "cy@example.com")
	assert.ErrorIs(t, err, apperr.ErrAccessDenied, "caregivers cannot add caregivers")

	list, err := env.userSvc.ListCaregivers(ctx, carer)
	require.NoError(t, err)
	assert.Len(t, list, 1, "a caregiver sees the caregivers of their parent")
}

func TestUserServiceCreateCaregiverEmailFailureIsNotFatal(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.err = errors.New("ses throttled")
	parent := env.parent(t, "p@example.com")

	caregiver, _, err := env.userSvc.CreateCaregiver(context.Background(), parent, "Bo", "bo@example.com")
	require.NoError(t, err)
	assert.NotZero(t, caregiver.ID)
}

func TestUserServiceRemoveCaregiver(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	parent := env.parent(t, "p@example.com")
	other := env.parent(t, "o@example.com")
	carer := env.caregiver(t, parent, "c@example.com")

	assert.ErrorIs(t, env.userSvc.RemoveCaregiver(ctx, other, carer.ID), apperr.ErrAccessDenied)
	require.NoError(t, env.userSvc.RemoveCaregiver(ctx, parent, carer.ID))
	assert.ErrorIs(t, env.userSvc.RemoveCaregiver(ctx, parent, carer.ID), apperr.ErrNotFound)
}

func TestUserServiceAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t, "admin@example.com")
	parent := env.parent(t, "p@example.com")

	_, err := env.userSvc.ListUsers(ctx, parent, repository.UserFilter{}, models.ListOptions{})
	assert.ErrorIs(t, err, apperr.ErrAccessDenied)

	page, err := env.userSvc.ListUsers(ctx, admin, repository.UserFilter{Roles: []string{"PARENT"}}, models.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Meta.Total)
	assert.Equal(t, 10, page.Meta.Limit)

	tests := []struct {
		name    string
		userID  int64
		status  models.UserStatus
		wantErr error
	}{
		{"block parent", parent.ID, models.UserStatusBlocked, nil},
		{"unknown status", parent.ID, "SUSPENDED", apperr.ErrValidation},
		{"self", admin.ID, models.UserStatusBlocked, apperr.ErrValidation},
		{"missing user", 999, models.UserStatusBlocked, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.userSvc.SetStatus(ctx, admin, tt.userID, tt.status)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestUserServiceProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	parent := env.parent(t, "p@example.com")

	u, err := env.userSvc.UpdateProfile(ctx, parent, " Pat Doe ", "555-0100")
	require.NoError(t, err)
	assert.Equal(t, "Pat Doe", u.FullName)
	assert.Equal(t, "555-0100", u.Phone)

	_, err = env.userSvc.UpdateProfile(ctx, parent, "  ", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
