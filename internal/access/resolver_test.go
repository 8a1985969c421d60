package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carenest/internal/apperr"
	"carenest/internal/models"
)

type fakeUsers struct {
	users map[int64]*models.User
	err   error
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[id], nil
}

type fakeChildren map[int64]*models.Child

func (f fakeChildren) GetByID(_ context.Context, id int64) (*models.Child, error) {
	return f[id], nil
}

func int64Ptr(v int64) *int64 { return &v }

func newTestResolver() *Resolver {
	active := models.UserStatusActive
	users := &fakeUsers{users: map[int64]*models.User{
		1: {ID: 1, Role: models.RoleParent, Status: active},
		2: {ID: 2, Role: models.RoleCaregiver, Status: active, CreatedByID: int64Ptr(1)},
		3: {ID: 3, Role: models.RoleCaregiver, Status: active},
		4: {ID: 4, Role: models.RoleAdmin, Status: active},
		5: {ID: 5, Role: models.RoleCaregiver, Status: active, CreatedByID: int64Ptr(6)},
		6: {ID: 6, Role: models.RoleParent, Status: active, IsDeleted: true},
		7: {ID: 7, Role: models.RoleParent, Status: active},
		8: {ID: 8, Role: models.RoleCaregiver, Status: active, CreatedByID: int64Ptr(9)},
		9: {ID: 9, Role: models.RoleParent, Status: models.UserStatusBlocked},
	}}
	children := fakeChildren{
		10: {ID: 10, CreatorID: 1},
		11: {ID: 11, CreatorID: 7},
	}
	return NewResolver(users, children)
}

func TestResolveEffectiveOwner(t *testing.T) {
	r := newTestResolver()

	tests := []struct {
		name    string
		actor   models.Actor
		want    int64
		wantErr error
	}{
		{"parent acts as self", models.Actor{ID: 1, Role: models.RoleParent}, 1, nil},
		{"admin acts as self", models.Actor{ID: 4, Role: models.RoleAdmin}, 4, nil},
		{"caregiver acts for creating parent", models.Actor{ID: 2, Role: models.RoleCaregiver}, 1, nil},
		{"caregiver without creator", models.Actor{ID: 3, Role: models.RoleCaregiver}, 0, apperr.ErrAccessDenied},
		{"caregiver of deleted parent", models.Actor{ID: 5, Role: models.RoleCaregiver}, 0, apperr.ErrAccessDenied},
		{"caregiver of blocked parent", models.Actor{ID: 8, Role: models.RoleCaregiver}, 0, apperr.ErrAccessDenied},
		{"unknown caregiver", models.Actor{ID: 99, Role: models.RoleCaregiver}, 0, apperr.ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveEffectiveOwner(context.Background(), tt.actor)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, "No access to any children", apperr.Message(err, ""))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveEffectiveOwnerStoreFailure(t *testing.T) {
	r := NewResolver(&fakeUsers{err: errors.New("db down")}, fakeChildren{})

	_, err := r.ResolveEffectiveOwner(context.Background(), models.Actor{ID: 2, Role: models.RoleCaregiver})
	assert.ErrorIs(t, err, apperr.ErrUpstream)

	// A parent never touches the store.
	owner, err := r.ResolveEffectiveOwner(context.Background(), models.Actor{ID: 1, Role: models.RoleParent})
	require.NoError(t, err)
	assert.Equal(t, int64(1), owner)
}

func TestAuthorizeChild(t *testing.T) {
	r := newTestResolver()

	tests := []struct {
		name    string
		actor   models.Actor
		childID int64
		wantErr error
	}{
		{"parent owns child", models.Actor{ID: 1, Role: models.RoleParent}, 10, nil},
		{"caregiver reaches parent's child", models.Actor{ID: 2, Role: models.RoleCaregiver}, 10, nil},
		{"caregiver blocked from other family", models.Actor{ID: 2, Role: models.RoleCaregiver}, 11, apperr.ErrAccessDenied},
		{"parent blocked from other family", models.Actor{ID: 1, Role: models.RoleParent}, 11, apperr.ErrAccessDenied},
		{"missing child", models.Actor{ID: 1, Role: models.RoleParent}, 404, apperr.ErrNotFound},
		{"orphan caregiver", models.Actor{ID: 3, Role: models.RoleCaregiver}, 10, apperr.ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			child, owner, err := r.AuthorizeChild(context.Background(), tt.actor, tt.childID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, child)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.childID, child.ID)
			assert.Equal(t, child.CreatorID, owner)
		})
	}
}
