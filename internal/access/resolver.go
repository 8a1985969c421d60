// Package access resolves whose data a caller may act upon.
//
// A caregiver acts on behalf of the parent that created their account; a
// parent or admin acts on their own behalf. Every child-scoped service is
// handed the same Resolver so the rule lives in one place.
package access

import (
	"context"

	"carenest/internal/apperr"
	"carenest/internal/models"
)

// UserStore looks up accounts. Implementations return nil, nil when absent.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// ChildStore looks up children. Implementations return nil, nil when the
// child is absent or soft-deleted.
type ChildStore interface {
	GetByID(ctx context.Context, id int64) (*models.Child, error)
}

// Resolver computes effective owners and checks ownership of children.
type Resolver struct {
	users    UserStore
	children ChildStore
}

// NewResolver creates a resolver.
func NewResolver(users UserStore, children ChildStore) *Resolver {
	return &Resolver{users: users, children: children}
}

// ResolveEffectiveOwner returns the id whose data actor may act upon.
func (r *Resolver) ResolveEffectiveOwner(ctx context.Context, actor models.Actor) (int64, error) {
	if actor.Role != models.RoleCaregiver {
		return actor.ID, nil
	}

	caregiver, err := r.users.GetByID(ctx, actor.ID)
	if err != nil {
		return 0, apperr.Upstream("failed to resolve caregiver", err)
	}
	if caregiver == nil || caregiver.CreatedByID == nil {
		return 0, apperr.AccessDenied("No access to any children")
	}

	parent, err := r.users.GetByID(ctx, *caregiver.CreatedByID)
	if err != nil {
		return 0, apperr.Upstream("failed to resolve delegating parent", err)
	}
	if parent == nil || !parent.IsActive() {
		return 0, apperr.AccessDenied("No access to any children")
	}
	return parent.ID, nil
}

// AuthorizeChild resolves the actor's owner and loads childID, failing with
// NotFound when the child is absent and AccessDenied when it belongs to
// someone else.
func (r *Resolver) AuthorizeChild(ctx context.Context, actor models.Actor, childID int64) (*models.Child, int64, error) {
	ownerID, err := r.ResolveEffectiveOwner(ctx, actor)
	if err != nil {
		return nil, 0, err
	}

	child, err := r.children.GetByID(ctx, childID)
	if err != nil {
		return nil, 0, apperr.Upstream("failed to load child", err)
	}
	if child == nil {
		return nil, 0, apperr.NotFound("Child not found")
	}
	if err := CheckOwner(ownerID, child.CreatorID, "child"); err != nil {
		return nil, 0, err
	}
	return child, ownerID, nil
}

// CheckOwner fails with AccessDenied unless entityOwnerID is ownerID.
func CheckOwner(ownerID, entityOwnerID int64, entity string) error {
	if ownerID != entityOwnerID {
		return apperr.AccessDenied("You do not have access to this %s", entity)
	}
	return nil
}
