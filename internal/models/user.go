package models

import "time"

// Role identifies what an account may do.
type Role string

const (
	RoleParent    Role = "PARENT"
	RoleCaregiver Role = "CARE_GIVER"
	RoleAdmin     Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleParent, RoleCaregiver, RoleAdmin:
		return true
	}
	return false
}

// UserStatus is the account state.
type UserStatus string

const (
	UserStatusActive  UserStatus = "ACTIVE"
	UserStatusBlocked UserStatus = "BLOCKED"
)

// User represents a parent, caregiver or admin account.
// A caregiver always carries the id of the parent that created it.
type User struct {
	ID            int64      `json:"id"`
	FullName      string     `json:"fullName"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Phone         string     `json:"phone"`
	Role          Role       `json:"role"`
	Status        UserStatus `json:"status"`
	CreatedByID   *int64     `json:"createdById,omitempty"`
	OAuthProvider string     `json:"-"`
	OAuthSubject  string     `json:"-"`
	IsDeleted     bool       `json:"-"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// IsActive reports whether the account may sign in.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive && !u.IsDeleted
}

// Actor is the authenticated caller of a request.
type Actor struct {
	ID   int64
	Role Role
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
