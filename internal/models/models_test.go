package models

import (
	"testing"
)

func TestListOptionsNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   ListOptions
		want ListOptions
	}{
		{
			name: "defaults",
			in:   ListOptions{},
			want: ListOptions{Page: 1, Limit: 10, SortBy: "createdAt", SortOrder: "desc"},
		},
		{
			name: "ascending keeps sort field",
			in:   ListOptions{Page: 3, Limit: 25, SortBy: "fullName", SortOrder: "ASC"},
			want: ListOptions{Page: 3, Limit: 25, SortBy: "fullName", SortOrder: "asc"},
		},
		{
			name: "limit is capped",
			in:   ListOptions{Page: -2, Limit: 5000, SortOrder: "sideways"},
			want: ListOptions{Page: 1, Limit: MaxLimit, SortBy: "createdAt", SortOrder: "desc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			if got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestListOptionsOffset(t *testing.T) {
	opts := ListOptions{Page: 3, Limit: 20}
	if got := opts.Offset(); got != 40 {
		t.Errorf("Offset() = %d, want 40", got)
	}
}

func TestNewPageNeverNil(t *testing.T) {
	page := NewPage[Child](nil, 0, ListOptions{Page: 1, Limit: 10})
	if page.Data == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if page.Meta != (PageMeta{Total: 0, Page: 1, Limit: 10}) {
		t.Errorf("unexpected meta %+v", page.Meta)
	}
}

func TestRoleValid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleParent, true},
		{RoleCaregiver, true},
		{RoleAdmin, true},
		{Role("USER"), false},
		{Role(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserIsActive(t *testing.T) {
	tests := []struct {
		name string
		user User
		want bool
	}{
		{"active", User{Status: UserStatusActive}, true},
		{"blocked", User{Status: UserStatusBlocked}, false},
		{"deleted", User{Status: UserStatusActive, IsDeleted: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.IsActive(); got != tt.want {
				t.Errorf("IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}
