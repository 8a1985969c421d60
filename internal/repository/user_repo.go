package repository

import (
	"context"
	"database/sql"
	"time"

	"carenest/internal/database"
	"carenest/internal/models"
)

// UserRepository handles database operations for accounts
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, full_name, email, password_hash, phone, role, status, created_by_id,
	oauth_provider, oauth_subject, is_deleted, created_at, updated_at`

func scanUser(s scanner) (*models.User, error) {
	u := &models.User{}
	var createdBy sql.NullInt64
	err := s.Scan(
		&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Phone, &u.Role, &u.Status, &createdBy,
		&u.OAuthProvider, &u.OAuthSubject, &u.IsDeleted, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if createdBy.Valid {
		id := createdBy.Int64
		u.CreatedByID = &id
	}
	return u, nil
}

// Create inserts a user and fills in its ID and timestamps
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	ts := now()
	var createdBy any
	if u.CreatedByID != nil {
		createdBy = *u.CreatedByID
	}
	if u.Status == "" {
		u.Status = models.UserStatusActive
	}

	id, err := r.db.ExecReturningID(ctx, `
		INSERT INTO users (full_name, email, password_hash, phone, role, status, created_by_id,
			oauth_provider, oauth_subject, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.FullName, u.Email, u.PasswordHash, u.Phone, u.Role, u.Status, createdBy,
		u.OAuthProvider, u.OAuthSubject, ts, ts,
	)
	if err != nil {
		return wrap("create user", err)
	}

	u.ID = id
	u.CreatedAt = ts
	u.UpdatedAt = ts
	return nil
}

// GetByID returns the user, or nil when it does not exist
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get user", err)
	}
	return u, nil
}

// GetByEmail returns the live user with email, or nil
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? AND is_deleted = ?", email, false))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get user by email", err)
	}
	return u, nil
}

// GetByOAuth returns the user linked to an OAuth identity, or nil
func (r *UserRepository) GetByOAuth(ctx context.Context, provider, subject string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE oauth_provider = ? AND oauth_subject = ? AND is_deleted = ?",
		provider, subject, false))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get user by oauth", err)
	}
	return u, nil
}

// LinkOAuth attaches an OAuth identity to an existing account
func (r *UserRepository) LinkOAuth(ctx context.Context, id int64, provider, subject string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET oauth_provider = ?, oauth_subject = ?, updated_at = ? WHERE id = ?",
		provider, subject, now(), id)
	if err != nil {
		return wrap("link oauth", err)
	}
	return nil
}

// UpdateProfile changes the editable profile fields
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, fullName, phone string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET full_name = ?, phone = ?, updated_at = ? WHERE id = ? AND is_deleted = ?",
		fullName, phone, now(), id, false)
	if err != nil {
		return wrap("update profile", err)
	}
	return expectAffected(res)
}

// UpdatePassword replaces the password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?", hash, now(), id)
	if err != nil {
		return wrap("update password", err)
	}
	return nil
}

// SetStatus blocks or unblocks an account
func (r *UserRepository) SetStatus(ctx context.Context, id int64, status models.UserStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET status = ?, updated_at = ? WHERE id = ? AND is_deleted = ?", status, now(), id, false)
	if err != nil {
		return wrap("set user status", err)
	}
	return expectAffected(res)
}

// SoftDelete marks an account deleted
func (r *UserRepository) SoftDelete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET is_deleted = ?, updated_at = ? WHERE id = ? AND is_deleted = ?", true, now(), id, false)
	if err != nil {
		return wrap("delete user", err)
	}
	return expectAffected(res)
}

// ListCaregivers returns the caregivers created by parentID
func (r *UserRepository) ListCaregivers(ctx context.Context, parentID int64) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE created_by_id = ? AND role = ? AND is_deleted = ? ORDER BY created_at DESC",
		parentID, models.RoleCaregiver, false)
	if err != nil {
		return nil, wrap("query caregivers", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrap("scan caregiver", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UserFilter narrows the admin user list
type UserFilter struct {
	SearchTerm string
	Roles      []string
	Statuses   []string
}

var userSortable = map[string]string{
	"createdAt": "created_at",
	"fullName":  "full_name",
	"email":     "email",
}

// List returns a page of live users
func (r *UserRepository) List(ctx context.Context, f UserFilter, opts models.ListOptions) ([]models.User, int, error) {
	q := &listQuery{}
	q.where("is_deleted = ?", false).
		search(f.SearchTerm, "full_name", "email").
		in("role", f.Roles).
		in("status", f.Statuses)

	total, err := q.count(ctx, r.db, "users")
	if err != nil {
		return nil, 0, wrap("count users", err)
	}

	tail, args := q.page(opts, "created_at", userSortable)
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users"+tail, args...)
	if err != nil {
		return nil, 0, wrap("query users", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, wrap("scan user", err)
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

// CountByRole counts live users per role
func (r *UserRepository) CountByRole(ctx context.Context) (map[models.Role]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT role, COUNT(*) FROM users WHERE is_deleted = ? GROUP BY role", false)
	if err != nil {
		return nil, wrap("count users by role", err)
	}
	defer rows.Close()

	counts := make(map[models.Role]int)
	for rows.Next() {
		var role models.Role
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, wrap("scan role count", err)
		}
		counts[role] = n
	}
	return counts, rows.Err()
}

// CreatedTimes returns the creation time of every live user created in r,
// plus the number created before r.Start. Bucketing happens in Go so the
// query stays portable across dialects.
func (r *UserRepository) CreatedTimes(ctx context.Context, tr TimeRange) ([]time.Time, int, error) {
	var before int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE is_deleted = ? AND created_at < ?", false, tr.Start.UTC()).Scan(&before)
	if err != nil {
		return nil, 0, wrap("count earlier users", err)
	}

	q := &listQuery{}
	q.where("is_deleted = ?", false).between("created_at", &tr)
	rows, err := r.db.QueryContext(ctx, "SELECT created_at FROM users"+q.clause()+" ORDER BY created_at", q.args...)
	if err != nil {
		return nil, 0, wrap("query user creation times", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, 0, wrap("scan creation time", err)
		}
		times = append(times, t)
	}
	return times, before, rows.Err()
}
