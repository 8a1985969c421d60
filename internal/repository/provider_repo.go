package repository

import (
	"context"

	"carenest/internal/database"
	"carenest/internal/models"
)

// ProviderRepository handles database operations for care providers
type ProviderRepository struct {
	db database.DBTX
}

// NewProviderRepository creates a new provider repository
func NewProviderRepository(db database.DBTX) *ProviderRepository {
	return &ProviderRepository{db: db}
}

const providerColumns = "id, child_id, full_name, email, phone, specialty, status, created_at, updated_at"

func scanProvider(s scanner) (*models.Provider, error) {
	p := &models.Provider{}
	err := s.Scan(&p.ID, &p.ChildID, &p.FullName, &p.Email, &p.Phone, &p.Specialty, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a provider
func (r *ProviderRepository) Create(ctx context.Context, p *models.Provider) error {
	ts := now()
	if p.Status == "" {
		p.Status = models.ProviderStatusActive
	}
	id, err := r.db.ExecReturningID(ctx, `
		INSERT INTO providers (child_id, full_name, email, phone, specialty, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ChildID, p.FullName, p.Email, p.Phone, p.Specialty, p.Status, ts, ts,
	)
	if err != nil {
		return wrap("create provider", err)
	}
	p.ID = id
	p.CreatedAt = ts
	p.UpdatedAt = ts
	return nil
}

// GetByID returns a provider or nil
func (r *ProviderRepository) GetByID(ctx context.Context, id int64) (*models.Provider, error) {
	p, err := scanProvider(r.db.QueryRowContext(ctx, "SELECT "+providerColumns+" FROM providers WHERE id = ?", id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get provider", err)
	}
	return p, nil
}

// Update overwrites a provider's fields
func (r *ProviderRepository) Update(ctx context.Context, p *models.Provider) error {
	p.UpdatedAt = now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE providers SET full_name = ?, email = ?, phone = ?, specialty = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		p.FullName, p.Email, p.Phone, p.Specialty, p.Status, p.UpdatedAt, p.ID)
	if err != nil {
		return wrap("update provider", err)
	}
	return expectAffected(res)
}

// Delete removes a provider
func (r *ProviderRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM providers WHERE id = ?", id)
	if err != nil {
		return wrap("delete provider", err)
	}
	return expectAffected(res)
}

// ProviderFilter narrows a provider list
type ProviderFilter struct {
	SearchTerm string
	Statuses   []string
}

var providerSortable = map[string]string{
	"createdAt": "created_at",
	"fullName":  "full_name",
}

// ListByChild returns a page of a child's providers
func (r *ProviderRepository) ListByChild(ctx context.Context, childID int64, f ProviderFilter, opts models.ListOptions) ([]models.Provider, int, error) {
	q := &listQuery{}
	q.where("child_id = ?", childID).
		search(f.SearchTerm, "full_name", "email").
		in("status", f.Statuses)

	total, err := q.count(ctx, r.db, "providers")
	if err != nil {
		return nil, 0, wrap("count providers", err)
	}

	tail, args := q.page(opts, "created_at", providerSortable)
	rows, err := r.db.QueryContext(ctx, "SELECT "+providerColumns+" FROM providers"+tail, args...)
	if err != nil {
		return nil, 0, wrap("query providers", err)
	}
	defer rows.Close()

	var providers []models.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, 0, wrap("scan provider", err)
		}
		providers = append(providers, *p)
	}
	return providers, total, rows.Err()
}
