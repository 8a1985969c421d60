package repository

import (
	"context"

	"carenest/internal/database"
	"carenest/internal/models"
)

// InspirationRepository handles database operations for inspirations
type InspirationRepository struct {
	db database.DBTX
}

// NewInspirationRepository creates a new inspiration repository
func NewInspirationRepository(db database.DBTX) *InspirationRepository {
	return &InspirationRepository{db: db}
}

const inspirationColumns = "id, body, kind, scheduled_date, status, created_at, updated_at"

func scanInspiration(s scanner) (*models.Inspiration, error) {
	in := &models.Inspiration{}
	err := s.Scan(&in.ID, &in.Text, &in.Type, &in.Date, &in.Status, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return in, nil
}

// Create inserts an inspiration
func (r *InspirationRepository) Create(ctx context.Context, in *models.Inspiration) error {
	ts := now()
	id, err := r.db.ExecReturningID(ctx, `
		INSERT INTO inspirations (body, kind, scheduled_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.Text, in.Type, in.Date, in.Status, ts, ts,
	)
	if err != nil {
		return wrap("create inspiration", err)
	}
	in.ID = id
	in.CreatedAt = ts
	in.UpdatedAt = ts
	return nil
}

// GetByID returns the inspiration, or nil when it does not exist
func (r *InspirationRepository) GetByID(ctx context.Context, id int64) (*models.Inspiration, error) {
	in, err := scanInspiration(r.db.QueryRowContext(ctx,
		"SELECT "+inspirationColumns+" FROM inspirations WHERE id = ?", id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get inspiration", err)
	}
	return in, nil
}

// Update overwrites text, type, date and status
func (r *InspirationRepository) Update(ctx context.Context, in *models.Inspiration) error {
	in.UpdatedAt = now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE inspirations SET body = ?, kind = ?, scheduled_date = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		in.Text, in.Type, in.Date, in.Status, in.UpdatedAt, in.ID,
	)
	if err != nil {
		return wrap("update inspiration", err)
	}
	return expectAffected(res)
}

// Delete removes an inspiration
func (r *InspirationRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM inspirations WHERE id = ?", id)
	if err != nil {
		return wrap("delete inspiration", err)
	}
	return expectAffected(res)
}

// InspirationFilter narrows an inspiration list
type InspirationFilter struct {
	SearchTerm string
	Statuses   []string
	Types      []string
}

var inspirationSortable = map[string]string{
	"createdAt": "created_at",
	"date":      "scheduled_date",
}

// List returns a page of inspirations
func (r *InspirationRepository) List(ctx context.Context, f InspirationFilter, opts models.ListOptions) ([]models.Inspiration, int, error) {
	q := &listQuery{}
	q.search(f.SearchTerm, "body").
		in("status", f.Statuses).
		in("kind", f.Types)

	total, err := q.count(ctx, r.db, "inspirations")
	if err != nil {
		return nil, 0, wrap("count inspirations", err)
	}

	tail, args := q.page(opts, "created_at", inspirationSortable)
	rows, err := r.db.QueryContext(ctx, "SELECT "+inspirationColumns+" FROM inspirations"+tail, args...)
	if err != nil {
		return nil, 0, wrap("query inspirations", err)
	}
	defer rows.Close()

	var out []models.Inspiration
	for rows.Next() {
		in, err := scanInspiration(rows)
		if err != nil {
			return nil, 0, wrap("scan inspiration", err)
		}
		out = append(out, *in)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrap("iterate inspirations", err)
	}
	return out, total, nil
}

// LatestSent returns the most recently sent inspiration, or nil
func (r *InspirationRepository) LatestSent(ctx context.Context) (*models.Inspiration, error) {
	return r.first(ctx, "latest sent inspiration",
		"WHERE status = ? ORDER BY updated_at DESC, id DESC", models.InspirationSent)
}

// ScheduledFor returns the newest inspiration scheduled for day, or nil
func (r *InspirationRepository) ScheduledFor(ctx context.Context, day string) (*models.Inspiration, error) {
	return r.first(ctx, "scheduled inspiration",
		"WHERE status = ? AND scheduled_date = ? ORDER BY created_at DESC, id DESC",
		models.InspirationScheduled, day)
}

func (r *InspirationRepository) first(ctx context.Context, what, tail string, args ...any) (*models.Inspiration, error) {
	in, err := scanInspiration(r.db.QueryRowContext(ctx,
		"SELECT "+inspirationColumns+" FROM inspirations "+tail+" LIMIT 1", args...))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get "+what, err)
	}
	return in, nil
}

// MarkScheduledSentBefore publishes every scheduled inspiration whose day is
// before day and reports how many changed.
func (r *InspirationRepository) MarkScheduledSentBefore(ctx context.Context, day string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE inspirations SET status = ?, updated_at = ?
		WHERE status = ? AND scheduled_date <> '' AND scheduled_date < ?`,
		models.InspirationSent, now(), models.InspirationScheduled, day,
	)
	if err != nil {
		return 0, wrap("publish scheduled inspirations", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap("publish scheduled inspirations", err)
	}
	return n, nil
}
