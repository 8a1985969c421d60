package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"carenest/internal/analytics"
	"carenest/internal/database"
	"carenest/internal/models"
)

// ActivityRepository handles database operations for activities and their completions
type ActivityRepository struct {
	db database.DBTX
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db database.DBTX) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = "id, owner_id, title, description, image, activity_type, created_at, updated_at"

func scanActivity(s scanner) (*models.Activity, error) {
	a := &models.Activity{}
	err := s.Scan(&a.ID, &a.OwnerID, &a.Title, &a.Description, &a.Image, &a.ActivityType, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts an activity
func (r *ActivityRepository) Create(ctx context.Context, a *models.Activity) error {
	ts := now()
	id, err := r.db.ExecReturningID(ctx, `
		INSERT INTO activities (owner_id, title, description, image, activity_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.OwnerID, a.Title, a.Description, a.Image, a.ActivityType, ts, ts,
	)
	if err != nil {
		return wrap("create activity", err)
	}
	a.ID = id
	a.CreatedAt = ts
	a.UpdatedAt = ts
	return nil
}

// GetByID returns an activity or nil when absent
func (r *ActivityRepository) GetByID(ctx context.Context, id int64) (*models.Activity, error) {
	a, err := scanActivity(r.db.QueryRowContext(ctx, "SELECT "+activityColumns+" FROM activities WHERE id = ?", id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get activity", err)
	}
	return a, nil
}

// Update overwrites the editable fields of an activity
func (r *ActivityRepository) Update(ctx context.Context, a *models.Activity) error {
	a.UpdatedAt = now()
	res, err := r.db.ExecContext(ctx,
		"UPDATE activities SET title = ?, description = ?, image = ?, activity_type = ?, updated_at = ? WHERE id = ?",
		a.Title, a.Description, a.Image, a.ActivityType, a.UpdatedAt, a.ID)
	if err != nil {
		return wrap("update activity", err)
	}
	return expectAffected(res)
}

// Delete removes an activity and its completions
func (r *ActivityRepository) Delete(ctx context.Context, id int64) error {
	return inTx(ctx, r.db, func(tx database.DBTX) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM activity_completions WHERE activity_id = ?", id); err != nil {
			return wrap("delete activity completions", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM activities WHERE id = ?", id)
		if err != nil {
			return wrap("delete activity", err)
		}
		return expectAffected(res)
	})
}

// ActivityFilter narrows an activity list
type ActivityFilter struct {
	SearchTerm string
	Types      []string
}

var activitySortable = map[string]string{
	"createdAt": "created_at",
	"title":     "title",
}

// ListByOwner returns a page of the owner's activities
func (r *ActivityRepository) ListByOwner(ctx context.Context, ownerID int64, f ActivityFilter, opts models.ListOptions) ([]models.Activity, int, error) {
	q := &listQuery{}
	q.where("owner_id = ?", ownerID).
		search(f.SearchTerm, "title").
		in("activity_type", f.Types)

	total, err := q.count(ctx, r.db, "activities")
	if err != nil {
		return nil, 0, wrap("count activities", err)
	}

	tail, args := q.page(opts, "created_at", activitySortable)
	rows, err := r.db.QueryContext(ctx, "SELECT "+activityColumns+" FROM activities"+tail, args...)
	if err != nil {
		return nil, 0, wrap("query activities", err)
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, 0, wrap("scan activity", err)
		}
		activities = append(activities, *a)
	}
	return activities, total, rows.Err()
}

// CreateCompletion records that an activity was completed
func (r *ActivityRepository) CreateCompletion(ctx context.Context, c *models.ActivityCompletion) error {
	if c.CompletedAt.IsZero() {
		c.CompletedAt = now()
	}
	if c.CompletedDay == "" {
		c.CompletedDay = c.CompletedAt.Format("2006-01-02")
	}
	c.CompletedAt = c.CompletedAt.UTC()

	var child sql.NullInt64
	if c.ChildID != nil {
		child = sql.NullInt64{Int64: *c.ChildID, Valid: true}
	}
	id, err := r.db.ExecReturningID(ctx, `
		INSERT INTO activity_completions (activity_id, owner_id, child_id, completed_by, completed_at, completed_day)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ActivityID, c.OwnerID, child, c.CompletedBy, c.CompletedAt, c.CompletedDay,
	)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("failed to create activity completion: %w: %w", ErrDuplicate, err)
	}
	if err != nil {
		return wrap("create activity completion", err)
	}
	c.ID = id
	return nil
}

// HasCompletionBetween reports whether the owner completed the activity inside [start, end]
func (r *ActivityRepository) HasCompletionBetween(ctx context.Context, ownerID, activityID int64, start, end time.Time) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM activity_completions
		WHERE owner_id = ? AND activity_id = ? AND completed_at >= ? AND completed_at <= ?`,
		ownerID, activityID, start.UTC(), end.UTC(),
	).Scan(&n)
	if err != nil {
		return false, wrap("check activity completion", err)
	}
	return n > 0, nil
}

// ListCompletions returns the owner's completions in [start, end], oldest
// first, with the activity title and image. A ChildID narrows them to one child.
func (r *ActivityRepository) ListCompletions(ctx context.Context, cq analytics.CompletionQuery) ([]models.ActivityCompletion, error) {
	q := &listQuery{}
	q.where("c.owner_id = ?", cq.OwnerID)
	if cq.ChildID != 0 {
		q.where("c.child_id = ?", cq.ChildID)
	}
	q.between("c.completed_at", &TimeRange{Start: cq.Start, End: cq.End})

	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.activity_id, c.owner_id, c.child_id, c.completed_by, c.completed_at, a.title, a.image
		FROM activity_completions c
		JOIN activities a ON a.id = c.activity_id`+q.clause()+`
		ORDER BY c.completed_at ASC, c.id ASC`,
		q.args...,
	)
	if err != nil {
		return nil, wrap("query activity completions", err)
	}
	defer rows.Close()

	var completions []models.ActivityCompletion
	for rows.Next() {
		var c models.ActivityCompletion
		var child sql.NullInt64
		if err := rows.Scan(&c.ID, &c.ActivityID, &c.OwnerID, &child, &c.CompletedBy, &c.CompletedAt, &c.Title, &c.Image); err != nil {
			return nil, wrap("scan activity completion", err)
		}
		if child.Valid {
			id := child.Int64
			c.ChildID = &id
		}
		completions = append(completions, c)
	}
	return completions, rows.Err()
}
