package repository

import (
	"context"
	"encoding/json"

	"carenest/internal/database"
	"carenest/internal/models"
)

// ChildRepository handles database operations for child profiles
type ChildRepository struct {
	db database.DBTX
}

// NewChildRepository creates a new child repository
func NewChildRepository(db database.DBTX) *ChildRepository {
	return &ChildRepository{db: db}
}

const childColumns = `id, creator_id, full_name, date_of_birth, personalization_type, learning_stage,
	age_group, communication, toileting, support_received, diagnoses, is_deleted, created_at, updated_at`

func scanChild(s scanner) (*models.Child, error) {
	c := &models.Child{}
	var support, diagnoses string
	err := s.Scan(
		&c.ID, &c.CreatorID, &c.FullName, &c.DateOfBirth, &c.PersonalizationType, &c.LearningStage,
		&c.AgeGroup, &c.Communication, &c.Toileting, &support, &diagnoses, &c.IsDeleted, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeList(support, &c.SupportReceived); err != nil {
		return nil, err
	}
	if err := decodeList(diagnoses, &c.Diagnoses); err != nil {
		return nil, err
	}
	return c, nil
}

func encodeList(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func decodeList(s string, dst *[]string) error {
	*dst = []string{}
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), dst)
}

// Create inserts a child profile
func (r *ChildRepository) Create(ctx context.Context, c *models.Child) error {
	ts := now()
	id, err := r.db.ExecReturningID(ctx, `
		INSERT INTO children (creator_id, full_name, date_of_birth, personalization_type, learning_stage,
			age_group, communication, toileting, support_received, diagnoses, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CreatorID, c.FullName, c.DateOfBirth, c.PersonalizationType, c.LearningStage,
		c.AgeGroup, c.Communication, c.Toileting, encodeList(c.SupportReceived), encodeList(c.Diagnoses),
		false, ts, ts,
	)
	if err != nil {
		return wrap("create child", err)
	}
	c.ID = id
	c.CreatedAt = ts
	c.UpdatedAt = ts
	return nil
}

// GetByID returns a live child, or nil when absent or soft-deleted
func (r *ChildRepository) GetByID(ctx context.Context, id int64) (*models.Child, error) {
	c, err := scanChild(r.db.QueryRowContext(ctx,
		"SELECT "+childColumns+" FROM children WHERE id = ? AND is_deleted = ?", id, false))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get child", err)
	}
	return c, nil
}

// Update overwrites the editable fields of a live child
func (r *ChildRepository) Update(ctx context.Context, c *models.Child) error {
	c.UpdatedAt = now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE children SET full_name = ?, date_of_birth = ?, personalization_type = ?, learning_stage = ?,
			age_group = ?, communication = ?, toileting = ?, support_received = ?, diagnoses = ?, updated_at = ?
		WHERE id = ? AND is_deleted = ?`,
		c.FullName, c.DateOfBirth, c.PersonalizationType, c.LearningStage,
		c.AgeGroup, c.Communication, c.Toileting, encodeList(c.SupportReceived), encodeList(c.Diagnoses), c.UpdatedAt,
		c.ID, false,
	)
	if err != nil {
		return wrap("update child", err)
	}
	return expectAffected(res)
}

// SoftDelete hides a child from every read
func (r *ChildRepository) SoftDelete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE children SET is_deleted = ?, updated_at = ? WHERE id = ? AND is_deleted = ?", true, now(), id, false)
	if err != nil {
		return wrap("delete child", err)
	}
	return expectAffected(res)
}

// ChildFilter narrows a child list
type ChildFilter struct {
	SearchTerm string
	Created    *TimeRange
}

var childSortable = map[string]string{
	"createdAt": "created_at",
	"fullName":  "full_name",
}

// ListByOwner returns a page of the owner's live children
func (r *ChildRepository) ListByOwner(ctx context.Context, ownerID int64, f ChildFilter, opts models.ListOptions) ([]models.Child, int, error) {
	q := &listQuery{}
	q.where("creator_id = ? AND is_deleted = ?", ownerID, false).
		search(f.SearchTerm, "full_name").
		between("created_at", f.Created)

	total, err := q.count(ctx, r.db, "children")
	if err != nil {
		return nil, 0, wrap("count children", err)
	}

	tail, args := q.page(opts, "created_at", childSortable)
	rows, err := r.db.QueryContext(ctx, "SELECT "+childColumns+" FROM children"+tail, args...)
	if err != nil {
		return nil, 0, wrap("query children", err)
	}
	defer rows.Close()

	var children []models.Child
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, 0, wrap("scan child", err)
		}
		children = append(children, *c)
	}
	return children, total, rows.Err()
}

// OwnedIDs returns the subset of ids that are live children of ownerID
func (r *ChildRepository) OwnedIDs(ctx context.Context, ownerID int64, ids []int64) (map[int64]bool, error) {
	owned := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return owned, nil
	}

	args := append([]any{ownerID, false}, int64Args(ids)...)
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM children WHERE creator_id = ? AND is_deleted = ? AND id IN ("+placeholders(len(ids))+")",
		args...)
	if err != nil {
		return nil, wrap("query owned children", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, wrap("scan child id", err)
		}
		owned[id] = true
	}
	return owned, rows.Err()
}

// Count returns the number of live children
func (r *ChildRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM children WHERE is_deleted = ?", false).Scan(&n); err != nil {
		return 0, wrap("count children", err)
	}
	return n, nil
}
