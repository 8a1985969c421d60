package repository

import (
	"context"
	"fmt"

	"carenest/internal/database"
	"carenest/internal/models"
)

// NoteRepository handles database operations for health-care and sensory
// notes. Both kinds share one shape but live in separate tables; the extra
// column is note_date for health-care notes and image for sensory notes.
type NoteRepository struct {
	db database.DBTX
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db database.DBTX) *NoteRepository {
	return &NoteRepository{db: db}
}

type noteTable struct {
	name  string
	extra string
}

func tableFor(kind models.NoteKind) (noteTable, error) {
	switch kind {
	case models.NoteKindHealthCare:
		return noteTable{name: "health_care_notes", extra: "note_date"}, nil
	case models.NoteKindSensory:
		return noteTable{name: "sensory_notes", extra: "image"}, nil
	default:
		return noteTable{}, fmt.Errorf("unknown note kind %q", kind)
	}
}

func (t noteTable) columns() string {
	return "id, child_id, title, description, " + t.extra + ", created_at, updated_at"
}

func extraField(n *models.Note) *string {
	if n.Kind == models.NoteKindSensory {
		return &n.Image
	}
	return &n.Date
}

func scanNote(s scanner, kind models.NoteKind) (*models.Note, error) {
	n := &models.Note{Kind: kind}
	if err := s.Scan(&n.ID, &n.ChildID, &n.Title, &n.Description, extraField(n), &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return n, nil
}

// Create inserts a note into the table for its kind
func (r *NoteRepository) Create(ctx context.Context, n *models.Note) error {
	t, err := tableFor(n.Kind)
	if err != nil {
		return err
	}
	ts := now()
	id, err := r.db.ExecReturningID(ctx,
		"INSERT INTO "+t.name+" (child_id, title, description, "+t.extra+", created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		n.ChildID, n.Title, n.Description, *extraField(n), ts, ts,
	)
	if err != nil {
		return wrap("create note", err)
	}
	n.ID = id
	n.CreatedAt = ts
	n.UpdatedAt = ts
	return nil
}

// GetByID returns a note of the given kind or nil
func (r *NoteRepository) GetByID(ctx context.Context, kind models.NoteKind, id int64) (*models.Note, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	n, err := scanNote(r.db.QueryRowContext(ctx, "SELECT "+t.columns()+" FROM "+t.name+" WHERE id = ?", id), kind)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get note", err)
	}
	return n, nil
}

// Update overwrites a note's fields
func (r *NoteRepository) Update(ctx context.Context, n *models.Note) error {
	t, err := tableFor(n.Kind)
	if err != nil {
		return err
	}
	n.UpdatedAt = now()
	res, err := r.db.ExecContext(ctx,
		"UPDATE "+t.name+" SET title = ?, description = ?, "+t.extra+" = ?, updated_at = ? WHERE id = ?",
		n.Title, n.Description, *extraField(n), n.UpdatedAt, n.ID)
	if err != nil {
		return wrap("update note", err)
	}
	return expectAffected(res)
}

// Delete removes a note
func (r *NoteRepository) Delete(ctx context.Context, kind models.NoteKind, id int64) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+t.name+" WHERE id = ?", id)
	if err != nil {
		return wrap("delete note", err)
	}
	return expectAffected(res)
}

// NoteFilter narrows a note list
type NoteFilter struct {
	SearchTerm string
	Created    *TimeRange
}

var noteSortable = map[string]string{
	"createdAt": "created_at",
	"title":     "title",
}

// ListByChild returns a page of a child's notes of one kind
func (r *NoteRepository) ListByChild(ctx context.Context, kind models.NoteKind, childID int64, f NoteFilter, opts models.ListOptions) ([]models.Note, int, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, 0, err
	}
	q := &listQuery{}
	q.where("child_id = ?", childID).
		search(f.SearchTerm, "title").
		between("created_at", f.Created)

	total, err := q.count(ctx, r.db, t.name)
	if err != nil {
		return nil, 0, wrap("count notes", err)
	}

	tail, args := q.page(opts, "created_at", noteSortable)
	rows, err := r.db.QueryContext(ctx, "SELECT "+t.columns()+" FROM "+t.name+tail, args...)
	if err != nil {
		return nil, 0, wrap("query notes", err)
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		n, err := scanNote(rows, kind)
		if err != nil {
			return nil, 0, wrap("scan note", err)
		}
		notes = append(notes, *n)
	}
	return notes, total, rows.Err()
}
