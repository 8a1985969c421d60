package repository

import (
	"context"

	"carenest/internal/database"
	"carenest/internal/models"
)

// DocumentRepository handles database operations for child documents
type DocumentRepository struct {
	db database.DBTX
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db database.DBTX) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = "id, child_id, title, file_url, file_type, created_at, updated_at"

func scanDocument(s scanner) (*models.ChildDocument, error) {
	d := &models.ChildDocument{}
	if err := s.Scan(&d.ID, &d.ChildID, &d.Title, &d.FileURL, &d.FileType, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return d, nil
}

// Create inserts a document
func (r *DocumentRepository) Create(ctx context.Context, d *models.ChildDocument) error {
	ts := now()
	id, err := r.db.ExecReturningID(ctx, `
		INSERT INTO child_documents (child_id, title, file_url, file_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.ChildID, d.Title, d.FileURL, d.FileType, ts, ts,
	)
	if err != nil {
		return wrap("create document", err)
	}
	d.ID = id
	d.CreatedAt = ts
	d.UpdatedAt = ts
	return nil
}

// GetByID returns a document or nil
func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*models.ChildDocument, error) {
	d, err := scanDocument(r.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM child_documents WHERE id = ?", id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get document", err)
	}
	return d, nil
}

// Update overwrites title and file of a document
func (r *DocumentRepository) Update(ctx context.Context, d *models.ChildDocument) error {
	d.UpdatedAt = now()
	res, err := r.db.ExecContext(ctx,
		"UPDATE child_documents SET title = ?, file_url = ?, file_type = ?, updated_at = ? WHERE id = ?",
		d.Title, d.FileURL, d.FileType, d.UpdatedAt, d.ID)
	if err != nil {
		return wrap("update document", err)
	}
	return expectAffected(res)
}

// Delete removes a document
func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM child_documents WHERE id = ?", id)
	if err != nil {
		return wrap("delete document", err)
	}
	return expectAffected(res)
}

var documentSortable = map[string]string{
	"createdAt": "created_at",
	"title":     "title",
}

// ListByChild returns a page of a child's documents
func (r *DocumentRepository) ListByChild(ctx context.Context, childID int64, search string, opts models.ListOptions) ([]models.ChildDocument, int, error) {
	q := &listQuery{}
	q.where("child_id = ?", childID).search(search, "title")

	total, err := q.count(ctx, r.db, "child_documents")
	if err != nil {
		return nil, 0, wrap("count documents", err)
	}

	tail, args := q.page(opts, "created_at", documentSortable)
	rows, err := r.db.QueryContext(ctx, "SELECT "+documentColumns+" FROM child_documents"+tail, args...)
	if err != nil {
		return nil, 0, wrap("query documents", err)
	}
	defer rows.Close()

	var docs []models.ChildDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, wrap("scan document", err)
		}
		docs = append(docs, *d)
	}
	return docs, total, rows.Err()
}
