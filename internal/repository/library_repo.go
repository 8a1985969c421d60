package repository

import (
	"context"

	"carenest/internal/database"
	"carenest/internal/models"
)

// LibraryRepository handles database operations for learning articles and favorites
type LibraryRepository struct {
	db database.DBTX
}

// NewLibraryRepository creates a new learning library repository
func NewLibraryRepository(db database.DBTX) *LibraryRepository {
	return &LibraryRepository{db: db}
}

const articleColumns = "id, created_by_id, title, description, content_type, category, image, link, created_at, updated_at"

func scanArticle(s scanner) (*models.Article, error) {
	a := &models.Article{}
	err := s.Scan(&a.ID, &a.CreatedByID, &a.Title, &a.Description, &a.Content, &a.Category,
		&a.Image, &a.Link, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CreateArticle inserts an article
func (r *LibraryRepository) CreateArticle(ctx context.Context, a *models.Article) error {
	ts := now()
	id, err := r.db.ExecReturningID(ctx, `
		INSERT INTO learning_articles (created_by_id, title, description, content_type, category, image, link, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.CreatedByID, a.Title, a.Description, a.Content, a.Category, a.Image, a.Link, ts, ts,
	)
	if err != nil {
		return wrap("create article", err)
	}
	a.ID = id
	a.CreatedAt = ts
	a.UpdatedAt = ts
	return nil
}

// GetArticle returns an article or nil
func (r *LibraryRepository) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	a, err := scanArticle(r.db.QueryRowContext(ctx, "SELECT "+articleColumns+" FROM learning_articles WHERE id = ?", id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get article", err)
	}
	return a, nil
}

// UpdateArticle overwrites an article's fields
func (r *LibraryRepository) UpdateArticle(ctx context.Context, a *models.Article) error {
	a.UpdatedAt = now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE learning_articles SET title = ?, description = ?, content_type = ?, category = ?, image = ?, link = ?, updated_at = ?
		WHERE id = ?`,
		a.Title, a.Description, a.Content, a.Category, a.Image, a.Link, a.UpdatedAt, a.ID)
	if err != nil {
		return wrap("update article", err)
	}
	return expectAffected(res)
}

// DeleteArticle removes an article and every favorite pointing at it
func (r *LibraryRepository) DeleteArticle(ctx context.Context, id int64) error {
	return inTx(ctx, r.db, func(tx database.DBTX) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM favorites WHERE article_id = ?", id); err != nil {
			return wrap("delete article favorites", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM learning_articles WHERE id = ?", id)
		if err != nil {
			return wrap("delete article", err)
		}
		return expectAffected(res)
	})
}

// ArticleFilter narrows an article list
type ArticleFilter struct {
	SearchTerm string
	Contents   []string
	Categories []string
}

var articleSortable = map[string]string{
	"createdAt": "created_at",
	"title":     "title",
}

// ListArticles returns a page of articles
func (r *LibraryRepository) ListArticles(ctx context.Context, f ArticleFilter, opts models.ListOptions) ([]models.Article, int, error) {
	q := &listQuery{}
	q.search(f.SearchTerm, "title").
		in("content_type", f.Contents).
		in("category", f.Categories)

	total, err := q.count(ctx, r.db, "learning_articles")
	if err != nil {
		return nil, 0, wrap("count articles", err)
	}

	tail, args := q.page(opts, "created_at", articleSortable)
	rows, err := r.db.QueryContext(ctx, "SELECT "+articleColumns+" FROM learning_articles"+tail, args...)
	if err != nil {
		return nil, 0, wrap("query articles", err)
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, wrap("scan article", err)
		}
		articles = append(articles, *a)
	}
	return articles, total, rows.Err()
}

// CountArticles returns the number of articles
func (r *LibraryRepository) CountArticles(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM learning_articles").Scan(&n); err != nil {
		return 0, wrap("count articles", err)
	}
	return n, nil
}

// AddFavorite saves an article for a user
func (r *LibraryRepository) AddFavorite(ctx context.Context, userID, articleID int64) (*models.Favorite, error) {
	ts := now()
	id, err := r.db.ExecReturningID(ctx,
		"INSERT INTO favorites (user_id, article_id, created_at) VALUES (?, ?, ?)", userID, articleID, ts)
	if err != nil {
		return nil, wrap("add favorite", err)
	}
	return &models.Favorite{ID: id, UserID: userID, ArticleID: articleID, CreatedAt: ts}, nil
}

// RemoveFavorite deletes a user's favorite, reporting whether one existed
func (r *LibraryRepository) RemoveFavorite(ctx context.Context, userID, articleID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM favorites WHERE user_id = ? AND article_id = ?", userID, articleID)
	if err != nil {
		return false, wrap("remove favorite", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap("remove favorite", err)
	}
	return n > 0, nil
}

// FavoriteIDs returns which of articleIDs the user has saved
func (r *LibraryRepository) FavoriteIDs(ctx context.Context, userID int64, articleIDs []int64) (map[int64]bool, error) {
	saved := make(map[int64]bool, len(articleIDs))
	if len(articleIDs) == 0 {
		return saved, nil
	}
	args := append([]any{userID}, int64Args(articleIDs)...)
	rows, err := r.db.QueryContext(ctx,
		"SELECT article_id FROM favorites WHERE user_id = ? AND article_id IN ("+placeholders(len(articleIDs))+")", args...)
	if err != nil {
		return nil, wrap("query favorites", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, wrap("scan favorite", err)
		}
		saved[id] = true
	}
	return saved, rows.Err()
}

// ListFavorites returns a page of the user's favorites with their articles, newest first
func (r *LibraryRepository) ListFavorites(ctx context.Context, userID int64, opts models.ListOptions) ([]models.Favorite, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM favorites WHERE user_id = ?", userID).Scan(&total); err != nil {
		return nil, 0, wrap("count favorites", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT f.id, f.user_id, f.article_id, f.created_at,
			a.id, a.created_by_id, a.title, a.description, a.content_type, a.category, a.image, a.link, a.created_at, a.updated_at
		FROM favorites f
		JOIN learning_articles a ON a.id = f.article_id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC, f.id DESC
		LIMIT ? OFFSET ?`,
		userID, opts.Limit, opts.Offset(),
	)
	if err != nil {
		return nil, 0, wrap("query favorites", err)
	}
	defer rows.Close()

	var favorites []models.Favorite
	for rows.Next() {
		var f models.Favorite
		a := &models.Article{IsFavorite: true}
		err := rows.Scan(&f.ID, &f.UserID, &f.ArticleID, &f.CreatedAt,
			&a.ID, &a.CreatedByID, &a.Title, &a.Description, &a.Content, &a.Category, &a.Image, &a.Link, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, 0, wrap("scan favorite", err)
		}
		f.Article = a
		favorites = append(favorites, f)
	}
	return favorites, total, rows.Err()
}
