package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"carenest/internal/apperr"
	"carenest/internal/cache"
	"carenest/internal/models"
	"carenest/internal/repository"
)

// ArticleInput carries the editable fields of a learning article
type ArticleInput struct {
	Title       string
	Description string
	Content     string
	Category    string
	Image       string
	Link        string
}

// ArticleListParams are the list filters accepted from requests
type ArticleListParams struct {
	SearchTerm string
	Contents   []string
	Categories []string
}

// LibraryService serves the learning library through the read-through cache.
// List keys carry the caller id because pages embed isFavorite.
type LibraryService struct {
	library *repository.LibraryRepository
	cache   *cache.Cache
	prefix  string
	ttl     time.Duration
	logger  *zap.Logger
}

// NewLibraryService creates a new library service
func NewLibraryService(library *repository.LibraryRepository, c *cache.Cache, prefix string, ttl time.Duration, logger *zap.Logger) *LibraryService {
	return &LibraryService{library: library, cache: c, prefix: prefix, ttl: ttl, logger: logger}
}

func (in ArticleInput) toArticle(a *models.Article) error {
	a.Title = strings.TrimSpace(in.Title)
	a.Description = in.Description
	a.Image = in.Image
	a.Link = in.Link
	if a.Title == "" {
		return apperr.Validation("title is required")
	}

	switch c := models.ContentType(in.Content); c {
	case models.ContentArticles, models.ContentPodcast, models.ContentBooks:
		a.Content = c
	default:
		return apperr.Validation("content must be one of Articles, Podcast, Books")
	}
	switch c := models.Category(in.Category); c {
	case models.CategoryDailyLiving, models.CategoryCommunication, models.CategoryParentSupport:
		a.Category = c
	default:
		return apperr.Validation("category must be one of Daily_Living, Communication, Parent_Support")
	}
	return nil
}

// invalidate drops the single-entry key and every cached list page
func (s *LibraryService) invalidate(ctx context.Context, id int64) {
	s.cache.Invalidate(ctx, cache.ByIDKey(s.prefix, id))
	s.cache.InvalidatePrefix(ctx, cache.ListPrefix(s.prefix))
}

// Create adds an article. Admin only.
func (s *LibraryService) Create(ctx context.Context, actor models.Actor, in ArticleInput) (*models.Article, error) {
	if !actor.IsAdmin() {
		return nil, apperr.AccessDenied("Admin access required")
	}
	a := &models.Article{CreatedByID: actor.ID}
	if err := in.toArticle(a); err != nil {
		return nil, err
	}
	if err := s.library.CreateArticle(ctx, a); err != nil {
		return nil, apperr.Upstream("failed to create article", err)
	}
	s.invalidate(ctx, a.ID)
	return a, nil
}

// List returns a page of articles with the caller's favorites marked
func (s *LibraryService) List(ctx context.Context, actor models.Actor, p ArticleListParams, opts models.ListOptions) (models.Page[models.Article], error) {
	opts = opts.Normalize()
	key := cache.ListKey(s.prefix, map[string][]string{
		"userId":    {strconv.FormatInt(actor.ID, 10)},
		"page":      {strconv.Itoa(opts.Page)},
		"limit":     {strconv.Itoa(opts.Limit)},
		"sortBy":    {opts.SortBy},
		"sortOrder": {opts.SortOrder},
		"search":    {strings.ToLower(strings.TrimSpace(p.SearchTerm))},
		"content":   p.Contents,
		"category":  p.Categories,
	})

	return cache.WithCache(ctx, s.cache, key, s.ttl, func(ctx context.Context) (models.Page[models.Article], error) {
		filter := repository.ArticleFilter{SearchTerm: p.SearchTerm, Contents: p.Contents, Categories: p.Categories}
		articles, total, err := s.library.ListArticles(ctx, filter, opts)
		if err != nil {
			return models.Page[models.Article]{}, apperr.Upstream("failed to list articles", err)
		}
		if err := s.markFavorites(ctx, actor.ID, articles); err != nil {
			return models.Page[models.Article]{}, err
		}
		return models.NewPage(articles, total, opts), nil
	})
}

func (s *LibraryService) markFavorites(ctx context.Context, userID int64, articles []models.Article) error {
	ids := make([]int64, len(articles))
	for i := range articles {
		ids[i] = articles[i].ID
	}
	saved, err := s.library.FavoriteIDs(ctx, userID, ids)
	if err != nil {
		return apperr.Upstream("failed to load favorites", err)
	}
	for i := range articles {
		articles[i].IsFavorite = saved[articles[i].ID]
	}
	return nil
}

// Get returns one article. The article itself is cached; the caller's
// favorite flag is read fresh.
func (s *LibraryService) Get(ctx context.Context, actor models.Actor, id int64) (*models.Article, error) {
	a, err := cache.WithCache(ctx, s.cache, cache.ByIDKey(s.prefix, id), s.ttl, func(ctx context.Context) (*models.Article, error) {
		a, err := s.library.GetArticle(ctx, id)
		if err != nil {
			return nil, apperr.Upstream("failed to load article", err)
		}
		if a == nil {
			return nil, apperr.NotFound("Article not found")
		}
		return a, nil
	})
	if err != nil {
		return nil, err
	}

	article := *a
	one := []models.Article{article}
	if err := s.markFavorites(ctx, actor.ID, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// Update replaces an article's fields. Admin only.
func (s *LibraryService) Update(ctx context.Context, actor models.Actor, id int64, in ArticleInput) (*models.Article, error) {
	if !actor.IsAdmin() {
		return nil, apperr.AccessDenied("Admin access required")
	}
	a, err := s.library.GetArticle(ctx, id)
	if err != nil {
		return nil, apperr.Upstream("failed to load article", err)
	}
	if a == nil {
		return nil, apperr.NotFound("Article not found")
	}
	if err := in.toArticle(a); err != nil {
		return nil, err
	}
	if err := s.library.UpdateArticle(ctx, a); err != nil {
		return nil, storeErr(err, "update article", "Article not found")
	}
	s.invalidate(ctx, id)
	return a, nil
}

// Delete removes an article. Only its creator may delete it.
func (s *LibraryService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	a, err := s.library.GetArticle(ctx, id)
	if err != nil {
		return apperr.Upstream("failed to load article", err)
	}
	if a == nil {
		return apperr.NotFound("Article not found")
	}
	if a.CreatedByID != actor.ID {
		return apperr.AccessDenied("Only the creator can delete this article")
	}
	if err := s.library.DeleteArticle(ctx, id); err != nil {
		return storeErr(err, "delete article", "Article not found")
	}
	s.invalidate(ctx, id)
	return nil
}

// ToggleFavorite saves or unsaves an article for the actor and reports the
// new state.
func (s *LibraryService) ToggleFavorite(ctx context.Context, actor models.Actor, articleID int64) (bool, error) {
	a, err := s.library.GetArticle(ctx, articleID)
	if err != nil {
		return false, apperr.Upstream("failed to load article", err)
	}
	if a == nil {
		return false, apperr.NotFound("Article not found")
	}

	removed, err := s.library.RemoveFavorite(ctx, actor.ID, articleID)
	if err != nil {
		return false, apperr.Upstream("failed to update favorite", err)
	}
	favorite := false
	if !removed {
		if _, err := s.library.AddFavorite(ctx, actor.ID, articleID); err != nil {
			return false, apperr.Upstream("failed to update favorite", err)
		}
		favorite = true
	}

	s.cache.InvalidatePrefix(ctx, cache.ListPrefix(s.prefix))
	return favorite, nil
}

// ListFavorites returns a page of the actor's saved articles
func (s *LibraryService) ListFavorites(ctx context.Context, actor models.Actor, opts models.ListOptions) (models.Page[models.Favorite], error) {
	opts = opts.Normalize()
	favorites, total, err := s.library.ListFavorites(ctx, actor.ID, opts)
	if err != nil {
		return models.Page[models.Favorite]{}, apperr.Upstream("failed to list favorites", err)
	}
	return models.NewPage(favorites, total, opts), nil
}

// CacheStats reports the cache contents. Admin only.
func (s *LibraryService) CacheStats(ctx context.Context, actor models.Actor) (cache.Stats, error) {
	if !actor.IsAdmin() {
		return cache.Stats{}, apperr.AccessDenied("Admin access required")
	}
	stats, err := s.cache.Stats(ctx)
	if err != nil {
		return cache.Stats{}, apperr.Upstream("failed to read cache stats", err)
	}
	return stats, nil
}

// FlushCache empties the cache. Admin only.
func (s *LibraryService) FlushCache(ctx context.Context, actor models.Actor) (int, error) {
	if !actor.IsAdmin() {
		return 0, apperr.AccessDenied("Admin access required")
	}
	n, err := s.cache.Flush(ctx)
	if err != nil {
		return 0, apperr.Upstream("failed to flush cache", err)
	}
	s.logger.Info("library cache flushed", zap.Int64("admin_id", actor.ID), zap.Int("keys", n))
	return n, nil
}
