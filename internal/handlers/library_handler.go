package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"carenest/internal/service"
)

// LibraryHandler serves the learning library and favorites
type LibraryHandler struct {
	libraryService *service.LibraryService
	logger         *zap.Logger
}

// NewLibraryHandler creates a new library handler
func NewLibraryHandler(libraryService *service.LibraryService, logger *zap.Logger) *LibraryHandler {
	return &LibraryHandler{libraryService: libraryService, logger: logger}
}

type articleRequest struct {
	Title       string `json:"title" validate:"required,notblank,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Content     string `json:"content" validate:"required,oneof=Articles Podcast Books"`
	Category    string `json:"category" validate:"required,oneof=Daily_Living Communication Parent_Support"`
	Image       string `json:"image" validate:"omitempty,url"`
	Link        string `json:"link" validate:"omitempty,url"`
}

func (req articleRequest) input() service.ArticleInput {
	return service.ArticleInput{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Category:    req.Category,
		Image:       req.Image,
		Link:        req.Link,
	}
}

func (h *LibraryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	article, err := h.libraryService.Create(r.Context(), GetActorFromContext(r.Context()), req.input())
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusCreated, "Article created", article)
}

// List accepts search, content and category filters
func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	params := service.ArticleListParams{
		SearchTerm: r.URL.Query().Get("search"),
		Contents:   queryList(r, "content"),
		Categories: queryList(r, "category"),
	}
	page, err := h.libraryService.List(r.Context(), GetActorFromContext(r.Context()), params, listOptions(r))
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", page)
}

func (h *LibraryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	article, err := h.libraryService.Get(r.Context(), GetActorFromContext(r.Context()), id)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", article)
}

func (h *LibraryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	var req articleRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	article, err := h.libraryService.Update(r.Context(), GetActorFromContext(r.Context()), id, req.input())
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "Article updated", article)
}

func (h *LibraryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	if err := h.libraryService.Delete(r.Context(), GetActorFromContext(r.Context()), id); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithMessage(w, http.StatusOK, "Article deleted")
}

// ToggleFavorite saves or unsaves the article for the caller
func (h *LibraryHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	favorite, err := h.libraryService.ToggleFavorite(r.Context(), GetActorFromContext(r.Context()), id)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	message := "Removed from favorites"
	if favorite {
		message = "Added to favorites"
	}
	respondWithData(w, http.StatusOK, message, map[string]bool{"isFavorite": favorite})
}

func (h *LibraryHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	page, err := h.libraryService.ListFavorites(r.Context(), GetActorFromContext(r.Context()), listOptions(r))
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", page)
}
