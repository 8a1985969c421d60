package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"carenest/internal/apperr"
	"carenest/internal/models"
	"carenest/internal/repository"
	"carenest/internal/service"
)

// AdminHandler serves account control, the platform overview and cache
// maintenance. Every route sits behind RequireAdmin.
type AdminHandler struct {
	userService      *service.UserService
	analyticsService *service.AnalyticsService
	libraryService   *service.LibraryService
	logger           *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(userService *service.UserService, analyticsService *service.AnalyticsService, libraryService *service.LibraryService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		userService:      userService,
		analyticsService: analyticsService,
		libraryService:   libraryService,
		logger:           logger,
	}
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE BLOCKED"`
}

// ListUsers filters by search, role and status
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	filter := repository.UserFilter{
		SearchTerm: r.URL.Query().Get("search"),
		Roles:      queryList(r, "role"),
		Statuses:   queryList(r, "status"),
	}
	page, err := h.userService.ListUsers(r.Context(), GetActorFromContext(r.Context()), filter, listOptions(r))
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", page)
}

// SetUserStatus blocks or unblocks an account
func (h *AdminHandler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	var req statusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	if err := h.userService.SetStatus(r.Context(), GetActorFromContext(r.Context()), id, models.UserStatus(req.Status)); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithMessage(w, http.StatusOK, "User status updated")
}

// Overview reports totals and monthly growth for ?year= (default current)
func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, r, h.logger, apperr.Validation("Invalid year"))
			return
		}
		year = y
	}
	overview, err := h.analyticsService.Overview(r.Context(), GetActorFromContext(r.Context()), year)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", overview)
}

func (h *AdminHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.libraryService.CacheStats(r.Context(), GetActorFromContext(r.Context()))
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", stats)
}

func (h *AdminHandler) FlushCache(w http.ResponseWriter, r *http.Request) {
	n, err := h.libraryService.FlushCache(r.Context(), GetActorFromContext(r.Context()))
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "Cache flushed", map[string]int{"keysRemoved": n})
}
