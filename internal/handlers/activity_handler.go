package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"carenest/internal/repository"
	"carenest/internal/service"
)

// ActivityHandler serves activities and their daily completions
type ActivityHandler struct {
	activityService *service.ActivityService
	logger          *zap.Logger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activityService *service.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{activityService: activityService, logger: logger}
}

type activityRequest struct {
	Title        string `json:"title" validate:"required,notblank,max=200"`
	Description  string `json:"description" validate:"max=2000"`
	Image        string `json:"image" validate:"omitempty,url"`
	ActivityType string `json:"activityType" validate:"max=100"`
}

func (req activityRequest) input() service.ActivityInput {
	return service.ActivityInput{
		Title:        req.Title,
		Description:  req.Description,
		Image:        req.Image,
		ActivityType: req.ActivityType,
	}
}

type completeActivityRequest struct {
	ChildID *int64 `json:"childId" validate:"omitempty,gt=0"`
}

func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	activity, err := h.activityService.Create(r.Context(), GetActorFromContext(r.Context()), req.input())
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusCreated, "Activity created", activity)
}

// List accepts search and activityType filters
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.ActivityFilter{
		SearchTerm: r.URL.Query().Get("search"),
		Types:      queryList(r, "activityType"),
	}
	page, err := h.activityService.List(r.Context(), GetActorFromContext(r.Context()), filter, listOptions(r))
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", page)
}

func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	activity, err := h.activityService.Get(r.Context(), GetActorFromContext(r.Context()), id)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", activity)
}

func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	var req activityRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	activity, err := h.activityService.Update(r.Context(), GetActorFromContext(r.Context()), id, req.input())
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "Activity updated", activity)
}

func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	if err := h.activityService.Delete(r.Context(), GetActorFromContext(r.Context()), id); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithMessage(w, http.StatusOK, "Activity deleted")
}

// Complete marks the activity done for today, optionally for one child
func (h *ActivityHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	var req completeActivityRequest
	if r.ContentLength != 0 {
		if err := decodeAndValidate(r, &req); err != nil {
			respondWithError(w, r, h.logger, err)
			return
		}
	}
	completion, err := h.activityService.MarkCompleted(r.Context(), GetActorFromContext(r.Context()), id, req.ChildID)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusCreated, "Activity marked as completed", completion)
}

// Summary is the owner-level activity chart (?period=week|month)
func (h *ActivityHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.activityService.Summary(r.Context(), GetActorFromContext(r.Context()), r.URL.Query().Get("period"))
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", summary)
}
