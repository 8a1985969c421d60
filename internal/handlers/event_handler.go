package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"carenest/internal/service"
)

// EventHandler serves calendar events
type EventHandler struct {
	eventService *service.EventService
	logger       *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService *service.EventService, logger *zap.Logger) *EventHandler {
	return &EventHandler{eventService: eventService, logger: logger}
}

type eventRequest struct {
	Title         string  `json:"title" validate:"required,notblank,max=200"`
	Description   string  `json:"description" validate:"max=2000"`
	Image         string  `json:"image" validate:"omitempty,url"`
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time          string  `json:"time" validate:"max=20"`
	IsForAllChild bool    `json:"isForAllChild"`
	ChildIDs      []int64 `json:"childIds" validate:"dive,gt=0"`
}

func (req eventRequest) input() service.EventInput {
	return service.EventInput{
		Title:         req.Title,
		Description:   req.Description,
		Image:         req.Image,
		Date:          req.Date,
		Time:          req.Time,
		IsForAllChild: req.IsForAllChild,
		ChildIDs:      req.ChildIDs,
	}
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	event, err := h.eventService.Create(r.Context(), GetActorFromContext(r.Context()), req.input())
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusCreated, "Event created", event)
}

// List accepts date (default today), childId, status and search
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	childID, err := queryInt64(r, "childId")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	params := service.EventListParams{
		Date:       r.URL.Query().Get("date"),
		ChildID:    childID,
		Status:     r.URL.Query().Get("status"),
		SearchTerm: r.URL.Query().Get("search"),
	}
	page, err := h.eventService.List(r.Context(), GetActorFromContext(r.Context()), params, listOptions(r))
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", page)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	event, err := h.eventService.Get(r.Context(), GetActorFromContext(r.Context()), id)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", event)
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	var req eventRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	event, err := h.eventService.Update(r.Context(), GetActorFromContext(r.Context()), id, req.input())
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "Event updated", event)
}

func (h *EventHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	event, err := h.eventService.MarkCompleted(r.Context(), GetActorFromContext(r.Context()), id)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "Event completed", event)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	if err := h.eventService.Delete(r.Context(), GetActorFromContext(r.Context()), id); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithMessage(w, http.StatusOK, "Event deleted")
}
