package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"carenest/internal/service"
)

// InspirationHandler serves the daily inspiration messages
type InspirationHandler struct {
	inspirationService *service.InspirationService
	logger             *zap.Logger
}

// NewInspirationHandler creates a new inspiration handler
func NewInspirationHandler(inspirationService *service.InspirationService, logger *zap.Logger) *InspirationHandler {
	return &InspirationHandler{inspirationService: inspirationService, logger: logger}
}

type inspirationRequest struct {
	Text string `json:"text" validate:"required,notblank,max=1000"`
	Type string `json:"type" validate:"max=50"`
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func (req inspirationRequest) input() service.InspirationInput {
	return service.InspirationInput{Text: req.Text, Type: req.Type, Date: req.Date}
}

func (h *InspirationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req inspirationRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	inspiration, err := h.inspirationService.Create(r.Context(), GetActorFromContext(r.Context()), req.input())
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusCreated, "Inspiration created", inspiration)
}

// List accepts search plus repeated or comma-separated status and type
func (h *InspirationHandler) List(w http.ResponseWriter, r *http.Request) {
	params := service.InspirationListParams{
		SearchTerm: r.URL.Query().Get("search"),
		Statuses:   queryList(r, "status"),
		Types:      queryList(r, "type"),
	}
	page, err := h.inspirationService.List(r.Context(), GetActorFromContext(r.Context()), params, listOptions(r))
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", page)
}

// Today returns the message to show now, if any
func (h *InspirationHandler) Today(w http.ResponseWriter, r *http.Request) {
	inspiration, err := h.inspirationService.Today(r.Context())
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	if inspiration == nil {
		respondWithMessage(w, http.StatusOK, "No inspiration for today")
		return
	}
	respondWithData(w, http.StatusOK, "Today's inspiration retrieved", inspiration)
}

func (h *InspirationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	inspiration, err := h.inspirationService.Get(r.Context(), GetActorFromContext(r.Context()), id)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", inspiration)
}

func (h *InspirationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	var req inspirationRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	inspiration, err := h.inspirationService.Update(r.Context(), GetActorFromContext(r.Context()), id, req.input())
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "Inspiration updated", inspiration)
}

// Send publishes a message immediately
func (h *InspirationHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	inspiration, err := h.inspirationService.Send(r.Context(), GetActorFromContext(r.Context()), id)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "Inspiration sent", inspiration)
}

func (h *InspirationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	if err := h.inspirationService.Delete(r.Context(), GetActorFromContext(r.Context()), id); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithMessage(w, http.StatusOK, "Inspiration deleted")
}
