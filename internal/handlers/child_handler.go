package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"carenest/internal/service"
)

// ChildHandler serves child profiles, their behavior logs and dashboards
type ChildHandler struct {
	childService     *service.ChildService
	behaviorService  *service.BehaviorService
	analyticsService *service.AnalyticsService
	logger           *zap.Logger
}

// NewChildHandler creates a new child handler
func NewChildHandler(childService *service.ChildService, behaviorService *service.BehaviorService, analyticsService *service.AnalyticsService, logger *zap.Logger) *ChildHandler {
	return &ChildHandler{
		childService:     childService,
		behaviorService:  behaviorService,
		analyticsService: analyticsService,
		logger:           logger,
	}
}

type childRequest struct {
	FullName            string   `json:"fullName" validate:"required,notblank,max=100"`
	DateOfBirth         string   `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	PersonalizationType string   `json:"personalizationType" validate:"max=100"`
	LearningStage       string   `json:"learningStage" validate:"max=100"`
	AgeGroup            string   `json:"ageGroup" validate:"max=50"`
	Communication       string   `json:"communication" validate:"max=100"`
	Toileting           string   `json:"toileting" validate:"max=100"`
	SupportReceived     []string `json:"supportReceived" validate:"dive,max=100"`
	Diagnoses           []string `json:"diagnoses" validate:"dive,max=100"`
}

func (req childRequest) input() service.ChildInput {
	return service.ChildInput{
		FullName:            req.FullName,
		DateOfBirth:         req.DateOfBirth,
		PersonalizationType: req.PersonalizationType,
		LearningStage:       req.LearningStage,
		AgeGroup:            req.AgeGroup,
		Communication:       req.Communication,
		Toileting:           req.Toileting,
		SupportReceived:     req.SupportReceived,
		Diagnoses:           req.Diagnoses,
	}
}

type behaviorRequest struct {
	Labels     []string   `json:"labels" validate:"required,min=1,max=50,dive,required,notblank,max=100"`
	OccurredAt *time.Time `json:"occurredAt"`
}

func (h *ChildHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req childRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	child, err := h.childService.Create(r.Context(), GetActorFromContext(r.Context()), req.input())
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusCreated, "Child created", child)
}

// List accepts search, createdAt (YYYY-MM-DD) and the paging parameters
func (h *ChildHandler) List(w http.ResponseWriter, r *http.Request) {
	params := service.ChildListParams{
		SearchTerm: r.URL.Query().Get("search"),
		CreatedAt:  r.URL.Query().Get("createdAt"),
	}
	page, err := h.childService.List(r.Context(), GetActorFromContext(r.Context()), params, listOptions(r))
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", page)
}

func (h *ChildHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	child, err := h.childService.Get(r.Context(), GetActorFromContext(r.Context()), id)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", child)
}

func (h *ChildHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	var req childRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	child, err := h.childService.Update(r.Context(), GetActorFromContext(r.Context()), id, req.input())
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "Child updated", child)
}

func (h *ChildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	if err := h.childService.Delete(r.Context(), GetActorFromContext(r.Context()), id); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithMessage(w, http.StatusOK, "Child deleted")
}

// RecordBehaviors appends one log entry per submitted label
func (h *ChildHandler) RecordBehaviors(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	var req behaviorRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	logs, err := h.behaviorService.Record(r.Context(), GetActorFromContext(r.Context()), id, req.Labels, req.OccurredAt)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusCreated, "Behavior recorded", logs)
}

func (h *ChildHandler) ListBehaviors(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	logs, err := h.behaviorService.ListForChild(r.Context(), GetActorFromContext(r.Context()), id, r.URL.Query().Get("period"))
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", logs)
}

// SelectedBehaviors lists the labels already logged today
func (h *ChildHandler) SelectedBehaviors(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	labels, err := h.behaviorService.SelectedBehaviors(r.Context(), GetActorFromContext(r.Context()), id)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	if labels == nil {
		labels = []string{}
	}
	respondWithData(w, http.StatusOK, "", labels)
}

// Dashboard aggregates the child's week or month (?period=week|month)
func (h *ChildHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	summary, err := h.analyticsService.ChildDashboard(r.Context(), GetActorFromContext(r.Context()), id, r.URL.Query().Get("period"))
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", summary)
}
