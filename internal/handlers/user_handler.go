package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"carenest/internal/models"
	"carenest/internal/service"
)

// UserHandler serves the caller's profile and their caregivers
type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

type profileRequest struct {
	FullName string `json:"fullName" validate:"required,notblank,max=100"`
	Phone    string `json:"phone" validate:"max=30"`
}

type caregiverRequest struct {
	FullName string `json:"fullName" validate:"required,notblank,max=100"`
	Email    string `json:"email" validate:"required,email"`
}

// caregiverCreated carries the temporary password back to the parent
type caregiverCreated struct {
	User              *models.User `json:"user"`
	TemporaryPassword string       `json:"temporaryPassword"`
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetProfile(r.Context(), GetActorFromContext(r.Context()))
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", user)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	user, err := h.userService.UpdateProfile(r.Context(), GetActorFromContext(r.Context()), req.FullName, req.Phone)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "Profile updated", user)
}

// CreateCaregiver adds a caregiver and emails their temporary password
func (h *UserHandler) CreateCaregiver(w http.ResponseWriter, r *http.Request) {
	var req caregiverRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	user, password, err := h.userService.CreateCaregiver(r.Context(), GetActorFromContext(r.Context()), req.FullName, req.Email)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusCreated, "Caregiver created", caregiverCreated{User: user, TemporaryPassword: password})
}

func (h *UserHandler) ListCaregivers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListCaregivers(r.Context(), GetActorFromContext(r.Context()))
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", users)
}

func (h *UserHandler) RemoveCaregiver(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	if err := h.userService.RemoveCaregiver(r.Context(), GetActorFromContext(r.Context()), id); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithMessage(w, http.StatusOK, "Caregiver removed")
}
