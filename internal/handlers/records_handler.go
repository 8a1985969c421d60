package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"carenest/internal/models"
	"carenest/internal/repository"
	"carenest/internal/service"
)

// RecordHandler serves the documents, notes and providers of a child.
// Every route carries the child as {childId}.
type RecordHandler struct {
	recordService *service.RecordService
	logger        *zap.Logger
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(recordService *service.RecordService, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{recordService: recordService, logger: logger}
}

type documentRequest struct {
	Title    string `json:"title" validate:"required,notblank,max=200"`
	FileURL  string `json:"fileUrl" validate:"required,url"`
	FileType string `json:"fileType" validate:"max=50"`
}

type noteRequest struct {
	Title       string `json:"title" validate:"required,notblank,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Date        string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Image       string `json:"image" validate:"omitempty,url"`
}

type providerRequest struct {
	FullName  string `json:"fullName" validate:"required,notblank,max=100"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"max=30"`
	Specialty string `json:"specialty" validate:"max=100"`
	Status    string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// childAndID reads {childId} and, when withID is set, {id}
func childAndID(r *http.Request, withID bool) (childID, id int64, err error) {
	if childID, err = pathID(r, "childId"); err != nil {
		return 0, 0, err
	}
	if withID {
		id, err = pathID(r, "id")
	}
	return childID, id, err
}

// Documents

func (h *RecordHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	childID, _, err := childAndID(r, false)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	var req documentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	doc, err := h.recordService.CreateDocument(r.Context(), GetActorFromContext(r.Context()), childID,
		service.DocumentInput{Title: req.Title, FileURL: req.FileURL, FileType: req.FileType})
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusCreated, "Document added", doc)
}

func (h *RecordHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	childID, _, err := childAndID(r, false)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	page, err := h.recordService.ListDocuments(r.Context(), GetActorFromContext(r.Context()), childID,
		r.URL.Query().Get("search"), listOptions(r))
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", page)
}

func (h *RecordHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	childID, id, err := childAndID(r, true)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	doc, err := h.recordService.GetDocument(r.Context(), GetActorFromContext(r.Context()), childID, id)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", doc)
}

func (h *RecordHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	childID, id, err := childAndID(r, true)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	var req documentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	doc, err := h.recordService.UpdateDocument(r.Context(), GetActorFromContext(r.Context()), childID, id,
		service.DocumentInput{Title: req.Title, FileURL: req.FileURL, FileType: req.FileType})
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "Document updated", doc)
}

func (h *RecordHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	childID, id, err := childAndID(r, true)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	if err := h.recordService.DeleteDocument(r.Context(), GetActorFromContext(r.Context()), childID, id); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithMessage(w, http.StatusOK, "Document deleted")
}

// Notes. The same handlers serve both note kinds; the router binds the kind.

func (h *RecordHandler) CreateNote(kind models.NoteKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		childID, _, err := childAndID(r, false)
		if err != nil {
			respondWithError(w, r, h.logger, err)
			return
		}
		var req noteRequest
		if err := decodeAndValidate(r, &req); err != nil {
			respondWithError(w, r, h.logger, err)
			return
		}
		note, err := h.recordService.CreateNote(r.Context(), GetActorFromContext(r.Context()), kind, childID, req.input())
		if err != nil {
			respondWithError(w, r, h.logger, err)
			return
		}
		respondWithData(w, http.StatusCreated, "Note added", note)
	}
}

func (h *RecordHandler) ListNotes(kind models.NoteKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		childID, _, err := childAndID(r, false)
		if err != nil {
			respondWithError(w, r, h.logger, err)
			return
		}
		params := service.NoteListParams{
			SearchTerm: r.URL.Query().Get("search"),
			CreatedAt:  r.URL.Query().Get("createdAt"),
		}
		page, err := h.recordService.ListNotes(r.Context(), GetActorFromContext(r.Context()), kind, childID, params, listOptions(r))
		if err != nil {
			respondWithError(w, r, h.logger, err)
			return
		}
		respondWithData(w, http.StatusOK, "", page)
	}
}

func (h *RecordHandler) GetNote(kind models.NoteKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		childID, id, err := childAndID(r, true)
		if err != nil {
			respondWithError(w, r, h.logger, err)
			return
		}
		note, err := h.recordService.GetNote(r.Context(), GetActorFromContext(r.Context()), kind, childID, id)
		if err != nil {
			respondWithError(w, r, h.logger, err)
			return
		}
		respondWithData(w, http.StatusOK, "", note)
	}
}

func (h *RecordHandler) UpdateNote(kind models.NoteKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		childID, id, err := childAndID(r, true)
		if err != nil {
			respondWithError(w, r, h.logger, err)
			return
		}
		var req noteRequest
		if err := decodeAndValidate(r, &req); err != nil {
			respondWithError(w, r, h.logger, err)
			return
		}
		note, err := h.recordService.UpdateNote(r.Context(), GetActorFromContext(r.Context()), kind, childID, id, req.input())
		if err != nil {
			respondWithError(w, r, h.logger, err)
			return
		}
		respondWithData(w, http.StatusOK, "Note updated", note)
	}
}

func (h *RecordHandler) DeleteNote(kind models.NoteKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		childID, id, err := childAndID(r, true)
		if err != nil {
			respondWithError(w, r, h.logger, err)
			return
		}
		if err := h.recordService.DeleteNote(r.Context(), GetActorFromContext(r.Context()), kind, childID, id); err != nil {
			respondWithError(w, r, h.logger, err)
			return
		}
		respondWithMessage(w, http.StatusOK, "Note deleted")
	}
}

func (req noteRequest) input() service.NoteInput {
	return service.NoteInput{Title: req.Title, Description: req.Description, Date: req.Date, Image: req.Image}
}

// Providers

func (req providerRequest) input() service.ProviderInput {
	return service.ProviderInput{
		FullName:  req.FullName,
		Email:     req.Email,
		Phone:     req.Phone,
		Specialty: req.Specialty,
		Status:    req.Status,
	}
}

func (h *RecordHandler) CreateProvider(w http.ResponseWriter, r *http.Request) {
	childID, _, err := childAndID(r, false)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	var req providerRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	provider, err := h.recordService.CreateProvider(r.Context(), GetActorFromContext(r.Context()), childID, req.input())
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusCreated, "Provider added", provider)
}

// ListProviders accepts search and status filters
func (h *RecordHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	childID, _, err := childAndID(r, false)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	filter := repository.ProviderFilter{
		SearchTerm: r.URL.Query().Get("search"),
		Statuses:   queryList(r, "status"),
	}
	page, err := h.recordService.ListProviders(r.Context(), GetActorFromContext(r.Context()), childID, filter, listOptions(r))
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", page)
}

func (h *RecordHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	childID, id, err := childAndID(r, true)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	provider, err := h.recordService.GetProvider(r.Context(), GetActorFromContext(r.Context()), childID, id)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "", provider)
}

func (h *RecordHandler) UpdateProvider(w http.ResponseWriter, r *http.Request) {
	childID, id, err := childAndID(r, true)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	var req providerRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	provider, err := h.recordService.UpdateProvider(r.Context(), GetActorFromContext(r.Context()), childID, id, req.input())
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithData(w, http.StatusOK, "Provider updated", provider)
}

func (h *RecordHandler) DeleteProvider(w http.ResponseWriter, r *http.Request) {
	childID, id, err := childAndID(r, true)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	if err := h.recordService.DeleteProvider(r.Context(), GetActorFromContext(r.Context()), childID, id); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithMessage(w, http.StatusOK, "Provider deleted")
}
