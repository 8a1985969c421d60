package service

import (
	"context"
	"strings"
	"time"

	"carenest/internal/access"
	"carenest/internal/apperr"
	"carenest/internal/models"
	"carenest/internal/repository"
)

// RecordService manages documents, notes and providers attached to a child.
// Every operation first authorizes the child against the effective owner.
type RecordService struct {
	documents *repository.DocumentRepository
	notes     *repository.NoteRepository
	providers *repository.ProviderRepository
	resolver  *access.Resolver
	loc       *time.Location
}

// NewRecordService creates a new child record service
func NewRecordService(documents *repository.DocumentRepository, notes *repository.NoteRepository, providers *repository.ProviderRepository, resolver *access.Resolver, loc *time.Location) *RecordService {
	return &RecordService{documents: documents, notes: notes, providers: providers, resolver: resolver, loc: loc}
}

// notOwnedBy reports a record that exists under a different child as absent
func notOwnedBy(childID, recordChildID int64) bool {
	return childID != recordChildID
}

// Documents

// DocumentInput carries the editable fields of a document
type DocumentInput struct {
	Title    string
	FileURL  string
	FileType string
}

func (in DocumentInput) validate() error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.FileURL) == "" {
		return apperr.Validation("title and file URL are required")
	}
	return nil
}

// CreateDocument attaches a document to a child
func (s *RecordService) CreateDocument(ctx context.Context, actor models.Actor, childID int64, in DocumentInput) (*models.ChildDocument, error) {
	if _, _, err := s.resolver.AuthorizeChild(ctx, actor, childID); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	d := &models.ChildDocument{ChildID: childID, Title: strings.TrimSpace(in.Title), FileURL: in.FileURL, FileType: in.FileType}
	if err := s.documents.Create(ctx, d); err != nil {
		return nil, apperr.Upstream("failed to create document", err)
	}
	return d, nil
}

// ListDocuments returns a page of a child's documents
func (s *RecordService) ListDocuments(ctx context.Context, actor models.Actor, childID int64, search string, opts models.ListOptions) (models.Page[models.ChildDocument], error) {
	if _, _, err := s.resolver.AuthorizeChild(ctx, actor, childID); err != nil {
		return models.Page[models.ChildDocument]{}, err
	}
	opts = opts.Normalize()
	docs, total, err := s.documents.ListByChild(ctx, childID, search, opts)
	if err != nil {
		return models.Page[models.ChildDocument]{}, apperr.Upstream("failed to list documents", err)
	}
	return models.NewPage(docs, total, opts), nil
}

// GetDocument returns one document of a child
func (s *RecordService) GetDocument(ctx context.Context, actor models.Actor, childID, id int64) (*models.ChildDocument, error) {
	if _, _, err := s.resolver.AuthorizeChild(ctx, actor, childID); err != nil {
		return nil, err
	}
	d, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Upstream("failed to load document", err)
	}
	if d == nil || notOwnedBy(childID, d.ChildID) {
		return nil, apperr.NotFound("Document not found")
	}
	return d, nil
}

// UpdateDocument replaces a document's title and file
func (s *RecordService) UpdateDocument(ctx context.Context, actor models.Actor, childID, id int64, in DocumentInput) (*models.ChildDocument, error) {
	d, err := s.GetDocument(ctx, actor, childID, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	d.Title = strings.TrimSpace(in.Title)
	d.FileURL = in.FileURL
	d.FileType = in.FileType
	if err := s.documents.Update(ctx, d); err != nil {
		return nil, storeErr(err, "update document", "Document not found")
	}
	return d, nil
}

// DeleteDocument removes a document
func (s *RecordService) DeleteDocument(ctx context.Context, actor models.Actor, childID, id int64) error {
	if _, err := s.GetDocument(ctx, actor, childID, id); err != nil {
		return err
	}
	return storeErr(s.documents.Delete(ctx, id), "delete document", "Document not found")
}

// Notes

// NoteInput carries the editable fields of a note. Date applies to
// health-care notes and Image to sensory notes.
type NoteInput struct {
	Title       string
	Description string
	Date        string
	Image       string
}

// NoteListParams are the list filters accepted from requests
type NoteListParams struct {
	SearchTerm string
	CreatedAt  string
}

func (s *RecordService) applyNote(n *models.Note, in NoteInput) error {
	n.Title = strings.TrimSpace(in.Title)
	n.Description = in.Description
	if n.Title == "" {
		return apperr.Validation("title is required")
	}
	switch n.Kind {
	case models.NoteKindHealthCare:
		if in.Date != "" {
			if _, _, err := parseDay(in.Date, s.loc); err != nil {
				return err
			}
		}
		n.Date = in.Date
	case models.NoteKindSensory:
		n.Image = in.Image
	default:
		return apperr.Validation("unknown note kind %q", n.Kind)
	}
	return nil
}

// CreateNote adds a note of the given kind to a child
func (s *RecordService) CreateNote(ctx context.Context, actor models.Actor, kind models.NoteKind, childID int64, in NoteInput) (*models.Note, error) {
	if _, _, err := s.resolver.AuthorizeChild(ctx, actor, childID); err != nil {
		return nil, err
	}
	n := &models.Note{ChildID: childID, Kind: kind}
	if err := s.applyNote(n, in); err != nil {
		return nil, err
	}
	if err := s.notes.Create(ctx, n); err != nil {
		return nil, apperr.Upstream("failed to create note", err)
	}
	return n, nil
}

// ListNotes returns a page of a child's notes of one kind
func (s *RecordService) ListNotes(ctx context.Context, actor models.Actor, kind models.NoteKind, childID int64, p NoteListParams, opts models.ListOptions) (models.Page[models.Note], error) {
	if _, _, err := s.resolver.AuthorizeChild(ctx, actor, childID); err != nil {
		return models.Page[models.Note]{}, err
	}
	f := repository.NoteFilter{SearchTerm: p.SearchTerm}
	if p.CreatedAt != "" {
		start, end, err := parseDay(p.CreatedAt, s.loc)
		if err != nil {
			return models.Page[models.Note]{}, err
		}
		f.Created = &repository.TimeRange{Start: start, End: end}
	}

	opts = opts.Normalize()
	notes, total, err := s.notes.ListByChild(ctx, kind, childID, f, opts)
	if err != nil {
		return models.Page[models.Note]{}, apperr.Upstream("failed to list notes", err)
	}
	return models.NewPage(notes, total, opts), nil
}

// GetNote returns one note of a child
func (s *RecordService) GetNote(ctx context.Context, actor models.Actor, kind models.NoteKind, childID, id int64) (*models.Note, error) {
	if _, _, err := s.resolver.AuthorizeChild(ctx, actor, childID); err != nil {
		return nil, err
	}
	n, err := s.notes.GetByID(ctx, kind, id)
	if err != nil {
		return nil, apperr.Upstream("failed to load note", err)
	}
	if n == nil || notOwnedBy(childID, n.ChildID) {
		return nil, apperr.NotFound("Note not found")
	}
	return n, nil
}

// UpdateNote replaces a note's fields
func (s *RecordService) UpdateNote(ctx context.Context, actor models.Actor, kind models.NoteKind, childID, id int64, in NoteInput) (*models.Note, error) {
	n, err := s.GetNote(ctx, actor, kind, childID, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyNote(n, in); err != nil {
		return nil, err
	}
	if err := s.notes.Update(ctx, n); err != nil {
		return nil, storeErr(err, "update note", "Note not found")
	}
	return n, nil
}

// DeleteNote removes a note
func (s *RecordService) DeleteNote(ctx context.Context, actor models.Actor, kind models.NoteKind, childID, id int64) error {
	if _, err := s.GetNote(ctx, actor, kind, childID, id); err != nil {
		return err
	}
	return storeErr(s.notes.Delete(ctx, kind, id), "delete note", "Note not found")
}

// Providers

// ProviderInput carries the editable fields of a provider
type ProviderInput struct {
	FullName  string
	Email     string
	Phone     string
	Specialty string
	Status    string
}

func applyProvider(p *models.Provider, in ProviderInput) error {
	p.FullName = strings.TrimSpace(in.FullName)
	p.Email = normalizeEmail(in.Email)
	p.Phone = strings.TrimSpace(in.Phone)
	p.Specialty = in.Specialty
	if p.FullName == "" {
		return apperr.Validation("full name is required")
	}
	switch status := models.ProviderStatus(strings.ToUpper(in.Status)); status {
	case "":
		if p.Status == "" {
			p.Status = models.ProviderStatusActive
		}
	case models.ProviderStatusActive, models.ProviderStatusInactive:
		p.Status = status
	default:
		return apperr.Validation("status must be ACTIVE or INACTIVE")
	}
	return nil
}

// CreateProvider attaches a provider to a child
func (s *RecordService) CreateProvider(ctx context.Context, actor models.Actor, childID int64, in ProviderInput) (*models.Provider, error) {
	if _, _, err := s.resolver.AuthorizeChild(ctx, actor, childID); err != nil {
		return nil, err
	}
	p := &models.Provider{ChildID: childID}
	if err := applyProvider(p, in); err != nil {
		return nil, err
	}
	if err := s.providers.Create(ctx, p); err != nil {
		return nil, apperr.Upstream("failed to create provider", err)
	}
	return p, nil
}

// ListProviders returns a page of a child's providers
func (s *RecordService) ListProviders(ctx context.Context, actor models.Actor, childID int64, f repository.ProviderFilter, opts models.ListOptions) (models.Page[models.Provider], error) {
	if _, _, err := s.resolver.AuthorizeChild(ctx, actor, childID); err != nil {
		return models.Page[models.Provider]{}, err
	}
	opts = opts.Normalize()
	providers, total, err := s.providers.ListByChild(ctx, childID, f, opts)
	if err != nil {
		return models.Page[models.Provider]{}, apperr.Upstream("failed to list providers", err)
	}
	return models.NewPage(providers, total, opts), nil
}

// GetProvider returns one provider of a child
func (s *RecordService) GetProvider(ctx context.Context, actor models.Actor, childID, id int64) (*models.Provider, error) {
	if _, _, err := s.resolver.AuthorizeChild(ctx, actor, childID); err != nil {
		return nil, err
	}
	p, err := s.providers.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Upstream("failed to load provider", err)
	}
	if p == nil || notOwnedBy(childID, p.ChildID) {
		return nil, apperr.NotFound("Provider not found")
	}
	return p, nil
}

// UpdateProvider replaces a provider's fields
func (s *RecordService) UpdateProvider(ctx context.Context, actor models.Actor, childID, id int64, in ProviderInput) (*models.Provider, error) {
	p, err := s.GetProvider(ctx, actor, childID, id)
	if err != nil {
		return nil, err
	}
	if err := applyProvider(p, in); err != nil {
		return nil, err
	}
	if err := s.providers.Update(ctx, p); err != nil {
		return nil, storeErr(err, "update provider", "Provider not found")
	}
	return p, nil
}

// DeleteProvider removes a provider
func (s *RecordService) DeleteProvider(ctx context.Context, actor models.Actor, childID, id int64) error {
	if _, err := s.GetProvider(ctx, actor, childID, id); err != nil {
		return err
	}
	return storeErr(s.providers.Delete(ctx, id), "delete provider", "Provider not found")
}
