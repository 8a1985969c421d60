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

// ChildInput carries the editable fields of a child profile
type ChildInput struct {
	FullName            string
	DateOfBirth         string
	PersonalizationType string
	LearningStage       string
	AgeGroup            string
	Communication       string
	Toileting           string
	SupportReceived     []string
	Diagnoses           []string
}

func (in ChildInput) apply(c *models.Child) {
	c.FullName = strings.TrimSpace(in.FullName)
	c.DateOfBirth = in.DateOfBirth
	c.PersonalizationType = in.PersonalizationType
	c.LearningStage = in.LearningStage
	c.AgeGroup = in.AgeGroup
	c.Communication = in.Communication
	c.Toileting = in.Toileting
	c.SupportReceived = in.SupportReceived
	c.Diagnoses = in.Diagnoses
}

// ChildListParams are the list filters accepted from requests
type ChildListParams struct {
	SearchTerm string
	CreatedAt  string // YYYY-MM-DD
}

// ChildService manages child profiles on behalf of the effective owner
type ChildService struct {
	children *repository.ChildRepository
	resolver *access.Resolver
	loc      *time.Location
}

// NewChildService creates a new child service
func NewChildService(children *repository.ChildRepository, resolver *access.Resolver, loc *time.Location) *ChildService {
	return &ChildService{children: children, resolver: resolver, loc: loc}
}

// Create adds a child owned by the actor's effective owner
func (s *ChildService) Create(ctx context.Context, actor models.Actor, in ChildInput) (*models.Child, error) {
	ownerID, err := s.resolver.ResolveEffectiveOwner(ctx, actor)
	if err != nil {
		return nil, err
	}
	child := &models.Child{CreatorID: ownerID}
	in.apply(child)
	if child.FullName == "" {
		return nil, apperr.Validation("full name is required")
	}
	if err := s.children.Create(ctx, child); err != nil {
		return nil, apperr.Upstream("failed to create child", err)
	}
	return child, nil
}

// List returns a page of the owner's children
func (s *ChildService) List(ctx context.Context, actor models.Actor, p ChildListParams, opts models.ListOptions) (models.Page[models.Child], error) {
	ownerID, err := s.resolver.ResolveEffectiveOwner(ctx, actor)
	if err != nil {
		return models.Page[models.Child]{}, err
	}

	filter := repository.ChildFilter{SearchTerm: p.SearchTerm}
	if p.CreatedAt != "" {
		start, end, err := parseDay(p.CreatedAt, s.loc)
		if err != nil {
			return models.Page[models.Child]{}, err
		}
		filter.Created = &repository.TimeRange{Start: start, End: end}
	}

	opts = opts.Normalize()
	children, total, err := s.children.ListByOwner(ctx, ownerID, filter, opts)
	if err != nil {
		return models.Page[models.Child]{}, apperr.Upstream("failed to list children", err)
	}
	return models.NewPage(children, total, opts), nil
}

// Get returns one of the owner's children
func (s *ChildService) Get(ctx context.Context, actor models.Actor, childID int64) (*models.Child, error) {
	child, _, err := s.resolver.AuthorizeChild(ctx, actor, childID)
	return child, err
}

// Update replaces the editable fields of a child
func (s *ChildService) Update(ctx context.Context, actor models.Actor, childID int64, in ChildInput) (*models.Child, error) {
	child, _, err := s.resolver.AuthorizeChild(ctx, actor, childID)
	if err != nil {
		return nil, err
	}
	in.apply(child)
	if child.FullName == "" {
		return nil, apperr.Validation("full name is required")
	}
	if err := s.children.Update(ctx, child); err != nil {
		return nil, storeErr(err, "update child", "Child not found")
	}
	return child, nil
}

// Delete soft-deletes a child
func (s *ChildService) Delete(ctx context.Context, actor models.Actor, childID int64) error {
	if _, _, err := s.resolver.AuthorizeChild(ctx, actor, childID); err != nil {
		return err
	}
	return storeErr(s.children.SoftDelete(ctx, childID), "delete child", "Child not found")
}
