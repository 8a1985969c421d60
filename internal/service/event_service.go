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

// EventInput carries the editable fields of an event
type EventInput struct {
	Title         string
	Description   string
	Image         string
	Date          string // YYYY-MM-DD
	Time          string
	IsForAllChild bool
	ChildIDs      []int64
}

// EventListParams are the list filters accepted from requests
type EventListParams struct {
	Date       string
	ChildID    *int64
	Status     string
	SearchTerm string
}

// EventService manages calendar events of the effective owner
type EventService struct {
	events   *repository.EventRepository
	children *repository.ChildRepository
	resolver *access.Resolver
	loc      *time.Location
	now      func() time.Time
}

// NewEventService creates a new event service
func NewEventService(events *repository.EventRepository, children *repository.ChildRepository, resolver *access.Resolver, loc *time.Location) *EventService {
	return &EventService{events: events, children: children, resolver: resolver, loc: loc, now: time.Now}
}

// validate checks the input and that every selected child belongs to owner
func (s *EventService) validate(ctx context.Context, ownerID int64, in *EventInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return apperr.Validation("title is required")
	}
	if _, _, err := parseDay(in.Date, s.loc); err != nil {
		return err
	}
	if in.IsForAllChild {
		in.ChildIDs = nil
		return nil
	}
	if len(in.ChildIDs) == 0 {
		return apperr.Validation("select at least one child or mark the event for all children")
	}

	in.ChildIDs = dedupeIDs(in.ChildIDs)
	owned, err := s.children.OwnedIDs(ctx, ownerID, in.ChildIDs)
	if err != nil {
		return apperr.Upstream("failed to check children", err)
	}
	for _, id := range in.ChildIDs {
		if !owned[id] {
			return apperr.AccessDenied("You do not have access to child %d", id)
		}
	}
	return nil
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Create adds an event for the owner
func (s *EventService) Create(ctx context.Context, actor models.Actor, in EventInput) (*models.Event, error) {
	ownerID, err := s.resolver.ResolveEffectiveOwner(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, ownerID, &in); err != nil {
		return nil, err
	}

	e := &models.Event{
		OwnerID:       ownerID,
		Title:         in.Title,
		Description:   in.Description,
		Image:         in.Image,
		Date:          in.Date,
		Time:          in.Time,
		IsForAllChild: in.IsForAllChild,
		ChildIDs:      in.ChildIDs,
		Status:        models.EventStatusPending,
	}
	if err := s.events.Create(ctx, e); err != nil {
		return nil, apperr.Upstream("failed to create event", err)
	}
	if e.ChildIDs == nil {
		e.ChildIDs = []int64{}
	}
	return e, nil
}

// List returns a page of the owner's events, on today's date by default
func (s *EventService) List(ctx context.Context, actor models.Actor, p EventListParams, opts models.ListOptions) (models.Page[models.Event], error) {
	ownerID, err := s.resolver.ResolveEffectiveOwner(ctx, actor)
	if err != nil {
		return models.Page[models.Event]{}, err
	}

	f := repository.EventFilter{Date: p.Date, SearchTerm: p.SearchTerm}
	if f.Date == "" {
		f.Date = s.now().In(s.loc).Format("2006-01-02")
	} else if _, _, err := parseDay(f.Date, s.loc); err != nil {
		return models.Page[models.Event]{}, err
	}
	if p.Status != "" {
		status := models.EventStatus(strings.ToUpper(p.Status))
		if status != models.EventStatusPending && status != models.EventStatusCompleted {
			return models.Page[models.Event]{}, apperr.Validation("status must be PENDING or COMPLETED")
		}
		f.Statuses = []string{string(status)}
	}
	if p.ChildID != nil {
		if _, _, err := s.resolver.AuthorizeChild(ctx, actor, *p.ChildID); err != nil {
			return models.Page[models.Event]{}, err
		}
		f.ChildIDs = []int64{*p.ChildID}
	}

	opts = opts.Normalize()
	events, total, err := s.events.ListByOwner(ctx, ownerID, f, opts)
	if err != nil {
		return models.Page[models.Event]{}, apperr.Upstream("failed to list events", err)
	}
	return models.NewPage(events, total, opts), nil
}

// Get returns one of the owner's events
func (s *EventService) Get(ctx context.Context, actor models.Actor, id int64) (*models.Event, error) {
	ownerID, err := s.resolver.ResolveEffectiveOwner(ctx, actor)
	if err != nil {
		return nil, err
	}
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Upstream("failed to load event", err)
	}
	if e == nil {
		return nil, apperr.NotFound("Event not found")
	}
	if err := access.CheckOwner(ownerID, e.OwnerID, "event"); err != nil {
		return nil, err
	}
	return e, nil
}

// Update replaces the editable fields of an event
func (s *EventService) Update(ctx context.Context, actor models.Actor, id int64, in EventInput) (*models.Event, error) {
	e, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, e.OwnerID, &in); err != nil {
		return nil, err
	}

	e.Title = in.Title
	e.Description = in.Description
	e.Image = in.Image
	e.Date = in.Date
	e.Time = in.Time
	e.IsForAllChild = in.IsForAllChild
	e.ChildIDs = in.ChildIDs
	if err := s.events.Update(ctx, e); err != nil {
		return nil, storeErr(err, "update event", "Event not found")
	}
	if e.ChildIDs == nil {
		e.ChildIDs = []int64{}
	}
	return e, nil
}

// MarkCompleted sets the event status to COMPLETED
func (s *EventService) MarkCompleted(ctx context.Context, actor models.Actor, id int64) (*models.Event, error) {
	e, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if e.Status == models.EventStatusCompleted {
		return e, nil
	}
	e.Status = models.EventStatusCompleted
	if err := s.events.Update(ctx, e); err != nil {
		return nil, storeErr(err, "complete event", "Event not found")
	}
	return e, nil
}

// Delete soft-deletes an event
func (s *EventService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	return storeErr(s.events.SoftDelete(ctx, id), "delete event", "Event not found")
}
