package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"carenest/internal/access"
	"carenest/internal/analytics"
	"carenest/internal/apperr"
	"carenest/internal/models"
	"carenest/internal/repository"
)

// ActivityInput carries the editable fields of an activity
type ActivityInput struct {
	Title        string
	Description  string
	Image        string
	ActivityType string
}

// ActivitySummary is the owner-level activity chart
type ActivitySummary struct {
	Period     analytics.Period        `json:"period"`
	Range      analytics.Range         `json:"range"`
	Activities analytics.ActivityStats `json:"activities"`
}

// ActivityService manages activities and their daily completions
type ActivityService struct {
	activities *repository.ActivityRepository
	resolver   *access.Resolver
	aggregator *analytics.Aggregator
	loc        *time.Location
	now        func() time.Time
	logger     *zap.Logger
}

// NewActivityService creates a new activity service
func NewActivityService(activities *repository.ActivityRepository, resolver *access.Resolver, aggregator *analytics.Aggregator, loc *time.Location, logger *zap.Logger) *ActivityService {
	return &ActivityService{
		activities: activities,
		resolver:   resolver,
		aggregator: aggregator,
		loc:        loc,
		now:        time.Now,
		logger:     logger,
	}
}

// Create adds an activity for the owner
func (s *ActivityService) Create(ctx context.Context, actor models.Actor, in ActivityInput) (*models.Activity, error) {
	ownerID, err := s.resolver.ResolveEffectiveOwner(ctx, actor)
	if err != nil {
		return nil, err
	}
	a := &models.Activity{
		OwnerID:      ownerID,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Image:        in.Image,
		ActivityType: in.ActivityType,
	}
	if a.Title == "" {
		return nil, apperr.Validation("title is required")
	}
	if err := s.activities.Create(ctx, a); err != nil {
		return nil, apperr.Upstream("failed to create activity", err)
	}
	return a, nil
}

// List returns a page of the owner's activities
func (s *ActivityService) List(ctx context.Context, actor models.Actor, f repository.ActivityFilter, opts models.ListOptions) (models.Page[models.Activity], error) {
	ownerID, err := s.resolver.ResolveEffectiveOwner(ctx, actor)
	if err != nil {
		return models.Page[models.Activity]{}, err
	}
	opts = opts.Normalize()
	items, total, err := s.activities.ListByOwner(ctx, ownerID, f, opts)
	if err != nil {
		return models.Page[models.Activity]{}, apperr.Upstream("failed to list activities", err)
	}
	return models.NewPage(items, total, opts), nil
}

// Get returns one of the owner's activities
func (s *ActivityService) Get(ctx context.Context, actor models.Actor, id int64) (*models.Activity, error) {
	ownerID, err := s.resolver.ResolveEffectiveOwner(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.owned(ctx, ownerID, id)
}

func (s *ActivityService) owned(ctx context.Context, ownerID, id int64) (*models.Activity, error) {
	a, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Upstream("failed to load activity", err)
	}
	if a == nil {
		return nil, apperr.NotFound("Activity not found")
	}
	if err := access.CheckOwner(ownerID, a.OwnerID, "activity"); err != nil {
		return nil, err
	}
	return a, nil
}

// Update replaces the editable fields of an activity
func (s *ActivityService) Update(ctx context.Context, actor models.Actor, id int64, in ActivityInput) (*models.Activity, error) {
	a, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	a.Title = strings.TrimSpace(in.Title)
	a.Description = in.Description
	a.Image = in.Image
	a.ActivityType = in.ActivityType
	if a.Title == "" {
		return nil, apperr.Validation("title is required")
	}
	if err := s.activities.Update(ctx, a); err != nil {
		return nil, storeErr(err, "update activity", "Activity not found")
	}
	return a, nil
}

// Delete removes an activity and its history
func (s *ActivityService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	return storeErr(s.activities.Delete(ctx, id), "delete activity", "Activity not found")
}

// MarkCompleted records today's completion of an activity. Each activity
// can be completed once per calendar day of the configured time zone.
func (s *ActivityService) MarkCompleted(ctx context.Context, actor models.Actor, activityID int64, childID *int64) (*models.ActivityCompletion, error) {
	ownerID, err := s.resolver.ResolveEffectiveOwner(ctx, actor)
	if err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, ownerID, activityID); err != nil {
		return nil, err
	}
	if childID != nil {
		if _, _, err := s.resolver.AuthorizeChild(ctx, actor, *childID); err != nil {
			return nil, err
		}
	}

	now := s.now().In(s.loc)
	today := analytics.DayWindow(now)
	done, err := s.activities.HasCompletionBetween(ctx, ownerID, activityID, today.Start, today.End)
	if err != nil {
		return nil, apperr.Upstream("failed to check completion", err)
	}
	if done {
		return nil, apperr.Conflict("Activity already marked as completed today")
	}

	c := &models.ActivityCompletion{
		ActivityID:   activityID,
		OwnerID:      ownerID,
		ChildID:      childID,
		CompletedBy:  actor.ID,
		CompletedAt:  now,
		CompletedDay: now.Format("2006-01-02"),
	}
	// The unique index settles completions racing past the check above.
	if err := s.activities.CreateCompletion(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("Activity already marked as completed today")
		}
		return nil, apperr.Upstream("failed to record completion", err)
	}
	s.logger.Debug("activity completed", zap.Int64("activity_id", activityID), zap.Int64("owner_id", ownerID))
	return c, nil
}

// Summary returns the owner's activity chart for the period
func (s *ActivityService) Summary(ctx context.Context, actor models.Actor, period string) (*ActivitySummary, error) {
	p, err := analytics.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	ownerID, err := s.resolver.ResolveEffectiveOwner(ctx, actor)
	if err != nil {
		return nil, err
	}

	w := analytics.ComputeWindow(p, s.now().In(s.loc))
	rng, stats, err := s.aggregator.ActivitySummary(ctx, ownerID, w)
	if err != nil {
		return nil, apperr.Upstream("failed to summarise activities", err)
	}
	return &ActivitySummary{Period: p, Range: rng, Activities: stats}, nil
}
