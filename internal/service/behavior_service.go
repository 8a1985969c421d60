package service

import (
	"context"
	"strings"
	"time"

	"carenest/internal/access"
	"carenest/internal/analytics"
	"carenest/internal/apperr"
	"carenest/internal/models"
	"carenest/internal/repository"
)

// BehaviorService records and reads behavior logs of a child
type BehaviorService struct {
	logs     *repository.BehaviorRepository
	resolver *access.Resolver
	loc      *time.Location
	now      func() time.Time
}

// NewBehaviorService creates a new behavior service
func NewBehaviorService(logs *repository.BehaviorRepository, resolver *access.Resolver, loc *time.Location) *BehaviorService {
	return &BehaviorService{logs: logs, resolver: resolver, loc: loc, now: time.Now}
}

// Record appends one log entry per label. occurredAt defaults to now.
func (s *BehaviorService) Record(ctx context.Context, actor models.Actor, childID int64, labels []string, occurredAt *time.Time) ([]*models.BehaviorLog, error) {
	if _, _, err := s.resolver.AuthorizeChild(ctx, actor, childID); err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, apperr.Validation("at least one label is required")
	}

	at := s.now()
	if occurredAt != nil {
		at = *occurredAt
	}

	entries := make([]*models.BehaviorLog, 0, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			return nil, apperr.Validation("labels must not be empty")
		}
		entries = append(entries, &models.BehaviorLog{ChildID: childID, Label: label, OccurredAt: at, RecordedBy: actor.ID})
	}

	if err := s.logs.CreateMany(ctx, entries); err != nil {
		return nil, apperr.Upstream("failed to record behavior", err)
	}
	return entries, nil
}

// ListForChild returns the child's logs inside the period window
func (s *BehaviorService) ListForChild(ctx context.Context, actor models.Actor, childID int64, period string) ([]models.BehaviorLog, error) {
	p, err := analytics.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.resolver.AuthorizeChild(ctx, actor, childID); err != nil {
		return nil, err
	}

	w := analytics.ComputeWindow(p, s.now().In(s.loc))
	logs, err := s.logs.ListBehaviorLogs(ctx, analytics.BehaviorQuery{ChildID: childID, Start: w.Start, End: w.End})
	if err != nil {
		return nil, apperr.Upstream("failed to list behavior logs", err)
	}
	if logs == nil {
		logs = []models.BehaviorLog{}
	}
	return logs, nil
}

// SelectedBehaviors returns the distinct labels logged for the child today
func (s *BehaviorService) SelectedBehaviors(ctx context.Context, actor models.Actor, childID int64) ([]string, error) {
	if _, _, err := s.resolver.AuthorizeChild(ctx, actor, childID); err != nil {
		return nil, err
	}
	today := analytics.DayWindow(s.now().In(s.loc))
	labels, err := s.logs.DistinctLabels(ctx, childID, today.Start, today.End)
	if err != nil {
		return nil, apperr.Upstream("failed to load selected behaviors", err)
	}
	return labels, nil
}
