package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"carenest/internal/apperr"
	"carenest/internal/models"
	"carenest/internal/repository"
)

// InspirationInput carries the editable fields of an inspiration
type InspirationInput struct {
	Text string
	Type string
	Date string // YYYY-MM-DD, empty for a manual message
}

// InspirationListParams are the list filters accepted from requests
type InspirationListParams struct {
	SearchTerm string
	Statuses   []string
	Types      []string
}

// InspirationService manages the daily inspiration messages. Admins write
// them; every signed in user reads today's message.
type InspirationService struct {
	inspirations *repository.InspirationRepository
	loc          *time.Location
	now          func() time.Time
	logger       *zap.Logger
}

// NewInspirationService creates a new inspiration service
func NewInspirationService(inspirations *repository.InspirationRepository, loc *time.Location, logger *zap.Logger) *InspirationService {
	return &InspirationService{inspirations: inspirations, loc: loc, now: time.Now, logger: logger}
}

func (s *InspirationService) today() string {
	return s.now().In(s.loc).Format("2006-01-02")
}

func (s *InspirationService) normalize(in *InspirationInput) error {
	in.Text = strings.TrimSpace(in.Text)
	in.Type = strings.TrimSpace(in.Type)
	in.Date = strings.TrimSpace(in.Date)
	if in.Text == "" {
		return apperr.Validation("Text is required")
	}
	if in.Date != "" {
		if _, _, err := parseDay(in.Date, s.loc); err != nil {
			return err
		}
	}
	return nil
}

func requireAdmin(actor models.Actor) error {
	if !actor.IsAdmin() {
		return apperr.AccessDenied("Admin access required")
	}
	return nil
}

// Create stores a message, scheduled when it carries a date
func (s *InspirationService) Create(ctx context.Context, actor models.Actor, in InspirationInput) (*models.Inspiration, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.normalize(&in); err != nil {
		return nil, err
	}

	inspiration := &models.Inspiration{Text: in.Text, Type: in.Type, Date: in.Date, Status: models.InspirationManual}
	if in.Date != "" {
		inspiration.Status = models.InspirationScheduled
	}
	if err := s.inspirations.Create(ctx, inspiration); err != nil {
		return nil, apperr.Upstream("failed to create inspiration", err)
	}
	return inspiration, nil
}

// List returns a page of messages. Admin only.
func (s *InspirationService) List(ctx context.Context, actor models.Actor, p InspirationListParams, opts models.ListOptions) (models.Page[models.Inspiration], error) {
	if err := requireAdmin(actor); err != nil {
		return models.Page[models.Inspiration]{}, err
	}
	opts = opts.Normalize()
	items, total, err := s.inspirations.List(ctx, repository.InspirationFilter{
		SearchTerm: p.SearchTerm,
		Statuses:   p.Statuses,
		Types:      p.Types,
	}, opts)
	if err != nil {
		return models.Page[models.Inspiration]{}, apperr.Upstream("failed to list inspirations", err)
	}
	return models.NewPage(items, total, opts), nil
}

// Get returns one message. Admin only.
func (s *InspirationService) Get(ctx context.Context, actor models.Actor, id int64) (*models.Inspiration, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *InspirationService) load(ctx context.Context, id int64) (*models.Inspiration, error) {
	inspiration, err := s.inspirations.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Upstream("failed to get inspiration", err)
	}
	if inspiration == nil {
		return nil, apperr.NotFound("Inspiration not found")
	}
	return inspiration, nil
}

// Today returns the message to show now: the most recently sent one, else
// one scheduled for today. It returns nil when there is neither.
func (s *InspirationService) Today(ctx context.Context) (*models.Inspiration, error) {
	sent, err := s.inspirations.LatestSent(ctx)
	if err != nil {
		return nil, apperr.Upstream("failed to get inspiration", err)
	}
	if sent != nil {
		return sent, nil
	}
	scheduled, err := s.inspirations.ScheduledFor(ctx, s.today())
	if err != nil {
		return nil, apperr.Upstream("failed to get inspiration", err)
	}
	return scheduled, nil
}

// Send publishes a message by hand
func (s *InspirationService) Send(ctx context.Context, actor models.Actor, id int64) (*models.Inspiration, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	inspiration, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if inspiration.Status == models.InspirationSent {
		return nil, apperr.Validation("Already sent")
	}

	inspiration.Status = models.InspirationSent
	if err := s.inspirations.Update(ctx, inspiration); err != nil {
		return nil, storeErr(err, "send inspiration", "Inspiration not found")
	}
	return inspiration, nil
}

// Update edits a message. Unsent messages are rescheduled from the new date.
func (s *InspirationService) Update(ctx context.Context, actor models.Actor, id int64, in InspirationInput) (*models.Inspiration, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.normalize(&in); err != nil {
		return nil, err
	}
	inspiration, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	inspiration.Text = in.Text
	inspiration.Type = in.Type
	inspiration.Date = in.Date
	if inspiration.Status != models.InspirationSent {
		inspiration.Status = models.InspirationManual
		if in.Date != "" {
			inspiration.Status = models.InspirationScheduled
		}
	}
	if err := s.inspirations.Update(ctx, inspiration); err != nil {
		return nil, storeErr(err, "update inspiration", "Inspiration not found")
	}
	return inspiration, nil
}

// Delete removes a message
func (s *InspirationService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return storeErr(s.inspirations.Delete(ctx, id), "delete inspiration", "Inspiration not found")
}

// PublishDue marks scheduled messages from earlier days as sent
func (s *InspirationService) PublishDue(ctx context.Context) (int64, error) {
	n, err := s.inspirations.MarkScheduledSentBefore(ctx, s.today())
	if err != nil {
		return 0, apperr.Upstream("failed to publish inspirations", err)
	}
	return n, nil
}

// RunPublisher calls PublishDue every interval until ctx is done
func (s *InspirationService) RunPublisher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PublishDue(ctx)
			if err != nil {
				s.logger.Error("publishing scheduled inspirations failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Info("published scheduled inspirations", zap.Int64("count", n))
			}
		}
	}
}
