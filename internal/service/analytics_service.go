package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"carenest/internal/access"
	"carenest/internal/analytics"
	"carenest/internal/apperr"
	"carenest/internal/models"
	"carenest/internal/repository"
)

// MonthGrowth is the number of users that joined in one month
type MonthGrowth struct {
	Month      string `json:"month"`
	Count      int    `json:"count"`
	Cumulative int    `json:"cumulative"`
}

// Overview is the admin dashboard
type Overview struct {
	Year          int           `json:"year"`
	TotalUsers    int           `json:"totalUsers"`
	Parents       int           `json:"parents"`
	Caregivers    int           `json:"caregivers"`
	Children      int           `json:"children"`
	Articles      int           `json:"articles"`
	MonthlyGrowth []MonthGrowth `json:"monthlyGrowth"`
}

// AnalyticsService builds child dashboards and the admin overview
type AnalyticsService struct {
	aggregator *analytics.Aggregator
	resolver   *access.Resolver
	users      *repository.UserRepository
	children   *repository.ChildRepository
	library    *repository.LibraryRepository
	loc        *time.Location
	now        func() time.Time
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(aggregator *analytics.Aggregator, resolver *access.Resolver, users *repository.UserRepository, children *repository.ChildRepository, library *repository.LibraryRepository, loc *time.Location) *AnalyticsService {
	return &AnalyticsService{
		aggregator: aggregator,
		resolver:   resolver,
		users:      users,
		children:   children,
		library:    library,
		loc:        loc,
		now:        time.Now,
	}
}

// ChildDashboard aggregates a child's logs for the current week or month
func (s *AnalyticsService) ChildDashboard(ctx context.Context, actor models.Actor, childID int64, period string) (*analytics.Summary, error) {
	p, err := analytics.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	child, _, err := s.resolver.AuthorizeChild(ctx, actor, childID)
	if err != nil {
		return nil, err
	}

	w := analytics.ComputeWindow(p, s.now().In(s.loc))
	summary, err := s.aggregator.Aggregate(ctx, analytics.Subject{ChildID: child.ID, OwnerID: child.CreatorID}, w)
	if err != nil {
		return nil, apperr.Upstream("failed to build dashboard", err)
	}
	return summary, nil
}

// Overview reports platform totals and monthly user growth for year.
// A zero year means the current one.
func (s *AnalyticsService) Overview(ctx context.Context, actor models.Actor, year int) (*Overview, error) {
	if !actor.IsAdmin() {
		return nil, apperr.AccessDenied("Admin access required")
	}
	if year == 0 {
		year = s.now().In(s.loc).Year()
	}
	if year < 1970 || year > 9999 {
		return nil, apperr.Validation("invalid year %d", year)
	}

	out := &Overview{Year: year}
	var (
		roles  map[models.Role]int
		times  []time.Time
		before int
	)

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, s.loc)
	span := repository.TimeRange{Start: start, End: start.AddDate(1, 0, 0).Add(-time.Millisecond)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		roles, err = s.users.CountByRole(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Children, err = s.children.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Articles, err = s.library.CountArticles(gctx)
		return err
	})
	g.Go(func() (err error) {
		times, before, err = s.users.CreatedTimes(gctx, span)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Upstream("failed to build overview", err)
	}

	for _, n := range roles {
		out.TotalUsers += n
	}
	out.Parents = roles[models.RoleParent]
	out.Caregivers = roles[models.RoleCaregiver]
	out.MonthlyGrowth = monthlyGrowth(times, before, s.loc)
	return out, nil
}

// monthlyGrowth buckets creation times into the twelve months of their year
func monthlyGrowth(times []time.Time, before int, loc *time.Location) []MonthGrowth {
	var counts [12]int
	for _, t := range times {
		counts[t.In(loc).Month()-1]++
	}

	growth := make([]MonthGrowth, 12)
	running := before
	for i := range growth {
		running += counts[i]
		growth[i] = MonthGrowth{
			Month:      time.Month(i + 1).String(),
			Count:      counts[i],
			Cumulative: running,
		}
	}
	return growth
}
