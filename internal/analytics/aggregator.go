package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"carenest/internal/models"
)

// Behavior labels understood by the dashboard.
const (
	LabelPottyAttempt = "Potty Attempt"
	LabelPottySuccess = "Potty Success"
	FoodLabelPrefix   = "Tried "
)

// PositiveLabels is the allow-list of positive-moment labels, in display order.
var PositiveLabels = []string{
	"Used Kind Words",
	"Shared With Others",
	"Followed Directions",
	"Stayed Calm",
	"Helped Out",
	"Good Listening",
	"Brave Moment",
}

// BehaviorQuery selects behavior logs of one child inside a window.
// Labels and LabelPrefix narrow the result when set.
type BehaviorQuery struct {
	ChildID     int64
	Start       time.Time
	End         time.Time
	Labels      []string
	LabelPrefix string
}

// BehaviorSource reads behavior logs.
type BehaviorSource interface {
	ListBehaviorLogs(ctx context.Context, q BehaviorQuery) ([]models.BehaviorLog, error)
}

// CompletionQuery selects activity completions of an owner inside a window.
// A non-zero ChildID keeps only completions recorded for that child.
type CompletionQuery struct {
	OwnerID int64
	ChildID int64
	Start   time.Time
	End     time.Time
}

// CompletionSource reads activity completions, oldest first, with the
// activity title and image filled in.
type CompletionSource interface {
	ListCompletions(ctx context.Context, q CompletionQuery) ([]models.ActivityCompletion, error)
}

// Subject identifies whose data is aggregated.
type Subject struct {
	ChildID int64
	OwnerID int64
}

// Summary is the dashboard for one child and window.
type Summary struct {
	Period     Period        `json:"period"`
	Range      Range         `json:"range"`
	Potty      PottyStats    `json:"potty"`
	Foods      FoodStats     `json:"foods"`
	Positive   PositiveStats `json:"positive"`
	Activities ActivityStats `json:"activities"`
}

// PottyStats reports toileting progress. Attempts counts every try, successful
// or not, so Percentage is Successes over Attempts.
type PottyStats struct {
	Percentage string `json:"percentage"`
	Successes  int    `json:"successes"`
	Attempts   int    `json:"attempts"`
}

// FoodEntry is one food trial.
type FoodEntry struct {
	Food string `json:"food"`
	Day  string `json:"day"`
}

// FoodStats reports distinct foods tried plus every trial.
type FoodStats struct {
	Count int         `json:"count"`
	Foods []string    `json:"foods"`
	List  []FoodEntry `json:"list"`
}

// PositiveStats reports positive moments per allow-listed label.
type PositiveStats struct {
	Total     int            `json:"total"`
	Breakdown map[string]int `json:"breakdown"`
}

// DayCount is one bar of the activity chart.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// ActivityEntry is one completed activity.
type ActivityEntry struct {
	Title string `json:"title"`
	Image string `json:"image"`
	Day   string `json:"day"`
}

// ActivityStats reports completed activities, days listed Monday first.
type ActivityStats struct {
	TotalActivityDays int             `json:"totalActivityDays"`
	DailyCounts       []DayCount      `json:"dailyCounts"`
	Breakdown         []ActivityEntry `json:"breakdown"`
}

// Aggregator builds dashboards from behavior logs and activity completions.
type Aggregator struct {
	behaviors   BehaviorSource
	completions CompletionSource
	logger      *zap.Logger
}

// NewAggregator creates an aggregator.
func NewAggregator(behaviors BehaviorSource, completions CompletionSource, logger *zap.Logger) *Aggregator {
	return &Aggregator{behaviors: behaviors, completions: completions, logger: logger}
}

// Aggregate runs the four category aggregations concurrently. The first
// failure cancels the rest and is returned; there is no partial result.
func (a *Aggregator) Aggregate(ctx context.Context, subject Subject, w Window) (*Summary, error) {
	summary := &Summary{Period: w.Period, Range: w.Range()}
	loc := w.Start.Location()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logs, err := a.behaviors.ListBehaviorLogs(gctx, BehaviorQuery{
			ChildID: subject.ChildID, Start: w.Start, End: w.End,
			Labels: []string{LabelPottyAttempt, LabelPottySuccess},
		})
		if err != nil {
			return fmt.Errorf("potty progress: %w", err)
		}
		summary.Potty = pottyStats(logs)
		return nil
	})

	g.Go(func() error {
		logs, err := a.behaviors.ListBehaviorLogs(gctx, BehaviorQuery{
			ChildID: subject.ChildID, Start: w.Start, End: w.End,
			LabelPrefix: FoodLabelPrefix,
		})
		if err != nil {
			return fmt.Errorf("new foods: %w", err)
		}
		summary.Foods = foodStats(logs, loc)
		return nil
	})

	g.Go(func() error {
		logs, err := a.behaviors.ListBehaviorLogs(gctx, BehaviorQuery{
			ChildID: subject.ChildID, Start: w.Start, End: w.End,
			Labels: PositiveLabels,
		})
		if err != nil {
			return fmt.Errorf("positive moments: %w", err)
		}
		summary.Positive = positiveStats(logs)
		return nil
	})

	g.Go(func() error {
		stats, err := a.activityStats(gctx, CompletionQuery{
			OwnerID: subject.OwnerID, ChildID: subject.ChildID, Start: w.Start, End: w.End,
		})
		if err != nil {
			return err
		}
		summary.Activities = stats
		return nil
	})

	if err := g.Wait(); err != nil {
		a.logger.Warn("dashboard aggregation failed",
			zap.Int64("child_id", subject.ChildID),
			zap.String("period", string(w.Period)),
			zap.Error(err))
		return nil, err
	}
	return summary, nil
}

// ActivitySummary aggregates only the activity chart of an owner, across
// all of the owner's children.
func (a *Aggregator) ActivitySummary(ctx context.Context, ownerID int64, w Window) (Range, ActivityStats, error) {
	stats, err := a.activityStats(ctx, CompletionQuery{OwnerID: ownerID, Start: w.Start, End: w.End})
	return w.Range(), stats, err
}

func (a *Aggregator) activityStats(ctx context.Context, q CompletionQuery) (ActivityStats, error) {
	completions, err := a.completions.ListCompletions(ctx, q)
	if err != nil {
		return ActivityStats{}, fmt.Errorf("activity completions: %w", err)
	}
	return activityStats(completions, q.Start.Location()), nil
}

func pottyStats(logs []models.BehaviorLog) PottyStats {
	var attempts, successes int
	for _, l := range logs {
		switch l.Label {
		case LabelPottyAttempt:
			attempts++
		case LabelPottySuccess:
			successes++
		}
	}

	total := attempts + successes
	return PottyStats{
		Percentage: formatPercentage(successes, total),
		Successes:  successes,
		Attempts:   total,
	}
}

func formatPercentage(part, total int) string {
	if total == 0 {
		return "0 %"
	}
	return fmt.Sprintf("%d %%", int(math.Round(float64(part)/float64(total)*100)))
}

func foodStats(logs []models.BehaviorLog, loc *time.Location) FoodStats {
	seen := make(map[string]struct{})
	list := make([]FoodEntry, 0, len(logs))

	for _, l := range logs {
		food, ok := strings.CutPrefix(l.Label, FoodLabelPrefix)
		food = strings.TrimSpace(food)
		if !ok || food == "" {
			continue
		}
		seen[food] = struct{}{}
		list = append(list, FoodEntry{Food: food, Day: l.OccurredAt.In(loc).Weekday().String()})
	}

	foods := make([]string, 0, len(seen))
	for f := range seen {
		foods = append(foods, f)
	}
	sort.Strings(foods)

	return FoodStats{Count: len(foods), Foods: foods, List: list}
}

func positiveStats(logs []models.BehaviorLog) PositiveStats {
	breakdown := make(map[string]int, len(PositiveLabels))
	for _, label := range PositiveLabels {
		breakdown[label] = 0
	}

	total := 0
	for _, l := range logs {
		if _, ok := breakdown[l.Label]; ok {
			breakdown[l.Label]++
			total++
		}
	}
	return PositiveStats{Total: total, Breakdown: breakdown}
}

func activityStats(completions []models.ActivityCompletion, loc *time.Location) ActivityStats {
	var counts [7]int
	breakdown := make([]ActivityEntry, 0, len(completions))

	for _, c := range completions {
		at := c.CompletedAt.In(loc)
		counts[mondayIndex(at.Weekday())]++
		breakdown = append(breakdown, ActivityEntry{Title: c.Title, Image: c.Image, Day: at.Weekday().String()})
	}

	daily := make([]DayCount, len(mondayFirstDays))
	active := 0
	for i, day := range mondayFirstDays {
		daily[i] = DayCount{Day: day, Count: counts[i]}
		if counts[i] > 0 {
			active++
		}
	}

	return ActivityStats{TotalActivityDays: active, DailyCounts: daily, Breakdown: breakdown}
}
