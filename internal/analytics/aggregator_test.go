package analytics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carenest/internal/models"
)

// memoryLogs filters an in-memory slice the way the repository filters rows.
type memoryLogs struct {
	mu    sync.Mutex
	logs  []models.BehaviorLog
	calls int
	err   error
}

func (m *memoryLogs) ListBehaviorLogs(_ context.Context, q BehaviorQuery) ([]models.BehaviorLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}

	var out []models.BehaviorLog
	for _, l := range m.logs {
		if l.ChildID != q.ChildID || l.OccurredAt.Before(q.Start) || l.OccurredAt.After(q.End) {
			continue
		}
		if len(q.Labels) > 0 && !contains(q.Labels, l.Label) {
			continue
		}
		if q.LabelPrefix != "" && !strings.HasPrefix(l.Label, q.LabelPrefix) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type memoryCompletions struct {
	completions []models.ActivityCompletion
	err         error
}

func (m *memoryCompletions) ListCompletions(_ context.Context, q CompletionQuery) ([]models.ActivityCompletion, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.ActivityCompletion
	for _, c := range m.completions {
		if c.OwnerID != q.OwnerID || c.CompletedAt.Before(q.Start) || c.CompletedAt.After(q.End) {
			continue
		}
		if q.ChildID != 0 && (c.ChildID == nil || *c.ChildID != q.ChildID) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func forChild(id int64) *int64 { return &id }

// Wednesday 2024-03-13; the week runs Sunday 10th to Saturday 16th.
var refTime = time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)

func day(d, hour int) time.Time {
	return time.Date(2024, 3, d, hour, 0, 0, 0, time.UTC)
}

func logEntry(childID int64, label string, at time.Time) models.BehaviorLog {
	return models.BehaviorLog{ChildID: childID, Label: label, OccurredAt: at}
}

func TestAggregatePottyScenario(t *testing.T) {
	logs := &memoryLogs{logs: []models.BehaviorLog{
		logEntry(1, LabelPottyAttempt, day(11, 8)),
		logEntry(1, LabelPottyAttempt, day(12, 8)),
		logEntry(1, LabelPottySuccess, day(12, 9)),
		logEntry(1, LabelPottySuccess, day(13, 9)),
		logEntry(1, LabelPottySuccess, day(16, 23)),
		// outside the window or another child
		logEntry(1, LabelPottySuccess, day(9, 23)),
		logEntry(2, LabelPottySuccess, day(12, 9)),
	}}
	agg := NewAggregator(logs, &memoryCompletions{}, zap.NewNop())

	summary, err := agg.Aggregate(context.Background(), Subject{ChildID: 1, OwnerID: 100}, ComputeWindow(PeriodWeek, refTime))
	require.NoError(t, err)

	assert.Equal(t, PottyStats{Percentage: "60 %", Successes: 3, Attempts: 5}, summary.Potty)
	assert.Equal(t, PeriodWeek, summary.Period)
	assert.Equal(t, Range{Start: "2024-03-10T00:00:00.000Z", End: "2024-03-16T23:59:59.999Z"}, summary.Range)
	assert.Equal(t, 3, logs.calls)
}

func TestPottyStats(t *testing.T) {
	tests := []struct {
		name      string
		attempts  int
		successes int
		want      PottyStats
	}{
		{"nothing logged", 0, 0, PottyStats{Percentage: "0 %"}},
		{"three attempts seven successes", 3, 7, PottyStats{Percentage: "70 %", Successes: 7, Attempts: 10}},
		{"only attempts", 4, 0, PottyStats{Percentage: "0 %", Attempts: 4}},
		{"rounds to nearest", 1, 2, PottyStats{Percentage: "67 %", Successes: 2, Attempts: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs []models.BehaviorLog
			for i := 0; i < tt.attempts; i++ {
				logs = append(logs, logEntry(1, LabelPottyAttempt, refTime))
			}
			for i := 0; i < tt.successes; i++ {
				logs = append(logs, logEntry(1, LabelPottySuccess, refTime))
			}
			assert.Equal(t, tt.want, pottyStats(logs))
		})
	}
}

func TestAggregateFoodsAndPositive(t *testing.T) {
	logs := &memoryLogs{logs: []models.BehaviorLog{
		logEntry(1, "Tried Broccoli", day(11, 12)),
		logEntry(1, "Tried Broccoli", day(14, 12)),
		logEntry(1, "Tried Avocado", day(15, 12)),
		logEntry(1, "Tried ", day(15, 13)),
		logEntry(1, "Stayed Calm", day(12, 10)),
		logEntry(1, "Stayed Calm", day(13, 10)),
		logEntry(1, "Helped Out", day(13, 11)),
		logEntry(1, "Threw Toys", day(13, 12)),
	}}
	agg := NewAggregator(logs, &memoryCompletions{}, zap.NewNop())

	summary, err := agg.Aggregate(context.Background(), Subject{ChildID: 1}, ComputeWindow(PeriodWeek, refTime))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Foods.Count)
	assert.Equal(t, []string{"Avocado", "Broccoli"}, summary.Foods.Foods)
	assert.Equal(t, []FoodEntry{
		{Food: "Broccoli", Day: "Monday"},
		{Food: "Broccoli", Day: "Thursday"},
		{Food: "Avocado", Day: "Friday"},
	}, summary.Foods.List)

	assert.Equal(t, 3, summary.Positive.Total)
	assert.Equal(t, 2, summary.Positive.Breakdown["Stayed Calm"])
	assert.Equal(t, 1, summary.Positive.Breakdown["Helped Out"])
	assert.Equal(t, 0, summary.Positive.Breakdown["Brave Moment"])
	assert.NotContains(t, summary.Positive.Breakdown, "Threw Toys")
	assert.Len(t, summary.Positive.Breakdown, len(PositiveLabels))
}

func TestAggregateActivitiesMondayFirst(t *testing.T) {
	completions := &memoryCompletions{completions: []models.ActivityCompletion{
		{OwnerID: 100, ChildID: forChild(1), Title: "Painting", Image: "paint.png", CompletedAt: day(10, 9)}, // Sunday
		{OwnerID: 100, ChildID: forChild(1), Title: "Puzzle", Image: "puzzle.png", CompletedAt: day(11, 9)},  // Monday
		{OwnerID: 100, ChildID: forChild(1), Title: "Walk", Image: "walk.png", CompletedAt: day(11, 17)},     // Monday
		{OwnerID: 100, ChildID: forChild(2), Title: "Sibling swim", CompletedAt: day(12, 9)},
		{OwnerID: 100, Title: "Family walk", CompletedAt: day(12, 10)},
		{OwnerID: 200, ChildID: forChild(1), Title: "Other family", CompletedAt: day(12, 9)},
	}}
	agg := NewAggregator(&memoryLogs{}, completions, zap.NewNop())

	summary, err := agg.Aggregate(context.Background(), Subject{ChildID: 1, OwnerID: 100}, ComputeWindow(PeriodWeek, refTime))
	require.NoError(t, err)

	acts := summary.Activities
	assert.Equal(t, 2, acts.TotalActivityDays)
	require.Len(t, acts.DailyCounts, 7)
	assert.Equal(t, DayCount{Day: "Mon", Count: 2}, acts.DailyCounts[0])
	assert.Equal(t, DayCount{Day: "Sun", Count: 1}, acts.DailyCounts[6])
	assert.Equal(t, []ActivityEntry{
		{Title: "Painting", Image: "paint.png", Day: "Sunday"},
		{Title: "Puzzle", Image: "puzzle.png", Day: "Monday"},
		{Title: "Walk", Image: "walk.png", Day: "Monday"},
	}, acts.Breakdown)
}

func TestAggregateIsIdempotent(t *testing.T) {
	logs := &memoryLogs{logs: []models.BehaviorLog{
		logEntry(1, LabelPottySuccess, day(12, 9)),
		logEntry(1, "Tried Rice", day(12, 12)),
		logEntry(1, "Tried Pasta", day(13, 12)),
		logEntry(1, "Good Listening", day(14, 12)),
	}}
	completions := &memoryCompletions{completions: []models.ActivityCompletion{
		{OwnerID: 100, ChildID: forChild(1), Title: "Reading", CompletedAt: day(12, 19)},
	}}
	agg := NewAggregator(logs, completions, zap.NewNop())
	w := ComputeWindow(PeriodMonth, refTime)

	first, err := agg.Aggregate(context.Background(), Subject{ChildID: 1, OwnerID: 100}, w)
	require.NoError(t, err)
	second, err := agg.Aggregate(context.Background(), Subject{ChildID: 1, OwnerID: 100}, w)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, PeriodMonth, first.Period)
}

func TestAggregateFailsAsAWhole(t *testing.T) {
	boom := errors.New("store unavailable")

	t.Run("behavior source", func(t *testing.T) {
		agg := NewAggregator(&memoryLogs{err: boom}, &memoryCompletions{}, zap.NewNop())
		summary, err := agg.Aggregate(context.Background(), Subject{ChildID: 1}, ComputeWindow(PeriodWeek, refTime))
		assert.ErrorIs(t, err, boom)
		assert.Nil(t, summary)
	})

	t.Run("completion source", func(t *testing.T) {
		agg := NewAggregator(&memoryLogs{}, &memoryCompletions{err: boom}, zap.NewNop())
		summary, err := agg.Aggregate(context.Background(), Subject{ChildID: 1}, ComputeWindow(PeriodWeek, refTime))
		assert.ErrorIs(t, err, boom)
		assert.Nil(t, summary)
	})
}

func TestActivitySummary(t *testing.T) {
	completions := &memoryCompletions{completions: []models.ActivityCompletion{
		{OwnerID: 100, ChildID: forChild(1), Title: "Swim", CompletedAt: day(2, 9)},
		{OwnerID: 100, ChildID: forChild(2), Title: "Swim", CompletedAt: day(30, 9)},
	}}
	agg := NewAggregator(&memoryLogs{}, completions, zap.NewNop())

	rng, stats, err := agg.ActivitySummary(context.Background(), 100, ComputeWindow(PeriodMonth, refTime))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T00:00:00.000Z", rng.Start)
	assert.Equal(t, "2024-03-31T23:59:59.999Z", rng.End)
	// Owner-wide: both children count. Both completions fall on a Saturday.
	assert.Equal(t, 1, stats.TotalActivityDays)
	assert.Equal(t, 2, stats.DailyCounts[5].Count)
}
