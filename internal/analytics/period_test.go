package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carenest/internal/apperr"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"", PeriodWeek, false},
		{"week", PeriodWeek, false},
		{" Month ", PeriodMonth, false},
		{"year", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePeriod(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeWindowWeek(t *testing.T) {
	span := 6*24*time.Hour + 23*time.Hour + 59*time.Minute + 59*time.Second + 999*time.Millisecond

	// Every hour across several weeks, including a month and year boundary.
	ref := time.Date(2023, 12, 20, 0, 30, 0, 0, time.UTC)
	for i := 0; i < 24*30; i++ {
		now := ref.Add(time.Duration(i) * time.Hour)
		w := ComputeWindow(PeriodWeek, now)

		if w.Start.Weekday() != time.Sunday {
			t.Fatalf("%v: start %v is not a Sunday", now, w.Start)
		}
		if h, m, s := w.Start.Clock(); h != 0 || m != 0 || s != 0 || w.Start.Nanosecond() != 0 {
			t.Fatalf("%v: start %v is not midnight", now, w.Start)
		}
		if got := w.End.Sub(w.Start); got != span {
			t.Fatalf("%v: span = %v, want %v", now, got, span)
		}
		if !w.Contains(now) {
			t.Fatalf("%v: window %v..%v does not contain reference", now, w.Start, w.End)
		}
	}
}

func TestComputeWindowWeekExamples(t *testing.T) {
	tests := []struct {
		name      string
		ref       time.Time
		wantStart time.Time
	}{
		{"sunday is its own start", time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC), time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"saturday night", time.Date(2024, 3, 16, 23, 59, 59, 0, time.UTC), time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"crosses month", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), time.Date(2024, 2, 25, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ComputeWindow(PeriodWeek, tt.ref)
			assert.Equal(t, tt.wantStart, w.Start)
			assert.Equal(t, PeriodWeek, w.Period)
		})
	}
}

func TestComputeWindowMonth(t *testing.T) {
	tests := []struct {
		name     string
		ref      time.Time
		wantDays int
	}{
		{"february leap year", time.Date(2024, 2, 14, 12, 0, 0, 0, time.UTC), 29},
		{"february common year", time.Date(2023, 2, 28, 23, 0, 0, 0, time.UTC), 28},
		{"thirty days", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), 30},
		{"thirty one days", time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC), 31},
		{"century non-leap", time.Date(2100, 2, 3, 0, 0, 0, 0, time.UTC), 28},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ComputeWindow(PeriodMonth, tt.ref)

			assert.Equal(t, 1, w.Start.Day())
			assert.Equal(t, tt.ref.Month(), w.Start.Month())
			assert.Equal(t, tt.wantDays, w.End.Day())
			assert.Equal(t, tt.ref.Month(), w.End.Month())
			h, m, s := w.End.Clock()
			assert.Equal(t, []int{23, 59, 59}, []int{h, m, s})
			assert.Equal(t, 999*int(time.Millisecond), w.End.Nanosecond())
			assert.True(t, w.Contains(tt.ref))
		})
	}
}

func TestComputeWindowUsesReferenceLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// Saturday 22:00 at UTC-5 is already Sunday in UTC.
	ref := time.Date(2024, 3, 16, 22, 0, 0, 0, loc)

	w := ComputeWindow(PeriodWeek, ref)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, loc), w.Start)
	assert.Equal(t, Range{Start: "2024-03-10T05:00:00.000Z", End: "2024-03-17T04:59:59.999Z"}, w.Range())
}

func TestDayWindow(t *testing.T) {
	ref := time.Date(2024, 5, 7, 13, 45, 0, 0, time.UTC)
	w := DayWindow(ref)

	assert.True(t, w.Contains(time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2024, 5, 7, 23, 59, 59, 999000000, time.UTC)))
	assert.False(t, w.Contains(time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2024, 5, 6, 23, 59, 59, 0, time.UTC)))
}

func TestMondayIndex(t *testing.T) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		assert.Equal(t, d.String()[:3], mondayFirstDays[mondayIndex(d)])
	}
}
