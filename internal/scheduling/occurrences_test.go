package scheduling

import (
	"testing"
	"time"

	"github.com/jonathan/cleanops/internal/db"
	"github.com/stretchr/testify/assert"
)

func dateStrings(dates []db.Date) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.String()
	}
	return out
}

func ptrDate(d db.Date) *db.Date { return &d }

func TestOccurrences_WeeklyWithEndDate(t *testing.T) {
	def := &db.RecurringJob{
		Frequency: db.FrequencyWeekly,
		StartDate: db.NewDate(2024, time.May, 21),
		EndDate:   ptrDate(db.NewDate(2024, time.June, 18)),
	}

	got := Occurrences(def, def.StartDate, DefaultMaxBatch, DefaultHorizonDays)
	assert.Equal(t, []string{"2024-05-21", "2024-05-28", "2024-06-04", "2024-06-11", "2024-06-18"}, dateStrings(got))
}

func TestOccurrences_Frequencies(t *testing.T) {
	start := db.NewDate(2024, time.March, 1)
	tests := []struct {
		name      string
		frequency db.Frequency
		want      []string
	}{
		{"daily", db.FrequencyDaily, []string{"2024-03-01", "2024-03-02", "2024-03-03"}},
		{"weekly", db.FrequencyWeekly, []string{"2024-03-01", "2024-03-08", "2024-03-15"}},
		{"bi_weekly", db.FrequencyBiWeekly, []string{"2024-03-01", "2024-03-15", "2024-03-29"}},
		{"monthly", db.FrequencyMonthly, []string{"2024-03-01", "2024-04-01", "2024-05-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := &db.RecurringJob{Frequency: tt.frequency, StartDate: start}
			assert.Equal(t, tt.want, dateStrings(Occurrences(def, start, 3, DefaultHorizonDays)))
		})
	}
}

func TestOccurrences_MonthlyClampsToMonthEnd(t *testing.T) {
	def := &db.RecurringJob{Frequency: db.FrequencyMonthly, StartDate: db.NewDate(2024, time.January, 31)}

	got := Occurrences(def, def.StartDate, 4, 0)
	assert.Equal(t, []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"}, dateStrings(got))

	def.StartDate = db.NewDate(2023, time.January, 31)
	got = Occurrences(def, def.StartDate, 2, 0)
	assert.Equal(t, []string{"2023-01-31", "2023-02-28"}, dateStrings(got))
}

func TestOccurrences_ResumesFromDate(t *testing.T) {
	def := &db.RecurringJob{Frequency: db.FrequencyWeekly, StartDate: db.NewDate(2024, time.May, 21)}

	// The day after an existing 05-28 instance
	got := Occurrences(def, db.NewDate(2024, time.May, 29), 2, 0)
	assert.Equal(t, []string{"2024-06-04", "2024-06-11"}, dateStrings(got))

	monthly := &db.RecurringJob{Frequency: db.FrequencyMonthly, StartDate: db.NewDate(2024, time.January, 31)}
	got = Occurrences(monthly, db.NewDate(2024, time.March, 1), 2, 0)
	assert.Equal(t, []string{"2024-03-31", "2024-04-30"}, dateStrings(got))
}

func TestOccurrences_Bounds(t *testing.T) {
	def := &db.RecurringJob{Frequency: db.FrequencyDaily, StartDate: db.NewDate(2024, time.January, 1)}

	t.Run("limit", func(t *testing.T) {
		assert.Len(t, Occurrences(def, def.StartDate, 52, 365), 52)
	})

	t.Run("horizon", func(t *testing.T) {
		got := Occurrences(def, def.StartDate, 0, 10)
		assert.Len(t, got, 10)
		assert.Equal(t, "2024-01-10", got[len(got)-1].String())
	})

	t.Run("horizon counts from first candidate", func(t *testing.T) {
		got := Occurrences(def, db.NewDate(2024, time.June, 1), 0, 3)
		assert.Equal(t, []string{"2024-06-01", "2024-06-02", "2024-06-03"}, dateStrings(got))
	})

	t.Run("end before from", func(t *testing.T) {
		bounded := *def
		bounded.EndDate = ptrDate(db.NewDate(2024, time.January, 5))
		assert.Empty(t, Occurrences(&bounded, db.NewDate(2024, time.January, 6), 10, 0))
	})

	t.Run("unbounded falls back to default batch", func(t *testing.T) {
		assert.Len(t, Occurrences(def, def.StartDate, 0, 0), DefaultMaxBatch)
	})

	t.Run("invalid frequency", func(t *testing.T) {
		bad := &db.RecurringJob{Frequency: "yearly", StartDate: def.StartDate}
		assert.Nil(t, Occurrences(bad, def.StartDate, 10, 0))
	})
}

func TestOccurrences_NeverBeforeStart(t *testing.T) {
	def := &db.RecurringJob{Frequency: db.FrequencyBiWeekly, StartDate: db.NewDate(2024, time.May, 21)}
	for _, d := range Occurrences(def, db.NewDate(2024, time.January, 1), 5, 0) {
		assert.False(t, d.Before(def.StartDate), d.String())
	}
}
