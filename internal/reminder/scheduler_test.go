package reminder

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/loan-reminders/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestScheduler() (*Scheduler, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	return NewScheduler(DefaultConfig(), logger), hook
}

func carLoan() models.Loan {
	return models.Loan{
		ID:                "car-1",
		Principal:         decimal.NewFromInt(120000),
		AnnualRatePercent: 12,
		TenureMonths:      12,
		EMIStartDate:      day(2026, 1, 20),
		MonthlyPayment:    decimal.NewFromInt(10657),
		Type:              models.LoanTypeCar,
		Status:            models.LoanStatusActive,
	}
}

func rentPattern(last time.Time) models.RecurringPattern {
	return models.RecurringPattern{
		Category:              models.CategoryRent,
		NormalizedDescription: "rent",
		Description:           "Rent August",
		AverageAmount:         decimal.NewFromInt(15000),
		Frequency:             models.FrequencyMonthly,
		LastOccurrence:        last,
		OccurrenceCount:       3,
		Confidence:            1,
	}
}

func TestGenerate_LoanInsideWindow(t *testing.T) {
	s, _ := newTestScheduler()

	got := s.Generate([]models.Loan{carLoan()}, nil, time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC))
	require.Len(t, got, 1)

	r := got[0]
	assert.Equal(t, day(2026, 10, 20), r.DueDate)
	assert.Equal(t, 5, r.DaysUntilDue)
	assert.Equal(t, models.SourceLoan, r.SourceType)
	assert.Equal(t, "car-1", r.SourceKey)
	assert.Equal(t, "Car Loan EMI", r.Title)
	assert.Equal(t, "10657", r.Amount.String())
	assert.True(t, r.IsAutoGenerated)
	assert.Equal(t, 8, r.ReminderWindowDays)
	assert.Equal(t, ReminderID(models.SourceLoan, "car-1", day(2026, 10, 20)), r.ID)
}

func TestGenerate_LoanWindowEdges(t *testing.T) {
	s, _ := newTestScheduler()
	loan := carLoan()

	tests := []struct {
		now  time.Time
		want int
	}{
		{day(2026, 10, 11), 0},
		{day(2026, 10, 12), 1},
		{day(2026, 10, 19), 1},
		{day(2026, 10, 20), 0},
	}
	for _, tt := range tests {
		t.Run(tt.now.Format(time.DateOnly), func(t *testing.T) {
			assert.Len(t, s.Generate([]models.Loan{loan}, nil, tt.now), tt.want)
		})
	}
}

func TestGenerate_SkipsClosedPaidOffAndInvalidLoans(t *testing.T) {
	s, hook := newTestScheduler()

	closed := carLoan()
	closed.ID = "closed"
	closed.Status = models.LoanStatusClosed

	paidOff := carLoan()
	paidOff.ID = "paid-off"
	paidOff.EMIStartDate = day(2025, 1, 20)
	paidOff.TenureMonths = 6

	invalid := carLoan()
	invalid.ID = "invalid"
	invalid.TenureMonths = 0

	valid := carLoan()
	valid.Name = "Hatchback"

	got := s.Generate([]models.Loan{closed, paidOff, invalid, valid}, nil, day(2026, 10, 15))
	require.Len(t, got, 1)
	assert.Equal(t, "Hatchback EMI", got[0].Title)

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "invalid", hook.LastEntry().Data["loan_id"])
}

func TestGenerate_MonthlyPattern(t *testing.T) {
	s, _ := newTestScheduler()
	p := rentPattern(day(2026, 9, 15))

	got := s.Generate(nil, []models.RecurringPattern{p}, day(2026, 10, 10))
	require.Len(t, got, 1)
	assert.Equal(t, day(2026, 10, 15), got[0].DueDate)
	assert.Equal(t, models.SourceSmart, got[0].SourceType)
	assert.Equal(t, "Rent|rent", got[0].SourceKey)
	assert.Equal(t, "Rent August", got[0].Title)
	assert.Equal(t, 8, got[0].ReminderWindowDays)

	assert.Len(t, s.Generate(nil, []models.RecurringPattern{p}, day(2026, 10, 7)), 1)
	assert.Empty(t, s.Generate(nil, []models.RecurringPattern{p}, day(2026, 10, 6)))
	assert.Empty(t, s.Generate(nil, []models.RecurringPattern{p}, day(2026, 10, 15)))
}

func TestGenerate_MonthlyPatternAdvancesSeveralMonths(t *testing.T) {
	s, _ := newTestScheduler()
	p := rentPattern(day(2026, 1, 31))

	got := s.Generate(nil, []models.RecurringPattern{p}, day(2026, 4, 25))
	require.Len(t, got, 1)
	assert.Equal(t, day(2026, 4, 30), got[0].DueDate)
}

func TestGenerate_WeeklyPattern(t *testing.T) {
	s, _ := newTestScheduler()
	p := models.RecurringPattern{
		Category:              "Childcare",
		NormalizedDescription: "nanny",
		AverageAmount:         decimal.RequireFromString("2000.456"),
		Frequency:             models.FrequencyWeekly,
		LastOccurrence:        day(2026, 10, 1),
		Confidence:            1,
	}

	got := s.Generate(nil, []models.RecurringPattern{p}, day(2026, 10, 13))
	require.Len(t, got, 1)
	assert.Equal(t, day(2026, 10, 15), got[0].DueDate)
	assert.Equal(t, 2, got[0].ReminderWindowDays)
	assert.Equal(t, "Nanny", got[0].Title)
	assert.Equal(t, "2000.46", got[0].Amount.String())

	assert.Empty(t, s.Generate(nil, []models.RecurringPattern{p}, day(2026, 10, 12)))
}

func TestGenerate_StableIDsAndDedupe(t *testing.T) {
	s, _ := newTestScheduler()
	loans := []models.Loan{carLoan(), carLoan()}
	patterns := []models.RecurringPattern{rentPattern(day(2026, 9, 16)), rentPattern(day(2026, 9, 16))}
	now := day(2026, 10, 15)

	first := s.Generate(loans, patterns, now)
	second := s.Generate(loans, patterns, now.Add(3*time.Hour))

	require.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Equal(t, day(2026, 10, 16), first[0].DueDate, "ordered by due date")
	assert.Equal(t, day(2026, 10, 20), first[1].DueDate)
}

func TestReminderID(t *testing.T) {
	a := ReminderID(models.SourceLoan, "x", time.Date(2026, 10, 20, 8, 0, 0, 0, time.UTC))
	b := ReminderID(models.SourceLoan, "x", time.Date(2026, 10, 20, 23, 0, 0, 0, time.UTC))
	c := ReminderID(models.SourceSmart, "x", day(2026, 10, 20))
	d := ReminderID(models.SourceLoan, "x", day(2026, 11, 20))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
}

func TestCustom(t *testing.T) {
	s, _ := newTestScheduler()
	custom := []models.CustomReminder{
		{ID: "c1", Title: "Insurance", Amount: decimal.NewFromInt(4000), DueDate: day(2026, 10, 18), ReminderWindowDays: 5},
		{ID: "c2", Title: "Gym", Amount: decimal.NewFromInt(900), DueDate: day(2026, 10, 30), ReminderWindowDays: 5},
		{ID: "c3", Title: "Past", Amount: decimal.NewFromInt(900), DueDate: day(2026, 10, 1), ReminderWindowDays: 30},
	}

	got := s.Custom(custom, day(2026, 10, 15))
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, models.SourceCustom, got[0].SourceType)
	assert.False(t, got[0].IsAutoGenerated)
	assert.Equal(t, 3, got[0].DaysUntilDue)
}
