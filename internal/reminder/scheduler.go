// Package reminder turns loan schedules and recurring patterns into reminders
// that fall inside their reminder window, and manages the paid overlay.
package reminder

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Dan9191/loan-reminders/internal/amortization"
	"github.com/Dan9191/loan-reminders/internal/calendar"
	"github.com/Dan9191/loan-reminders/internal/models"
)

// Config holds reminder windows and the paid retention period
type Config struct {
	LoanWindowDays    int
	MonthlyWindowDays int
	WeeklyWindowDays  int
	PaidRetention     time.Duration
}

// DefaultConfig returns the standard windows: 8 days for loans and monthly
// patterns, 2 days for weekly patterns, paid marks kept for 2 days.
func DefaultConfig() Config {
	return Config{
		LoanWindowDays:    8,
		MonthlyWindowDays: 8,
		WeeklyWindowDays:  2,
		PaidRetention:     48 * time.Hour,
	}
}

var (
	reminderNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/Dan9191/loan-reminders/reminder"))
	titleCaser        = cases.Title(language.English)
)

// ReminderID derives a stable id from the reminder's source and due date, so
// generating the same reminder twice yields the same id.
func ReminderID(source models.SourceType, key string, due time.Time) string {
	name := fmt.Sprintf("%s|%s|%s", source, key, calendar.Date(due).Format(time.DateOnly))
	return uuid.NewSHA1(reminderNamespace, []byte(name)).String()
}

// Scheduler generates reminders. It holds no state besides its configuration.
type Scheduler struct {
	cfg Config
	log logrus.FieldLogger
}

// NewScheduler creates a scheduler
func NewScheduler(cfg Config, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{cfg: cfg, log: log}
}

// Config returns the scheduler configuration
func (s *Scheduler) Config() Config {
	return s.cfg
}

// Generate builds reminders for active loans and recurring patterns whose
// next due date is between now and the end of its window. Loans with invalid
// terms are logged and skipped.
func (s *Scheduler) Generate(loans []models.Loan, patterns []models.RecurringPattern, now time.Time) []models.Reminder {
	var out []models.Reminder
	for _, loan := range loans {
		if r, ok := s.loanReminder(loan, now); ok {
			out = append(out, r)
		}
	}
	for _, p := range patterns {
		if r, ok := s.patternReminder(p, now); ok {
			out = append(out, r)
		}
	}
	return Dedupe(out)
}

// Custom converts user-owned reminders that are inside their own window
func (s *Scheduler) Custom(custom []models.CustomReminder, now time.Time) []models.Reminder {
	var out []models.Reminder
	for _, c := range custom {
		days := calendar.DaysBetween(now, c.DueDate)
		if !inWindow(days, c.ReminderWindowDays) {
			continue
		}
		out = append(out, models.Reminder{
			ID:                 c.ID,
			Title:              c.Title,
			Amount:             c.Amount,
			DueDate:            calendar.Date(c.DueDate),
			DaysUntilDue:       days,
			SourceType:         models.SourceCustom,
			SourceKey:          c.ID,
			IsAutoGenerated:    false,
			ReminderWindowDays: c.ReminderWindowDays,
		})
	}
	return out
}

func (s *Scheduler) loanReminder(loan models.Loan, now time.Time) (models.Reminder, bool) {
	if !loan.IsActive() {
		return models.Reminder{}, false
	}
	res, err := amortization.ComputeOutstandingBalance(loan, now)
	if err != nil {
		s.log.WithFields(logrus.Fields{"loan_id": loan.ID}).Warnf("Skipping loan reminder: %v", err)
		return models.Reminder{}, false
	}
	if res.PaidOff(loan) {
		return models.Reminder{}, false
	}

	days := calendar.DaysBetween(now, res.NextDueDate)
	if !inWindow(days, s.cfg.LoanWindowDays) {
		return models.Reminder{}, false
	}
	return models.Reminder{
		ID:                 ReminderID(models.SourceLoan, loan.ID, res.NextDueDate),
		Title:              loanTitle(loan),
		Amount:             loan.MonthlyPayment,
		DueDate:            res.NextDueDate,
		DaysUntilDue:       days,
		SourceType:         models.SourceLoan,
		SourceKey:          loan.ID,
		IsAutoGenerated:    true,
		ReminderWindowDays: s.cfg.LoanWindowDays,
	}, true
}

func (s *Scheduler) patternReminder(p models.RecurringPattern, now time.Time) (models.Reminder, bool) {
	window := s.cfg.MonthlyWindowDays
	if p.Frequency == models.FrequencyWeekly {
		window = s.cfg.WeeklyWindowDays
	}

	due := NextOccurrence(p, now)
	days := calendar.DaysBetween(now, due)
	if !inWindow(days, window) {
		return models.Reminder{}, false
	}
	return models.Reminder{
		ID:                 ReminderID(models.SourceSmart, p.Key(), due),
		Title:              patternTitle(p),
		Amount:             p.AverageAmount.Round(2),
		DueDate:            due,
		DaysUntilDue:       days,
		SourceType:         models.SourceSmart,
		SourceKey:          p.Key(),
		IsAutoGenerated:    true,
		ReminderWindowDays: window,
	}, true
}

// NextOccurrence advances the pattern's last occurrence by whole periods
// until it lies after now. Monthly steps are taken from the original date so
// a 31st keeps landing on the last day of shorter months.
func NextOccurrence(p models.RecurringPattern, now time.Time) time.Time {
	today := calendar.Date(now)
	last := calendar.Date(p.LastOccurrence)
	if p.Frequency == models.FrequencyWeekly {
		next := last
		for !next.After(today) {
			next = next.AddDate(0, 0, 7)
		}
		return next
	}
	for i := 1; ; i++ {
		if next := calendar.AddMonths(last, i); next.After(today) {
			return next
		}
	}
}

func inWindow(days, window int) bool {
	return days >= 0 && days <= window
}

func loanTitle(loan models.Loan) string {
	if loan.Name != "" {
		return loan.Name + " EMI"
	}
	kind := string(loan.Type)
	if kind == "" {
		kind = string(models.LoanTypeOther)
	}
	return titleCaser.String(strings.ReplaceAll(kind, "_", " ")) + " Loan EMI"
}

func patternTitle(p models.RecurringPattern) string {
	if p.Description != "" {
		return p.Description
	}
	if p.NormalizedDescription != "" {
		return titleCaser.String(p.NormalizedDescription)
	}
	return p.Category
}

// Dedupe drops reminders whose id was already seen and orders the rest by
// due date. Order among reminders due the same day is preserved.
func Dedupe(reminders []models.Reminder) []models.Reminder {
	seen := make(map[string]struct{}, len(reminders))
	out := make([]models.Reminder, 0, len(reminders))
	for _, r := range reminders {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}
