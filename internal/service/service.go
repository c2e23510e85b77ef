package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/loan-reminders/internal/amortization"
	"github.com/Dan9191/loan-reminders/internal/calendar"
	"github.com/Dan9191/loan-reminders/internal/models"
	"github.com/Dan9191/loan-reminders/internal/patterns"
	"github.com/Dan9191/loan-reminders/internal/payoff"
	"github.com/Dan9191/loan-reminders/internal/reminder"
)

var (
	ErrReminderNotFound = errors.New("reminder not found")
	ErrInvalidReminder  = errors.New("invalid reminder")
)

// LoanProvider supplies a user's loans
type LoanProvider interface {
	GetLoans(ctx context.Context, userID int64) ([]models.Loan, error)
	GetLoan(ctx context.Context, userID int64, loanID string) (*models.Loan, error)
}

// TransactionProvider supplies a user's transaction history
type TransactionProvider interface {
	GetTransactions(ctx context.Context, userID int64) ([]models.Transaction, error)
}

// PaidStateStore persists the paid records of each user
type PaidStateStore interface {
	LoadPaid(ctx context.Context, userID int64) (map[string]models.PaidRecord, error)
	SavePaid(ctx context.Context, userID int64, records map[string]models.PaidRecord) error
	UsersWithPaidRecords(ctx context.Context) ([]int64, error)
}

// CustomReminderStore keeps user-owned reminders
type CustomReminderStore interface {
	GetCustomReminders(ctx context.Context, userID int64) ([]models.CustomReminder, error)
	CreateCustomReminder(ctx context.Context, c *models.CustomReminder) error
	DeleteCustomReminder(ctx context.Context, userID int64, id string) error
}

// Store is everything the service reads from and writes to
type Store interface {
	LoanProvider
	TransactionProvider
	PaidStateStore
	CustomReminderStore
}

// KeyRateSource provides a reference annual rate in percent
type KeyRateSource interface {
	GetKeyRate(ctx context.Context) (float64, error)
}

// Service handles business logic
type Service struct {
	store     Store
	rates     KeyRateSource
	scheduler *reminder.Scheduler
	detector  *patterns.Detector
	log       *logrus.Logger

	mu sync.Mutex
	// locks holds one mutex per user id seen. Entries are never removed.
	locks map[int64]*sync.Mutex
}

// NewService initializes a new service. rates may be nil, in which case loans
// without a stored rate are treated as interest free.
func NewService(store Store, rates KeyRateSource, scheduler *reminder.Scheduler, log *logrus.Logger) *Service {
	return &Service{
		store:     store,
		rates:     rates,
		scheduler: scheduler,
		detector:  patterns.NewDetector(),
		log:       log,
		locks:     make(map[int64]*sync.Mutex),
	}
}

// Reminders returns the user's current reminders with their paid state.
// Failures to load any input are logged and that input is treated as empty,
// so the list itself never fails.
func (s *Service) Reminders(ctx context.Context, userID int64, now time.Time) []models.ReminderView {
	reminders := s.generate(ctx, userID, now)
	paid := s.cleanupOnLoad(ctx, userID, now)
	return reminder.Overlay(reminders, paid)
}

func (s *Service) generate(ctx context.Context, userID int64, now time.Time) []models.Reminder {
	log := s.log.WithField("user_id", userID)

	loans, err := s.store.GetLoans(ctx, userID)
	if err != nil {
		log.Errorf("Failed to load loans: %v", err)
		loans = nil
	}
	loans = s.resolveRates(ctx, loans)

	txs, err := s.store.GetTransactions(ctx, userID)
	if err != nil {
		log.Errorf("Failed to load transactions: %v", err)
		txs = nil
	}

	custom, err := s.store.GetCustomReminders(ctx, userID)
	if err != nil {
		log.Errorf("Failed to load custom reminders: %v", err)
		custom = nil
	}

	generated := s.scheduler.Generate(loans, s.detector.Detect(txs), now)
	return reminder.Dedupe(append(generated, s.scheduler.Custom(custom, now)...))
}

// resolveRates fills in the reference rate for loans stored without one
func (s *Service) resolveRates(ctx context.Context, loans []models.Loan) []models.Loan {
	var (
		rate    float64
		fetched bool
	)
	out := make([]models.Loan, len(loans))
	for i, loan := range loans {
		if loan.RateUnknown && s.rates != nil {
			if !fetched {
				r, err := s.rates.GetKeyRate(ctx)
				if err != nil {
					s.log.Warnf("Failed to get key rate, unknown rates treated as 0: %v", err)
				}
				rate, fetched = r, true
			}
			loan.AnnualRatePercent = rate
		}
		out[i] = loan
	}
	return out
}

// MarkPaid marks one of the user's current reminders as paid
func (s *Service) MarkPaid(ctx context.Context, userID int64, reminderID string, now time.Time) (models.PaidRecord, error) {
	var target *models.Reminder
	for _, r := range s.generate(ctx, userID, now) {
		if r.ID == reminderID {
			target = &r
			break
		}
	}
	if target == nil {
		return models.PaidRecord{}, fmt.Errorf("%w: %s", ErrReminderNotFound, reminderID)
	}

	records, err := s.updatePaid(ctx, userID, func(current reminder.PaidRecords) reminder.PaidRecords {
		return reminder.MarkPaid(current, *target, now)
	})
	if err != nil {
		return models.PaidRecord{}, err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "reminder_id": reminderID}).Info("Reminder marked paid")
	return records[reminderID], nil
}

// RevertPaid removes the paid mark of a reminder
func (s *Service) RevertPaid(ctx context.Context, userID int64, reminderID string) error {
	_, err := s.updatePaid(ctx, userID, func(current reminder.PaidRecords) reminder.PaidRecords {
		return reminder.RevertPaid(current, reminderID)
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "reminder_id": reminderID}).Info("Reminder paid mark reverted")
	return nil
}

// CleanupExpired drops the user's paid marks older than the retention period
// and returns how many were removed
func (s *Service) CleanupExpired(ctx context.Context, userID int64, now time.Time) (int, error) {
	retention := s.scheduler.Config().PaidRetention
	removed := 0
	_, err := s.updatePaid(ctx, userID, func(current reminder.PaidRecords) reminder.PaidRecords {
		next := reminder.CleanupExpired(current, now, retention)
		removed = len(current) - len(next)
		return next
	})
	return removed, err
}

// CleanupAll runs CleanupExpired for every user holding paid marks
func (s *Service) CleanupAll(ctx context.Context, now time.Time) error {
	users, err := s.store.UsersWithPaidRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users with paid records: %w", err)
	}
	var errs []error
	total := 0
	for _, userID := range users {
		removed, err := s.CleanupExpired(ctx, userID, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %d: %w", userID, err))
			continue
		}
		total += removed
	}
	s.log.WithFields(logrus.Fields{"users": len(users), "removed": total}).Debug("Expired paid marks cleaned up")
	return errors.Join(errs...)
}

// cleanupOnLoad loads the paid map, expiring old marks on the way. A load
// failure yields an empty map for this request and nothing is written.
func (s *Service) cleanupOnLoad(ctx context.Context, userID int64, now time.Time) reminder.PaidRecords {
	retention := s.scheduler.Config().PaidRetention
	records, err := s.updatePaid(ctx, userID, func(current reminder.PaidRecords) reminder.PaidRecords {
		return reminder.CleanupExpired(current, now, retention)
	})
	if err != nil {
		s.log.WithField("user_id", userID).Errorf("Paid records not cleaned: %v", err)
	}
	if records == nil {
		return reminder.PaidRecords{}
	}
	return records
}

// updatePaid serializes read-apply-write cycles on a user's paid map so that
// concurrent mark, revert and cleanup calls never overwrite each other. The
// store is only written when the load succeeded and fn changed the map.
func (s *Service) updatePaid(ctx context.Context, userID int64, fn func(reminder.PaidRecords) reminder.PaidRecords) (reminder.PaidRecords, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	current, err := s.store.LoadPaid(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load paid records: %w", err)
	}

	next := fn(current)
	if samePaid(current, next) {
		return next, nil
	}
	if err := s.store.SavePaid(ctx, userID, next); err != nil {
		return reminder.PaidRecords(current), fmt.Errorf("failed to save paid records: %w", err)
	}
	return next, nil
}

func (s *Service) userLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

func samePaid(a, b map[string]models.PaidRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for id, rec := range a {
		other, ok := b[id]
		if !ok || !other.PaidAt.Equal(rec.PaidAt) || other.SourceType != rec.SourceType {
			return false
		}
	}
	return true
}

// LoanBalance computes the outstanding balance of one loan
func (s *Service) LoanBalance(ctx context.Context, userID int64, loanID string, asOf time.Time) (amortization.Result, error) {
	loan, err := s.store.GetLoan(ctx, userID, loanID)
	if err != nil {
		return amortization.Result{}, err
	}
	resolved := s.resolveRates(ctx, []models.Loan{*loan})
	return amortization.ComputeOutstandingBalance(resolved[0], asOf)
}

// Plan ranks the user's active loans by strategy
func (s *Service) Plan(ctx context.Context, userID int64, strategy payoff.Strategy, asOf time.Time) ([]payoff.PlanEntry, error) {
	loans, err := s.store.GetLoans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loans: %w", err)
	}

	var debts []payoff.Debt
	for _, loan := range s.resolveRates(ctx, loans) {
		if !loan.IsActive() {
			continue
		}
		debt := payoff.Debt{Loan: loan}
		res, err := amortization.ComputeOutstandingBalance(loan, asOf)
		if err != nil {
			s.log.WithFields(logrus.Fields{"user_id": userID, "loan_id": loan.ID}).Warnf("No balance for loan: %v", err)
		} else {
			debt.OutstandingBalance = decimal.NewNullDecimal(res.Balance)
		}
		debts = append(debts, debt)
	}

	return payoff.Plan(debts, strategy, asOf)
}

// Patterns returns the user's detected recurring obligations
func (s *Service) Patterns(ctx context.Context, userID int64) ([]models.RecurringPattern, error) {
	txs, err := s.store.GetTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return s.detector.Detect(txs), nil
}

// CreateCustomReminder stores a user-owned reminder
func (s *Service) CreateCustomReminder(ctx context.Context, userID int64, title string, amount decimal.Decimal, due time.Time, windowDays int) (*models.CustomReminder, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidReminder)
	}
	if due.IsZero() {
		return nil, fmt.Errorf("%w: due date is required", ErrInvalidReminder)
	}
	if windowDays < 0 {
		return nil, fmt.Errorf("%w: window must not be negative", ErrInvalidReminder)
	}

	c := &models.CustomReminder{
		ID:                 uuid.NewString(),
		UserID:             userID,
		Title:              title,
		Amount:             amount,
		DueDate:            calendar.Date(due),
		ReminderWindowDays: windowDays,
	}
	if err := s.store.CreateCustomReminder(ctx, c); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "reminder_id": c.ID}).Info("Custom reminder created")
	return c, nil
}

// DeleteCustomReminder removes a user-owned reminder and any paid mark on it
func (s *Service) DeleteCustomReminder(ctx context.Context, userID int64, id string) error {
	if err := s.store.DeleteCustomReminder(ctx, userID, id); err != nil {
		return err
	}
	return s.RevertPaid(ctx, userID, id)
}
