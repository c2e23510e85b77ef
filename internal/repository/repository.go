package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/loan-reminders/internal/calendar"
	"github.com/Dan9191/loan-reminders/internal/models"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetLoans returns every loan of the user
func (r *Repository) GetLoans(ctx context.Context, userID int64) ([]models.Loan, error) {
	query := `
		SELECT id, user_id, name, principal, annual_rate_percent, tenure_months, emi_start_date,
		       monthly_payment, is_interest_only, loan_type, status, term_years, remaining_term
		FROM loans
		WHERE user_id = $1
		ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query loans: %w", err)
	}
	defer rows.Close()

	var loans []models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loans: %w", err)
	}
	return loans, nil
}

// GetLoan returns a single loan owned by the user
func (r *Repository) GetLoan(ctx context.Context, userID int64, loanID string) (*models.Loan, error) {
	query := `
		SELECT id, user_id, name, principal, annual_rate_percent, tenure_months, emi_start_date,
		       monthly_payment, is_interest_only, loan_type, status, term_years, remaining_term
		FROM loans
		WHERE user_id = $1 AND id = $2`
	loan, err := scanLoan(r.db.QueryRowContext(ctx, query, userID, loanID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("loan %s: %w", loanID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLoan(row scanner) (models.Loan, error) {
	var (
		loan          models.Loan
		rate          sql.NullFloat64
		term          sql.NullInt64
		remainingTerm sql.NullInt64
	)
	err := row.Scan(&loan.ID, &loan.UserID, &loan.Name, &loan.Principal, &rate, &loan.TenureMonths,
		&loan.EMIStartDate, &loan.MonthlyPayment, &loan.IsInterestOnly, &loan.Type, &loan.Status,
		&term, &remainingTerm)
	if errors.Is(err, sql.ErrNoRows) {
		return loan, err
	}
	if err != nil {
		return loan, fmt.Errorf("failed to scan loan: %w", err)
	}
	loan.AnnualRatePercent = rate.Float64
	loan.RateUnknown = !rate.Valid
	loan.Term = nullIntPtr(term)
	loan.RemainingTerm = nullIntPtr(remainingTerm)
	return loan, nil
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

// GetTransactions returns the user's transactions, oldest first
func (r *Repository) GetTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	query := `
		SELECT id, user_id, amount, type, category, description, occurred_on
		FROM transactions
		WHERE user_id = $1
		ORDER BY occurred_on, id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Type, &tx.Category, &tx.Description, &tx.Date); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txs, nil
}

// LoadPaid reads the user's paid records
func (r *Repository) LoadPaid(ctx context.Context, userID int64) (map[string]models.PaidRecord, error) {
	query := `
		SELECT reminder_id, source_type, paid_at
		FROM paid_records
		WHERE user_id = $1`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query paid records: %w", err)
	}
	defer rows.Close()

	records := make(map[string]models.PaidRecord)
	for rows.Next() {
		var rec models.PaidRecord
		if err := rows.Scan(&rec.ReminderID, &rec.SourceType, &rec.PaidAt); err != nil {
			return nil, fmt.Errorf("failed to scan paid record: %w", err)
		}
		records[rec.ReminderID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate paid records: %w", err)
	}
	return records, nil
}

// SavePaid replaces the user's paid records with records
func (r *Repository) SavePaid(ctx context.Context, userID int64, records map[string]models.PaidRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM paid_records WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear paid records: %w", err)
	}

	insert := `
		INSERT INTO paid_records (user_id, reminder_id, source_type, paid_at)
		VALUES ($1, $2, $3, $4)`
	for id, rec := range records {
		if _, err := tx.ExecContext(ctx, insert, userID, id, rec.SourceType, rec.PaidAt); err != nil {
			return fmt.Errorf("failed to save paid record %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit paid records: %w", err)
	}
	return nil
}

// UsersWithPaidRecords lists users that currently hold any paid record
func (r *Repository) UsersWithPaidRecords(ctx context.Context) ([]int64, error) {
	return r.queryIDs(ctx, `SELECT DISTINCT user_id FROM paid_records ORDER BY user_id`)
}

// GetCustomReminders returns the user's own reminders
func (r *Repository) GetCustomReminders(ctx context.Context, userID int64) ([]models.CustomReminder, error) {
	query := `
		SELECT id, user_id, title, amount, due_date, window_days, created_at
		FROM custom_reminders
		WHERE user_id = $1
		ORDER BY due_date, id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query custom reminders: %w", err)
	}
	defer rows.Close()

	var out []models.CustomReminder
	for rows.Next() {
		var c models.CustomReminder
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.Amount, &c.DueDate, &c.ReminderWindowDays, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan custom reminder: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate custom reminders: %w", err)
	}
	return out, nil
}

// CreateCustomReminder stores a user-owned reminder
func (r *Repository) CreateCustomReminder(ctx context.Context, c *models.CustomReminder) error {
	query := `
		INSERT INTO custom_reminders (id, user_id, title, amount, due_date, window_days, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, c.ID, c.UserID, c.Title, c.Amount, calendar.Date(c.DueDate), c.ReminderWindowDays).
		Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create custom reminder: %w", err)
	}
	return nil
}

// DeleteCustomReminder removes a user-owned reminder
func (r *Repository) DeleteCustomReminder(ctx context.Context, userID int64, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM custom_reminders WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete custom reminder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete custom reminder: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("custom reminder %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListUsers returns every user with an email address
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, username, email FROM users WHERE email <> '' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

func (r *Repository) queryIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
