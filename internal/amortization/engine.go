// Package amortization derives a loan's outstanding balance and next due date
// from its static terms. Nothing here is stored: the balance at any moment is
// a function of the terms and the date asked about.
package amortization

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/loan-reminders/internal/calendar"
	"github.com/Dan9191/loan-reminders/internal/models"
)

// ErrInvalidLoanTerms is returned for loans whose terms cannot be amortized.
// Callers skip the loan rather than failing the whole batch.
var ErrInvalidLoanTerms = errors.New("invalid loan terms")

// Result is the derived state of a loan at a point in time
type Result struct {
	Balance      decimal.Decimal `json:"balance"`
	PaymentsMade int             `json:"payments_made"`
	NextDueDate  time.Time       `json:"next_due_date"`
	// LinearFallback is set when the closed form overflowed and the balance
	// was computed by straight-line reduction instead.
	LinearFallback bool `json:"linear_fallback,omitempty"`
}

// PaidOff reports whether every installment has been made
func (r Result) PaidOff(loan models.Loan) bool {
	return r.PaymentsMade >= loan.TenureMonths
}

// MonthlyRate converts an annual percentage to a periodic monthly rate
func MonthlyRate(annualRatePercent float64) float64 {
	return annualRatePercent / 100 / 12
}

// Validate checks the terms the engine depends on
func Validate(loan models.Loan) error {
	switch {
	case loan.TenureMonths <= 0:
		return fmt.Errorf("%w: loan %s has tenure %d months", ErrInvalidLoanTerms, loan.ID, loan.TenureMonths)
	case loan.MonthlyPayment.IsNegative():
		return fmt.Errorf("%w: loan %s has negative monthly payment", ErrInvalidLoanTerms, loan.ID)
	case loan.Principal.IsNegative():
		return fmt.Errorf("%w: loan %s has negative principal", ErrInvalidLoanTerms, loan.ID)
	case loan.AnnualRatePercent < 0 || math.IsNaN(loan.AnnualRatePercent):
		return fmt.Errorf("%w: loan %s has rate %v", ErrInvalidLoanTerms, loan.ID, loan.AnnualRatePercent)
	case loan.EMIStartDate.IsZero():
		return fmt.Errorf("%w: loan %s has no EMI start date", ErrInvalidLoanTerms, loan.ID)
	}
	return nil
}

// PaymentsMade counts installments made by asOf. The installment on the EMI
// start date counts as made on that day.
func PaymentsMade(loan models.Loan, asOf time.Time) int {
	start := calendar.Date(loan.EMIStartDate)
	day := calendar.Date(asOf)
	if day.Before(start) {
		return 0
	}
	return min(loan.TenureMonths, calendar.MonthsBetween(start, day)+1)
}

// ComputeOutstandingBalance derives the balance, installments made and next
// due date of loan as of asOf. A zero asOf means now.
func ComputeOutstandingBalance(loan models.Loan, asOf time.Time) (Result, error) {
	if err := Validate(loan); err != nil {
		return Result{}, err
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}

	n := loan.TenureMonths
	k := PaymentsMade(loan, asOf)
	res := Result{
		PaymentsMade: k,
		NextDueDate:  calendar.AddMonths(calendar.Date(loan.EMIStartDate), k),
	}

	principal := loan.Principal.InexactFloat64()
	r := MonthlyRate(loan.AnnualRatePercent)

	var balance float64
	switch {
	case loan.IsInterestOnly:
		balance = principal
	case k >= n:
		balance = 0
	case r > 0:
		growthN := math.Pow(1+r, float64(n))
		growthK := math.Pow(1+r, float64(k))
		balance = principal * (growthN - growthK) / (growthN - 1)
		if math.IsNaN(balance) || math.IsInf(balance, 0) {
			balance = linearBalance(principal, n, k)
			res.LinearFallback = true
		}
	default:
		balance = linearBalance(principal, n, k)
	}

	res.Balance = clamp(decimal.NewFromFloat(balance).Round(0), loan.Principal)
	return res, nil
}

func linearBalance(principal float64, n, k int) float64 {
	return math.Max(0, principal-principal/float64(n)*float64(k))
}

func clamp(v, principal decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	if v.GreaterThan(principal) {
		return principal
	}
	return v
}
