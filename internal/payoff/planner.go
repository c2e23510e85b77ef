// Package payoff ranks debts by payoff strategy and estimates how far along
// each one is when the upstream data is incomplete.
package payoff

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/loan-reminders/internal/calendar"
	"github.com/Dan9191/loan-reminders/internal/models"
)

// Strategy is a debt payoff ordering
type Strategy string

const (
	// Avalanche pays the highest interest rate first
	Avalanche Strategy = "avalanche"
	// Snowball pays the smallest balance first
	Snowball Strategy = "snowball"
)

// ErrUnknownStrategy is returned for a strategy name other than avalanche or snowball.
var ErrUnknownStrategy = errors.New("unknown payoff strategy")

// ParseStrategy accepts a strategy name in any case
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case Avalanche:
		return Avalanche, nil
	case Snowball:
		return Snowball, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Debt is a loan together with its derived balance
type Debt struct {
	Loan models.Loan
	// OutstandingBalance is invalid when no balance could be derived.
	OutstandingBalance decimal.NullDecimal
}

// DefaultProgress is the progress percent shown for a loan type when nothing
// better can be computed
var DefaultProgress = map[models.LoanType]float64{
	models.LoanTypeCreditCard: 25,
	models.LoanTypePersonal:   45,
	models.LoanTypeCar:        35,
	models.LoanTypeHome:       15,
	models.LoanTypeBusiness:   30,
	models.LoanTypeOther:      30,
}

func defaultProgress(t models.LoanType) float64 {
	if p, ok := DefaultProgress[t]; ok {
		return p
	}
	return DefaultProgress[models.LoanTypeOther]
}

// RankLoans orders debts by strategy. The sort is stable: debts that compare
// equal keep their input order. The input slice is not modified.
func RankLoans(debts []Debt, strategy Strategy) ([]Debt, error) {
	var less func(a, b Debt) bool
	switch strategy {
	case Avalanche:
		less = func(a, b Debt) bool { return a.Loan.AnnualRatePercent > b.Loan.AnnualRatePercent }
	case Snowball:
		less = func(a, b Debt) bool { return rankingBalance(a).LessThan(rankingBalance(b)) }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	ranked := make([]Debt, len(debts))
	copy(ranked, debts)
	sort.SliceStable(ranked, func(i, j int) bool { return less(ranked[i], ranked[j]) })
	return ranked, nil
}

// rankingBalance falls back to the principal when no balance is known
func rankingBalance(d Debt) decimal.Decimal {
	if d.OutstandingBalance.Valid {
		return d.OutstandingBalance.Decimal
	}
	return d.Loan.Principal
}

// EstimateProgress returns how much of the debt is paid off, in percent.
// The first applicable method wins:
//  1. principal vs outstanding balance
//  2. term vs remaining term
//  3. months since EMI start over tenure in months
//  4. months since EMI start over term in years
//  5. a per-type default
//
// A computed 0 is replaced by the type default.
func EstimateProgress(d Debt, asOf time.Time) float64 {
	progress, ok := computedProgress(d, asOf)
	if !ok {
		return defaultProgress(d.Loan.Type)
	}
	progress = math.Max(0, math.Min(100, progress))
	if progress == 0 {
		return defaultProgress(d.Loan.Type)
	}
	return progress
}

func computedProgress(d Debt, asOf time.Time) (float64, bool) {
	loan := d.Loan

	if loan.Principal.IsPositive() && d.OutstandingBalance.Valid && !d.OutstandingBalance.Decimal.Equal(loan.Principal) {
		paid := loan.Principal.Sub(d.OutstandingBalance.Decimal)
		return paid.Div(loan.Principal).InexactFloat64() * 100, true
	}

	if loan.Term != nil && loan.RemainingTerm != nil && *loan.Term > 0 && *loan.Term != *loan.RemainingTerm {
		return float64(*loan.Term-*loan.RemainingTerm) / float64(*loan.Term) * 100, true
	}

	if loan.EMIStartDate.IsZero() {
		return 0, false
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}
	elapsed := max(0, calendar.MonthsBetween(loan.EMIStartDate, asOf))

	if loan.TenureMonths > 0 {
		return float64(elapsed) / float64(loan.TenureMonths) * 100, true
	}
	if loan.Term != nil && *loan.Term > 0 {
		return float64(elapsed) / float64(*loan.Term*12) * 100, true
	}
	return 0, false
}

// PlanEntry is one row of a payoff plan
type PlanEntry struct {
	Rank               int             `json:"rank"`
	LoanID             string          `json:"loan_id"`
	Name               string          `json:"name"`
	Type               models.LoanType `json:"type"`
	AnnualRatePercent  float64         `json:"annual_rate_percent"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	ProgressPercent    float64         `json:"progress_percent"`
}

// Plan ranks debts and attaches a progress estimate to each
func Plan(debts []Debt, strategy Strategy, asOf time.Time) ([]PlanEntry, error) {
	ranked, err := RankLoans(debts, strategy)
	if err != nil {
		return nil, err
	}

	entries := make([]PlanEntry, 0, len(ranked))
	for i, d := range ranked {
		entries = append(entries, PlanEntry{
			Rank:               i + 1,
			LoanID:             d.Loan.ID,
			Name:               d.Loan.Name,
			Type:               d.Loan.Type,
			AnnualRatePercent:  d.Loan.AnnualRatePercent,
			OutstandingBalance: rankingBalance(d),
			ProgressPercent:    EstimateProgress(d, asOf),
		})
	}
	return entries, nil
}
