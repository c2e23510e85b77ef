package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanType classifies a loan for planning defaults
type LoanType string

const (
	LoanTypeCreditCard LoanType = "credit_card"
	LoanTypePersonal   LoanType = "personal"
	LoanTypeCar        LoanType = "car"
	LoanTypeHome       LoanType = "home"
	LoanTypeBusiness   LoanType = "business"
	LoanTypeOther      LoanType = "other"
)

// LoanStatus is the only administrative field that changes after creation
type LoanStatus string

const (
	LoanStatusActive LoanStatus = "active"
	LoanStatusClosed LoanStatus = "closed"
)

// Loan represents a credit obligation with immutable terms.
// Outstanding balance is derived from the terms and is never stored.
type Loan struct {
	ID                string          `json:"id" yaml:"id"`
	UserID            int64           `json:"user_id" yaml:"-"`
	Name              string          `json:"name" yaml:"name"`
	Principal         decimal.Decimal `json:"principal" yaml:"principal"`
	AnnualRatePercent float64         `json:"annual_rate_percent" yaml:"annual_rate_percent"`
	RateUnknown       bool            `json:"rate_unknown,omitempty" yaml:"rate_unknown"`
	TenureMonths      int             `json:"tenure_months" yaml:"tenure_months"`
	EMIStartDate      time.Time       `json:"emi_start_date" yaml:"emi_start_date"`
	MonthlyPayment    decimal.Decimal `json:"monthly_payment" yaml:"monthly_payment"`
	IsInterestOnly    bool            `json:"is_interest_only" yaml:"is_interest_only"`
	Type              LoanType        `json:"type" yaml:"type"`
	Status            LoanStatus      `json:"status" yaml:"status"`
	// Term (in years) and RemainingTerm are carried over from the source
	// record when present; they only feed progress estimates.
	Term          *int `json:"term,omitempty" yaml:"term"`
	RemainingTerm *int `json:"remaining_term,omitempty" yaml:"remaining_term"`
}

// IsActive reports whether the loan should produce reminders.
// An empty status is treated as active.
func (l Loan) IsActive() bool {
	return l.Status == "" || l.Status == LoanStatusActive
}
