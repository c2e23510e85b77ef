package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes money in from money out
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Categories treated as recurring obligations
const (
	CategoryRent         = "Rent"
	CategoryUtilities    = "Utilities"
	CategoryLoanPayments = "Loan/Debt Payments"
)

// Transaction represents a financial transaction
type Transaction struct {
	ID          int64           `json:"id" yaml:"id"`
	UserID      int64           `json:"user_id" yaml:"-"`
	Amount      decimal.Decimal `json:"amount" yaml:"amount"`
	Type        TransactionType `json:"type" yaml:"type"`
	Category    string          `json:"category" yaml:"category"`
	Description string          `json:"description" yaml:"description"`
	Date        time.Time       `json:"date" yaml:"date"`
}
