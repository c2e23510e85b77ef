package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency of a recurring obligation
type Frequency string

const (
	FrequencyMonthly Frequency = "monthly"
	FrequencyWeekly  Frequency = "weekly"
)

// RecurringPattern is a repeating payment inferred from transaction history.
// Patterns are rebuilt on every analysis run and never persisted.
type RecurringPattern struct {
	Category              string          `json:"category"`
	NormalizedDescription string          `json:"normalized_description"`
	Description           string          `json:"description"`
	AverageAmount         decimal.Decimal `json:"average_amount"`
	Frequency             Frequency       `json:"frequency"`
	LastOccurrence        time.Time       `json:"last_occurrence"`
	OccurrenceCount       int             `json:"occurrence_count"`
	Confidence            float64         `json:"confidence"`
}

// Key identifies the pattern across analysis runs
func (p RecurringPattern) Key() string {
	return p.Category + "|" + p.NormalizedDescription
}
