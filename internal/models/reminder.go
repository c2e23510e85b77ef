package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceType tells where a reminder came from
type SourceType string

const (
	SourceLoan   SourceType = "loan"
	SourceSmart  SourceType = "smart"
	SourceCustom SourceType = "custom"
)

// Reminder is an upcoming payment inside its reminder window
type Reminder struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Amount             decimal.Decimal `json:"amount"`
	DueDate            time.Time       `json:"due_date"`
	DaysUntilDue       int             `json:"days_until_due"`
	SourceType         SourceType      `json:"source_type"`
	SourceKey          string          `json:"source_key,omitempty"`
	IsAutoGenerated    bool            `json:"is_auto_generated"`
	ReminderWindowDays int             `json:"reminder_window_days"`
}

// CustomReminder is a user-owned reminder kept in the reminder store
type CustomReminder struct {
	ID                 string          `json:"id" yaml:"id"`
	UserID             int64           `json:"user_id" yaml:"-"`
	Title              string          `json:"title" yaml:"title"`
	Amount             decimal.Decimal `json:"amount" yaml:"amount"`
	DueDate            time.Time       `json:"due_date" yaml:"due_date"`
	ReminderWindowDays int             `json:"reminder_window_days" yaml:"reminder_window_days"`
	CreatedAt          time.Time       `json:"created_at" yaml:"created_at,omitempty"`
}

// PaidRecord marks a reminder as paid until it is reverted or expires
type PaidRecord struct {
	ReminderID string     `json:"reminder_id" yaml:"reminder_id"`
	SourceType SourceType `json:"source_type" yaml:"source_type"`
	PaidAt     time.Time  `json:"paid_at" yaml:"paid_at"`
}

// ReminderView is a reminder with the paid overlay applied
type ReminderView struct {
	Reminder
	Paid   bool       `json:"paid"`
	PaidAt *time.Time `json:"paid_at,omitempty"`
}
