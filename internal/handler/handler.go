package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/loan-reminders/internal/amortization"
	"github.com/Dan9191/loan-reminders/internal/middleware"
	"github.com/Dan9191/loan-reminders/internal/models"
	"github.com/Dan9191/loan-reminders/internal/payoff"
	"github.com/Dan9191/loan-reminders/internal/repository"
	"github.com/Dan9191/loan-reminders/internal/service"
)

// ReminderService is the part of the service the HTTP layer calls
type ReminderService interface {
	Reminders(ctx context.Context, userID int64, now time.Time) []models.ReminderView
	MarkPaid(ctx context.Context, userID int64, reminderID string, now time.Time) (models.PaidRecord, error)
	RevertPaid(ctx context.Context, userID int64, reminderID string) error
	LoanBalance(ctx context.Context, userID int64, loanID string, asOf time.Time) (amortization.Result, error)
	Plan(ctx context.Context, userID int64, strategy payoff.Strategy, asOf time.Time) ([]payoff.PlanEntry, error)
	Patterns(ctx context.Context, userID int64) ([]models.RecurringPattern, error)
	CreateCustomReminder(ctx context.Context, userID int64, title string, amount decimal.Decimal, due time.Time, windowDays int) (*models.CustomReminder, error)
	DeleteCustomReminder(ctx context.Context, userID int64, id string) error
}

// KeyRateSource provides the reference rate shown by /key-rate
type KeyRateSource interface {
	GetKeyRate(ctx context.Context) (float64, error)
}

type Handler struct {
	svc   ReminderService
	rates KeyRateSource
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewHandler(svc ReminderService, rates KeyRateSource, log logrus.FieldLogger) *Handler {
	return &Handler{svc: svc, rates: rates, log: log, now: time.Now}
}

type createCustomRequest struct {
	Title              string          `json:"title"`
	Amount             decimal.Decimal `json:"amount"`
	DueDate            string          `json:"due_date"`
	ReminderWindowDays *int            `json:"reminder_window_days"`
}

// ListReminders returns the current reminders with paid state
func (h *Handler) ListReminders(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, h.svc.Reminders(r.Context(), userID, h.now()))
}

// MarkPaid marks a reminder as paid
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	rec, err := h.svc.MarkPaid(r.Context(), userID, mux.Vars(r)["id"], h.now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// RevertPaid removes a reminder's paid mark
func (h *Handler) RevertPaid(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.svc.RevertPaid(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateCustomReminder stores a user-owned reminder
func (h *Handler) CreateCustomReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req createCustomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	due, err := time.Parse(time.DateOnly, req.DueDate)
	if err != nil {
		http.Error(w, "due_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	window := 8
	if req.ReminderWindowDays != nil {
		window = *req.ReminderWindowDays
	}

	c, err := h.svc.CreateCustomReminder(r.Context(), userID, req.Title, req.Amount, due, window)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, c)
}

// DeleteCustomReminder removes a user-owned reminder
func (h *Handler) DeleteCustomReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteCustomReminder(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoanBalance returns the derived balance of a loan
func (h *Handler) LoanBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	asOf := h.now()
	if v := r.URL.Query().Get("as_of"); v != "" {
		parsed, err := time.Parse(time.DateOnly, v)
		if err != nil {
			http.Error(w, "as_of must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		asOf = parsed
	}
	res, err := h.svc.LoanBalance(r.Context(), userID, mux.Vars(r)["id"], asOf)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// Plan returns the ranked payoff plan
func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	name := r.URL.Query().Get("strategy")
	if name == "" {
		name = string(payoff.Avalanche)
	}
	strategy, err := payoff.ParseStrategy(name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	entries, err := h.svc.Plan(r.Context(), userID, strategy, h.now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

// Patterns returns the detected recurring obligations
func (h *Handler) Patterns(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	patterns, err := h.svc.Patterns(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, patterns)
}

// KeyRate returns the reference key rate including the bank margin
func (h *Handler) KeyRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.rates.GetKeyRate(r.Context())
	if err != nil {
		h.log.Errorf("Failed to get key rate: %v", err)
		http.Error(w, "Failed to get key rate", http.StatusBadGateway)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]float64{"key_rate": rate})
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
	return userID, ok
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrReminderNotFound), errors.Is(err, repository.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrInvalidReminder), errors.Is(err, payoff.ErrUnknownStrategy):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, amortization.ErrInvalidLoanTerms):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.log.Errorf("Request failed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}
