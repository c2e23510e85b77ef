package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/loan-reminders/internal/models"
	"github.com/Dan9191/loan-reminders/internal/reminder"
)

const testSnapshot = `loans:
  - id: car-1
    name: Car
    principal: 120000
    annual_rate_percent: 12
    tenure_months: 12
    emi_start_date: 2026-01-20
    monthly_payment: 10657
    type: car
    status: active
  - id: card-1
    principal: 50000
    rate_unknown: true
    tenure_months: 10
    emi_start_date: 2026-03-01
    monthly_payment: 5000
    type: credit_card
  - id: broken
    principal: 1000
    annual_rate_percent: 10
    tenure_months: 0
    emi_start_date: 2026-01-01
    monthly_payment: 100
transactions:
  - id: 1
    amount: 15000
    type: expense
    category: Rent
    description: Rent June
    date: 2026-06-12
`

func writeSnapshot(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "debts.yaml")
	require.NoError(t, os.WriteFile(snapshot, []byte(testSnapshot), 0o644))
	return snapshot, filepath.Join(dir, "paid.yaml")
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestOpenFileStore_ParsesSnapshot(t *testing.T) {
	snapshot, state := writeSnapshot(t)

	store, err := OpenFileStore(snapshot, state)
	require.NoError(t, err)

	loans, err := store.GetLoans(context.Background(), localUser)
	require.NoError(t, err)
	require.Len(t, loans, 3)
	assert.Equal(t, "120000", loans[0].Principal.String())
	assert.Equal(t, time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC), loans[0].EMIStartDate)
	assert.Equal(t, models.LoanTypeCar, loans[0].Type)
	assert.True(t, loans[1].RateUnknown)
	assert.Equal(t, localUser, loans[1].UserID)

	txs, err := store.GetTransactions(context.Background(), localUser)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TransactionExpense, txs[0].Type)
}

func TestOpenFileStore_MissingFile(t *testing.T) {
	_, err := OpenFileStore(filepath.Join(t.TempDir(), "nope.yaml"), "paid.yaml")
	assert.Error(t, err)
}

func TestFileStore_PaidRoundTrip(t *testing.T) {
	snapshot, state := writeSnapshot(t)
	store, err := OpenFileStore(snapshot, state)
	require.NoError(t, err)
	ctx := context.Background()

	records, err := store.LoadPaid(ctx, localUser)
	require.NoError(t, err)
	assert.Empty(t, records)

	users, err := store.UsersWithPaidRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	paidAt := time.Date(2026, 7, 15, 9, 30, 0, 0, time.UTC)
	require.NoError(t, store.SavePaid(ctx, localUser, map[string]models.PaidRecord{
		"r1": {ReminderID: "r1", SourceType: models.SourceLoan, PaidAt: paidAt},
	}))

	records, err = store.LoadPaid(ctx, localUser)
	require.NoError(t, err)
	require.Contains(t, records, "r1")
	assert.True(t, paidAt.Equal(records["r1"].PaidAt))
	assert.Equal(t, models.SourceLoan, records["r1"].SourceType)

	users, err = store.UsersWithPaidRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{localUser}, users)
}

func TestBalanceCommand(t *testing.T) {
	snapshot, state := writeSnapshot(t)

	out, err := runCLI(t, "balance", "--snapshot", snapshot, "--state", state, "--as-of", "2026-07-10")
	require.NoError(t, err)

	assert.Contains(t, out, "61791.00")
	assert.Contains(t, out, "2026-07-20")
	assert.Contains(t, out, "invalid terms")
}

func TestBalanceCommand_UnknownLoan(t *testing.T) {
	snapshot, state := writeSnapshot(t)

	_, err := runCLI(t, "balance", "missing", "--snapshot", snapshot, "--state", state)
	assert.ErrorIs(t, err, errNotFound)
}

func TestPlanCommand(t *testing.T) {
	snapshot, state := writeSnapshot(t)

	out, err := runCLI(t, "plan", "--snapshot", snapshot, "--state", state, "--as-of", "2026-07-10", "--key-rate", "30")
	require.NoError(t, err)

	// The card resolves to the 30% key rate and outranks the 12% car loan.
	card := bytes.Index([]byte(out), []byte("card-1"))
	car := bytes.Index([]byte(out), []byte("car-1"))
	require.NotEqual(t, -1, card)
	require.NotEqual(t, -1, car)
	assert.Less(t, card, car)
	assert.Contains(t, out, "30.00%")
}

func TestPlanCommand_BadStrategy(t *testing.T) {
	snapshot, state := writeSnapshot(t)

	_, err := runCLI(t, "plan", "--snapshot", snapshot, "--state", state, "--strategy", "fastest")
	assert.Error(t, err)
}

func TestPatternsCommand(t *testing.T) {
	snapshot, state := writeSnapshot(t)

	out, err := runCLI(t, "patterns", "--snapshot", snapshot, "--state", state)
	require.NoError(t, err)

	assert.Contains(t, out, "Rent")
	assert.Contains(t, out, "monthly")
	assert.Contains(t, out, "15000.00")
}

func TestPayAndUnpay(t *testing.T) {
	snapshot, state := writeSnapshot(t)
	due := time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)
	id := reminder.ReminderID(models.SourceLoan, "car-1", due)
	common := []string{"--snapshot", snapshot, "--state", state, "--as-of", "2026-07-15"}

	out, err := runCLI(t, append([]string{"reminders"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Car EMI")

	out, err = runCLI(t, append([]string{"pay", id}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Marked "+id)

	out, err = runCLI(t, append([]string{"reminders", "--unpaid"}, common...)...)
	require.NoError(t, err)
	assert.NotContains(t, out, id)

	_, err = runCLI(t, append([]string{"unpay", id}, common...)...)
	require.NoError(t, err)

	out, err = runCLI(t, append([]string{"reminders", "--unpaid"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, id)
}

func TestPayCommand_UnknownReminder(t *testing.T) {
	snapshot, state := writeSnapshot(t)

	_, err := runCLI(t, "pay", "nope", "--snapshot", snapshot, "--state", state, "--as-of", "2026-07-15")
	assert.Error(t, err)
	_, statErr := os.Stat(state)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCleanupCommand(t *testing.T) {
	snapshot, state := writeSnapshot(t)
	store, err := OpenFileStore(snapshot, state)
	require.NoError(t, err)
	require.NoError(t, store.SavePaid(context.Background(), localUser, map[string]models.PaidRecord{
		"old":   {ReminderID: "old", SourceType: models.SourceSmart, PaidAt: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)},
		"fresh": {ReminderID: "fresh", SourceType: models.SourceLoan, PaidAt: time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC)},
	}))

	out, err := runCLI(t, "cleanup", "--snapshot", snapshot, "--state", state, "--as-of", "2026-07-15")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 expired")

	records, err := store.LoadPaid(context.Background(), localUser)
	require.NoError(t, err)
	assert.Contains(t, records, "fresh")
	assert.NotContains(t, records, "old")
}

func TestCustomAddAndRemove(t *testing.T) {
	snapshot, state := writeSnapshot(t)
	common := []string{"--snapshot", snapshot, "--state", state, "--as-of", "2026-07-15"}

	out, err := runCLI(t, append([]string{"custom", "add", "--title", "Insurance", "--amount", "2500", "--due", "2026-07-18", "--window", "5"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Created ")

	store, err := OpenFileStore(snapshot, state)
	require.NoError(t, err)
	custom, err := store.GetCustomReminders(context.Background(), localUser)
	require.NoError(t, err)
	require.Len(t, custom, 1)
	assert.Equal(t, "Insurance", custom[0].Title)
	assert.Equal(t, "2500", custom[0].Amount.String())

	out, err = runCLI(t, append([]string{"reminders"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Insurance")

	_, err = runCLI(t, append([]string{"custom", "remove", custom[0].ID}, common...)...)
	require.NoError(t, err)

	out, err = runCLI(t, append([]string{"reminders"}, common...)...)
	require.NoError(t, err)
	assert.NotContains(t, out, "Insurance")
}

func TestCustomAdd_Validation(t *testing.T) {
	snapshot, state := writeSnapshot(t)

	_, err := runCLI(t, "custom", "add", "--title", "X", "--due", "18/07/2026", "--snapshot", snapshot, "--state", state)
	assert.Error(t, err)

	_, err = runCLI(t, "custom", "add", "--title", "X", "--due", "2026-07-18", "--amount", "abc", "--snapshot", snapshot, "--state", state)
	assert.Error(t, err)
}

func TestRoot_InvalidAsOf(t *testing.T) {
	snapshot, state := writeSnapshot(t)

	_, err := runCLI(t, "reminders", "--snapshot", snapshot, "--state", state, "--as-of", "yesterday")
	assert.Error(t, err)
}
