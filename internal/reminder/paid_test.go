package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/loan-reminders/internal/models"
)

func testReminder(id string) models.Reminder {
	return models.Reminder{ID: id, Title: id, SourceType: models.SourceLoan}
}

func TestPaidLifecycle_ExpiresAfterRetention(t *testing.T) {
	retention := DefaultConfig().PaidRetention
	paidAt := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	records := MarkPaid(nil, testReminder("r1"), paidAt)
	require.Contains(t, records, "r1")
	assert.Equal(t, models.SourceLoan, records["r1"].SourceType)

	records = CleanupExpired(records, paidAt.Add(24*time.Hour), retention)
	assert.Contains(t, records, "r1")

	records = CleanupExpired(records, paidAt.Add(48*time.Hour), retention)
	assert.Contains(t, records, "r1", "exactly at the retention limit is kept")

	records = CleanupExpired(records, paidAt.Add(72*time.Hour), retention)
	assert.NotContains(t, records, "r1")
}

func TestCleanupExpired_Idempotent(t *testing.T) {
	retention := DefaultConfig().PaidRetention
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	records := PaidRecords{}
	records = MarkPaid(records, testReminder("old"), now.Add(-72*time.Hour))
	records = MarkPaid(records, testReminder("new"), now.Add(-time.Hour))

	once := CleanupExpired(records, now, retention)
	twice := CleanupExpired(once, now, retention)

	assert.Equal(t, once, twice)
	assert.Len(t, once, 1)
	assert.Contains(t, once, "new")
	assert.Len(t, records, 2, "input is not modified")
}

func TestMarkPaid_LatestWriteWins(t *testing.T) {
	first := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	records := MarkPaid(nil, testReminder("r1"), first)
	updated := MarkPaid(records, testReminder("r1"), second)

	assert.Len(t, updated, 1)
	assert.Equal(t, second, updated["r1"].PaidAt)
	assert.Equal(t, first, records["r1"].PaidAt)
}

func TestRevertPaid(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	records := MarkPaid(nil, testReminder("r1"), now)
	records = MarkPaid(records, testReminder("r2"), now)

	reverted := RevertPaid(records, "r1")
	assert.NotContains(t, reverted, "r1")
	assert.Contains(t, reverted, "r2")
	assert.Contains(t, records, "r1")

	assert.Equal(t, reverted, RevertPaid(reverted, "missing"))
}

func TestOverlay(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	reminders := []models.Reminder{testReminder("r1"), testReminder("r2")}
	records := MarkPaid(nil, reminders[1], now)

	views := Overlay(reminders, records)
	require.Len(t, views, 2)

	assert.False(t, views[0].Paid)
	assert.Nil(t, views[0].PaidAt)
	assert.True(t, views[1].Paid)
	require.NotNil(t, views[1].PaidAt)
	assert.Equal(t, now, *views[1].PaidAt)
	assert.Equal(t, reminders[1], views[1].Reminder)
}
