package reminder

import (
	"maps"
	"time"

	"github.com/Dan9191/loan-reminders/internal/models"
)

// PaidRecords maps reminder id to its paid mark. The functions below never
// modify their input: they return the next state, so callers can read the
// current map, apply one change and write the result back.
type PaidRecords map[string]models.PaidRecord

// MarkPaid records reminder as paid at now. An existing mark for the same id
// is replaced.
func MarkPaid(records PaidRecords, r models.Reminder, now time.Time) PaidRecords {
	next := clone(records)
	next[r.ID] = models.PaidRecord{
		ReminderID: r.ID,
		SourceType: r.SourceType,
		PaidAt:     now,
	}
	return next
}

// RevertPaid removes the paid mark for reminderID, if any
func RevertPaid(records PaidRecords, reminderID string) PaidRecords {
	next := clone(records)
	delete(next, reminderID)
	return next
}

// CleanupExpired drops marks older than retention. Calling it again at the
// same instant returns an identical map.
func CleanupExpired(records PaidRecords, now time.Time, retention time.Duration) PaidRecords {
	next := make(PaidRecords, len(records))
	for id, rec := range records {
		if now.Sub(rec.PaidAt) > retention {
			continue
		}
		next[id] = rec
	}
	return next
}

// Overlay pairs each reminder with its paid mark. The reminders are not
// modified.
func Overlay(reminders []models.Reminder, records PaidRecords) []models.ReminderView {
	views := make([]models.ReminderView, 0, len(reminders))
	for _, r := range reminders {
		view := models.ReminderView{Reminder: r}
		if rec, ok := records[r.ID]; ok {
			paidAt := rec.PaidAt
			view.Paid = true
			view.PaidAt = &paidAt
		}
		views = append(views, view)
	}
	return views
}

func clone(records PaidRecords) PaidRecords {
	next := make(PaidRecords, len(records)+1)
	maps.Copy(next, records)
	return next
}
