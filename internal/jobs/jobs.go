// Package jobs runs the periodic work: expiring paid marks and sending the
// daily reminder digest.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/loan-reminders/internal/config"
	"github.com/Dan9191/loan-reminders/internal/models"
)

// Cleaner expires paid marks for every user
type Cleaner interface {
	CleanupAll(ctx context.Context, now time.Time) error
}

// ReminderLister builds the reminders of one user
type ReminderLister interface {
	Reminders(ctx context.Context, userID int64, now time.Time) []models.ReminderView
}

// UserDirectory lists users that can receive a digest
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

// DigestSender delivers a user's reminder digest
type DigestSender interface {
	SendReminderDigest(user models.User, reminders []models.ReminderView) error
}

// Runner owns the cron scheduler
type Runner struct {
	cron      *cron.Cron
	cleaner   Cleaner
	reminders ReminderLister
	users     UserDirectory
	sender    DigestSender
	log       logrus.FieldLogger
	now       func() time.Time
	timeout   time.Duration
}

// NewRunner registers the cleanup and digest jobs on their schedules
func NewRunner(cfg *config.Config, cleaner Cleaner, reminders ReminderLister, users UserDirectory, sender DigestSender, log logrus.FieldLogger) (*Runner, error) {
	r := &Runner{
		cron:      cron.New(),
		cleaner:   cleaner,
		reminders: reminders,
		users:     users,
		sender:    sender,
		log:       log,
		now:       time.Now,
		timeout:   5 * time.Minute,
	}

	if _, err := r.cron.AddFunc(cfg.CleanupSchedule, r.runCleanup); err != nil {
		return nil, fmt.Errorf("failed to schedule cleanup job: %w", err)
	}
	if sender != nil {
		if _, err := r.cron.AddFunc(cfg.DigestSchedule, r.runDigest); err != nil {
			return nil, fmt.Errorf("failed to schedule digest job: %w", err)
		}
	}
	return r, nil
}

// Start runs the scheduler in the background
func (r *Runner) Start() {
	r.cron.Start()
	r.log.Infof("Scheduled %d periodic jobs", len(r.cron.Entries()))
}

// Stop waits for running jobs to finish
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Runner) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.Cleanup(ctx); err != nil {
		r.log.Errorf("Paid mark cleanup failed: %v", err)
	}
}

func (r *Runner) runDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.Digest(ctx); err != nil {
		r.log.Errorf("Reminder digest failed: %v", err)
	}
}

// Cleanup expires paid marks once
func (r *Runner) Cleanup(ctx context.Context) error {
	return r.cleaner.CleanupAll(ctx, r.now())
}

// Digest sends every user their unpaid reminders once. A failure for one user
// does not stop the others.
func (r *Runner) Digest(ctx context.Context) error {
	users, err := r.users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	now := r.now()
	failed := 0
	for _, user := range users {
		views := r.reminders.Reminders(ctx, user.ID, now)
		if err := r.sender.SendReminderDigest(user, views); err != nil {
			r.log.WithField("user_id", user.ID).Warnf("Digest not sent: %v", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("digest failed for %d of %d users", failed, len(users))
	}
	return nil
}
