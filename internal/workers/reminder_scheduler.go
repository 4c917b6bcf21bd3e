package workers

import (
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/joel-danjuma/insureflow/internal/models"
	"github.com/joel-danjuma/insureflow/internal/reminders"
	"github.com/joel-danjuma/insureflow/internal/tasks"
)

// StartReminderScheduler runs a periodic scan (every minute) that flips
// past-due premiums to OVERDUE and enqueues payment reminders per the
// configured policy.
func StartReminderScheduler(client *asynq.Client, db *gorm.DB, policy *reminders.Policy, logger zerolog.Logger) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	var nextSend time.Time

	// Run immediately on startup, then every minute
	nextSend = scanAndEnqueueReminders(client, db, policy, nextSend, logger)

	for range ticker.C {
		nextSend = scanAndEnqueueReminders(client, db, policy, nextSend, logger)
	}
}

// scanAndEnqueueReminders performs one scheduler pass and returns the next
// time a send is allowed (zero when the policy has no cron gate).
func scanAndEnqueueReminders(client *asynq.Client, db *gorm.DB, policy *reminders.Policy, nextSend time.Time, logger zerolog.Logger) time.Time {
	now := time.Now().UTC()

	// Marking premiums overdue happens on every pass regardless of the send gate
	if err := db.Model(&models.Premium{}).
		Where("status = ? AND due_date < ?", models.PremiumStatusPending, now).
		Update("status", models.PremiumStatusOverdue).Error; err != nil {
		logger.Error().Err(err).Msg("Failed to mark overdue premiums")
	}

	// The cron schedule gates when reminders actually go out
	if policy.Schedule != "" {
		sched, err := cron.ParseStandard(policy.Schedule)
		if err != nil {
			logger.Error().Err(err).Str("schedule", policy.Schedule).Msg("Invalid reminder schedule")
			return nextSend
		}
		if nextSend.IsZero() {
			return sched.Next(now)
		}
		if now.Before(nextSend) {
			logger.Debug().Time("next_send", nextSend).Msg("Reminder send not due yet")
			return nextSend
		}
		nextSend = sched.Next(now)
	}

	horizon := now.AddDate(0, 0, policy.LeadDays)

	var due []models.Premium
	if err := db.
		Where("status IN ? AND due_date <= ?",
			[]models.PremiumStatus{models.PremiumStatusPending, models.PremiumStatusOverdue}, horizon).
		Order("due_date ASC").
		Find(&due).Error; err != nil {
		logger.Error().Err(err).Msg("Failed to query due premiums")
		return nextSend
	}

	dedupeSince := now.Add(-time.Duration(policy.DedupeHours) * time.Hour)
	enqueued := 0

	for i := range due {
		premium := &due[i]

		overdueDays := int(now.Sub(premium.DueDate).Hours() / 24)
		if premium.DueDate.After(now) {
			// Round towards "days until due" for not-yet-due premiums
			overdueDays = -int(premium.DueDate.Sub(now).Hours()/24) - 1
		}

		tier := policy.TierFor(overdueDays)
		if tier == nil {
			continue
		}

		// Skip premiums reminded about inside the dedupe window
		var recent int64
		if err := db.Model(&models.ReminderLog{}).
			Where("premium_id = ? AND sent_at > ?", premium.ID, dedupeSince).
			Count(&recent).Error; err != nil {
			logger.Error().Err(err).Str("premium_id", premium.ID).Msg("Failed to check reminder log")
			continue
		}
		if recent > 0 {
			continue
		}

		task, err := tasks.NewPremiumReminderTask(premium.ID, tier.Name)
		if err != nil {
			logger.Error().Err(err).Str("premium_id", premium.ID).Msg("Failed to build reminder task")
			continue
		}

		if _, err := client.Enqueue(task, asynq.Queue(tier.Queue)); err != nil {
			logger.Error().Err(err).Str("premium_id", premium.ID).Msg("Failed to enqueue reminder")
			continue
		}
		enqueued++
	}

	if enqueued > 0 {
		logger.Info().Int("count", enqueued).Msg("Payment reminders enqueued")
	}

	return nextSend
}
