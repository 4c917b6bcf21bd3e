package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/joel-danjuma/insureflow/internal/models"
	"github.com/joel-danjuma/insureflow/internal/tasks"
)

// HandlePremiumReminder sends a payment reminder for one premium and records
// it in the reminder log. Premiums that were paid between scheduling and
// execution are skipped silently.
func HandlePremiumReminder(ctx context.Context, t *asynq.Task, db *gorm.DB, notifier Notifier, log zerolog.Logger) error {
	payload, err := tasks.ParsePremiumPayload(t)
	if err != nil {
		return err
	}

	var premium models.Premium
	if err := db.Preload("Policy.Customer").Where("id = ?", payload.PremiumID).First(&premium).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			log.Warn().Str("premium_id", payload.PremiumID).Msg("Premium gone - dropping reminder")
			return nil
		}
		return fmt.Errorf("failed to load premium: %w", err)
	}

	if premium.Status == models.PremiumStatusPaid {
		log.Debug().Str("premium_id", premium.ID).Msg("Premium already paid - skipping reminder")
		return nil
	}

	customer := premium.Policy.Customer
	subject := fmt.Sprintf("Premium due on policy %s", premium.Policy.PolicyNumber)
	body := fmt.Sprintf("Dear %s, a premium of %.2f on policy %s is due on %s. Please log in to your InsureFlow dashboard to pay.",
		customer.FullName, premium.Amount, premium.Policy.PolicyNumber, premium.DueDate.Format("2 Jan 2006"))

	channel, err := notifier.Notify(ctx, customer.Email, subject, body)
	if err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}

	entry := &models.ReminderLog{
		PremiumID: premium.ID,
		Channel:   channel,
		Tier:      payload.Tier,
		SentAt:    time.Now().UTC(),
	}
	if err := db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record reminder: %w", err)
	}

	log.Info().
		Str("premium_id", premium.ID).
		Str("customer_id", customer.ID).
		Str("tier", payload.Tier).
		Msg("Payment reminder sent")

	return nil
}

// HandlePaymentReceipt delivers a receipt after a successful payment.
func HandlePaymentReceipt(ctx context.Context, t *asynq.Task, db *gorm.DB, notifier Notifier, log zerolog.Logger) error {
	payload, err := tasks.ParsePremiumPayload(t)
	if err != nil {
		return err
	}

	var premium models.Premium
	if err := db.Preload("Policy.Customer").Where("id = ?", payload.PremiumID).First(&premium).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			log.Warn().Str("premium_id", payload.PremiumID).Msg("Premium gone - dropping receipt")
			return nil
		}
		return fmt.Errorf("failed to load premium: %w", err)
	}

	if premium.Status != models.PremiumStatusPaid {
		// Payment transaction rolled back after the task was enqueued
		log.Warn().Str("premium_id", premium.ID).Msg("Premium not paid - dropping receipt")
		return nil
	}

	customer := premium.Policy.Customer
	subject := fmt.Sprintf("Payment received for policy %s", premium.Policy.PolicyNumber)
	body := fmt.Sprintf("Dear %s, we received your payment of %.2f (ref %s) on policy %s. Thank you.",
		customer.FullName, premium.Amount, premium.PaymentRef, premium.Policy.PolicyNumber)

	if _, err := notifier.Notify(ctx, customer.Email, subject, body); err != nil {
		return fmt.Errorf("failed to send receipt: %w", err)
	}

	log.Info().
		Str("premium_id", premium.ID).
		Str("payment_ref", premium.PaymentRef).
		Msg("Payment receipt sent")

	return nil
}
