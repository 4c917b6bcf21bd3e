package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TypePremiumReminder = "premium:reminder"
	TypePaymentReceipt  = "premium:receipt"
)

// PremiumPayload is the common payload for premium-related tasks
type PremiumPayload struct {
	PremiumID string `json:"premium_id"`
	Tier      string `json:"tier,omitempty"` // Escalation tier for reminders
}

// NewPremiumReminderTask creates a task to send a payment reminder
func NewPremiumReminderTask(premiumID, tier string) (*asynq.Task, error) {
	payload, err := json.Marshal(PremiumPayload{
		PremiumID: premiumID,
		Tier:      tier,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypePremiumReminder, payload), nil
}

// NewPaymentReceiptTask creates a task to deliver a payment receipt
func NewPaymentReceiptTask(premiumID string) (*asynq.Task, error) {
	payload, err := json.Marshal(PremiumPayload{
		PremiumID: premiumID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypePaymentReceipt, payload), nil
}

// ParsePremiumPayload parses task payload from an Asynq task
func ParsePremiumPayload(task *asynq.Task) (PremiumPayload, error) {
	var payload PremiumPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
