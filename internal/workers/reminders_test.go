package workers

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/joel-danjuma/insureflow/internal/models"
	"github.com/joel-danjuma/insureflow/internal/tasks"
)

// fakeNotifier records notifications instead of delivering them.
type fakeNotifier struct {
	sent []struct {
		Email, Subject string
	}
}

func (f *fakeNotifier) Notify(ctx context.Context, email, subject, body string) (string, error) {
	f.sent = append(f.sent, struct{ Email, Subject string }{email, subject})
	return "fake", nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.sqlite")), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatal(err)
	}
	return db
}

func seedPremium(t *testing.T, db *gorm.DB, status models.PremiumStatus) *models.Premium {
	t.Helper()

	customer := &models.User{Email: "cust@example.com", FullName: "Cust", PasswordHash: "x", Role: models.RoleCustomer}
	if err := db.Create(customer).Error; err != nil {
		t.Fatal(err)
	}
	brokerUser := &models.User{Email: "broker@example.com", FullName: "Broker", PasswordHash: "x", Role: models.RoleBroker}
	if err := db.Create(brokerUser).Error; err != nil {
		t.Fatal(err)
	}
	broker := &models.Broker{UserID: brokerUser.ID, FirmName: "Firm", LicenseNumber: "LIC-1", CommissionRate: 0.1}
	if err := db.Create(broker).Error; err != nil {
		t.Fatal(err)
	}
	policy := &models.Policy{
		PolicyNumber:   models.GeneratePolicyNumber(),
		CustomerID:     customer.ID,
		BrokerID:       broker.ID,
		Type:           models.PolicyTypeLife,
		Status:         models.PolicyStatusActive,
		CoverageAmount: 50000,
		PremiumAmount:  100,
		StartDate:      time.Now().AddDate(0, -1, 0),
		EndDate:        time.Now().AddDate(1, 0, 0),
	}
	if err := db.Create(policy).Error; err != nil {
		t.Fatal(err)
	}
	premium := &models.Premium{
		PolicyID: policy.ID,
		Amount:   100,
		DueDate:  time.Now().AddDate(0, 0, 2),
		Status:   status,
	}
	if status == models.PremiumStatusPaid {
		now := time.Now().UTC()
		premium.PaidAt = &now
		premium.PaymentRef = models.GeneratePaymentReference()
	}
	if err := db.Create(premium).Error; err != nil {
		t.Fatal(err)
	}
	return premium
}

func TestHandlePremiumReminder(t *testing.T) {
	db := openTestDB(t)
	premium := seedPremium(t, db, models.PremiumStatusPending)

	notifier := &fakeNotifier{}
	task, err := tasks.NewPremiumReminderTask(premium.ID, "due")
	if err != nil {
		t.Fatal(err)
	}

	if err := HandlePremiumReminder(context.Background(), task, db, notifier, zerolog.Nop()); err != nil {
		t.Fatal(err)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.sent))
	}
	if notifier.sent[0].Email != "cust@example.com" {
		t.Errorf("reminder went to %q", notifier.sent[0].Email)
	}

	var logs []models.ReminderLog
	if err := db.Where("premium_id = ?", premium.ID).Find(&logs).Error; err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 reminder log row, got %d", len(logs))
	}
	if logs[0].Tier != "due" {
		t.Errorf("tier = %q", logs[0].Tier)
	}
	if logs[0].Channel != "fake" {
		t.Errorf("channel = %q", logs[0].Channel)
	}
}

func TestHandlePremiumReminder_PaidPremiumSkipped(t *testing.T) {
	db := openTestDB(t)
	premium := seedPremium(t, db, models.PremiumStatusPaid)

	notifier := &fakeNotifier{}
	task, err := tasks.NewPremiumReminderTask(premium.ID, "due")
	if err != nil {
		t.Fatal(err)
	}

	if err := HandlePremiumReminder(context.Background(), task, db, notifier, zerolog.Nop()); err != nil {
		t.Fatal(err)
	}
	if len(notifier.sent) != 0 {
		t.Error("paid premium must not trigger a reminder")
	}

	var count int64
	db.Model(&models.ReminderLog{}).Count(&count)
	if count != 0 {
		t.Error("no reminder log should be written for a skipped reminder")
	}
}

func TestHandlePremiumReminder_GonePremiumDropped(t *testing.T) {
	db := openTestDB(t)

	notifier := &fakeNotifier{}
	task, err := tasks.NewPremiumReminderTask("nonexistent", "due")
	if err != nil {
		t.Fatal(err)
	}

	// A missing premium is not a retryable error
	if err := HandlePremiumReminder(context.Background(), task, db, notifier, zerolog.Nop()); err != nil {
		t.Fatalf("expected nil for a gone premium, got %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Error("no notification expected")
	}
}

func TestHandlePaymentReceipt(t *testing.T) {
	db := openTestDB(t)
	paid := seedPremium(t, db, models.PremiumStatusPaid)

	notifier := &fakeNotifier{}
	task, err := tasks.NewPaymentReceiptTask(paid.ID)
	if err != nil {
		t.Fatal(err)
	}

	if err := HandlePaymentReceipt(context.Background(), task, db, notifier, zerolog.Nop()); err != nil {
		t.Fatal(err)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 receipt, got %d", len(notifier.sent))
	}
}

func TestHandlePaymentReceipt_UnpaidDropped(t *testing.T) {
	db := openTestDB(t)
	pending := seedPremium(t, db, models.PremiumStatusPending)

	notifier := &fakeNotifier{}
	task, err := tasks.NewPaymentReceiptTask(pending.ID)
	if err != nil {
		t.Fatal(err)
	}

	// Enqueued receipt for a rolled-back payment is dropped without error
	if err := HandlePaymentReceipt(context.Background(), task, db, notifier, zerolog.Nop()); err != nil {
		t.Fatal(err)
	}
	if len(notifier.sent) != 0 {
		t.Error("unpaid premium must not get a receipt")
	}
}
