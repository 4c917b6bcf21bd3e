package models

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// User is an account on the platform. The Role decides which parts of the
// dashboard the user can reach.
type User struct {
	BaseModel
	Email        string `json:"email" gorm:"not null;unique"`
	FullName     string `json:"full_name" gorm:"not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	Role         Role   `json:"role" gorm:"type:varchar(20);not null;default:'CUSTOMER'"`
}

// Broker is the profile attached to a user with RoleBroker.
// CommissionRate is a fraction (0.10 = 10%) applied to each premium collected.
type Broker struct {
	BaseModel
	UserID         string  `json:"user_id" gorm:"not null;unique"`
	FirmName       string  `json:"firm_name" gorm:"not null"`
	LicenseNumber  string  `json:"license_number" gorm:"not null;unique"`
	CommissionRate float64 `json:"commission_rate" gorm:"not null;default:0.1"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Client links a customer account to the broker managing their policies.
type Client struct {
	BaseModel
	BrokerID string `json:"broker_id" gorm:"not null;index"`
	UserID   string `json:"user_id" gorm:"not null;unique"`

	Broker Broker `json:"broker,omitempty" gorm:"foreignKey:BrokerID"`
	User   User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// PolicyType is the kind of cover a policy provides.
type PolicyType string

const (
	PolicyTypeLife     PolicyType = "LIFE"
	PolicyTypeHealth   PolicyType = "HEALTH"
	PolicyTypeAuto     PolicyType = "AUTO"
	PolicyTypeProperty PolicyType = "PROPERTY"
)

// PolicyStatus is the lifecycle state of a policy.
type PolicyStatus string

const (
	PolicyStatusActive  PolicyStatus = "ACTIVE"
	PolicyStatusLapsed  PolicyStatus = "LAPSED"
	PolicyStatusExpired PolicyStatus = "EXPIRED"
)

// Policy is an insurance policy sold by a broker to a customer.
type Policy struct {
	BaseModel
	PolicyNumber   string       `json:"policy_number" gorm:"not null;unique"`
	CustomerID     string       `json:"customer_id" gorm:"not null;index"`
	BrokerID       string       `json:"broker_id" gorm:"not null;index"`
	Type           PolicyType   `json:"type" gorm:"type:varchar(20);not null"`
	Status         PolicyStatus `json:"status" gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	CoverageAmount float64      `json:"coverage_amount" gorm:"not null"`
	PremiumAmount  float64      `json:"premium_amount" gorm:"not null"`
	StartDate      time.Time    `json:"start_date" gorm:"not null"`
	EndDate        time.Time    `json:"end_date" gorm:"not null"`

	Customer User      `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Broker   Broker    `json:"broker,omitempty" gorm:"foreignKey:BrokerID"`
	Premiums []Premium `json:"premiums,omitempty" gorm:"foreignKey:PolicyID"`
}

// GeneratePolicyNumber returns a unique human-readable policy number.
func GeneratePolicyNumber() string {
	return fmt.Sprintf("POL-%s", ulid.Make().String())
}

// PremiumStatus is the payment state of a single premium installment.
type PremiumStatus string

const (
	PremiumStatusPending PremiumStatus = "PENDING"
	PremiumStatusPaid    PremiumStatus = "PAID"
	PremiumStatusOverdue PremiumStatus = "OVERDUE"
)

// Premium is one installment owed on a policy.
type Premium struct {
	BaseModel
	PolicyID   string        `json:"policy_id" gorm:"not null;index"`
	Amount     float64       `json:"amount" gorm:"not null"`
	DueDate    time.Time     `json:"due_date" gorm:"not null;index"`
	Status     PremiumStatus `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaidAt     *time.Time    `json:"paid_at"`
	PaymentRef string        `json:"payment_ref"`

	Policy Policy `json:"policy,omitempty" gorm:"foreignKey:PolicyID"`
}

// Payable reports whether the premium can still be paid.
func (p *Premium) Payable() bool {
	return p.Status == PremiumStatusPending || p.Status == PremiumStatusOverdue
}

// CommissionStatus is the settlement state of a broker commission.
type CommissionStatus string

const (
	CommissionStatusPending CommissionStatus = "PENDING"
	CommissionStatusSettled CommissionStatus = "SETTLED"
)

// Commission is the broker's cut of a paid premium, computed at payment time
// from the broker's rate and never recalculated afterwards.
type Commission struct {
	BaseModel
	BrokerID  string           `json:"broker_id" gorm:"not null;index"`
	PolicyID  string           `json:"policy_id" gorm:"not null;index"`
	PremiumID string           `json:"premium_id" gorm:"not null;unique"`
	Amount    float64          `json:"amount" gorm:"not null"`
	Rate      float64          `json:"rate" gorm:"not null"`
	Status    CommissionStatus `json:"status" gorm:"type:varchar(20);not null;default:'PENDING'"`

	Broker Broker `json:"broker,omitempty" gorm:"foreignKey:BrokerID"`
}

// PaymentStatus is the outcome of a simulated gateway payment.
type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Payment records a (simulated) gateway transaction against a premium.
type Payment struct {
	BaseModel
	PremiumID string        `json:"premium_id" gorm:"not null;index"`
	PayerID   string        `json:"payer_id" gorm:"not null;index"`
	Amount    float64       `json:"amount" gorm:"not null"`
	Method    string        `json:"method" gorm:"not null"`
	Reference string        `json:"reference" gorm:"not null;unique"`
	Status    PaymentStatus `json:"status" gorm:"type:varchar(20);not null"`
}

// GeneratePaymentReference returns a unique reference for a simulated payment.
func GeneratePaymentReference() string {
	return fmt.Sprintf("PAY-%s", ulid.Make().String())
}

// TicketStatus is the lifecycle state of a support ticket.
type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "OPEN"
	TicketStatusResolved TicketStatus = "RESOLVED"
	TicketStatusClosed   TicketStatus = "CLOSED"
)

// TicketPriority orders tickets in the support queue.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityNormal TicketPriority = "NORMAL"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// SupportTicket is a help request raised by any authenticated user.
type SupportTicket struct {
	BaseModel
	CreatedByID string         `json:"created_by_id" gorm:"not null;index"`
	Subject     string         `json:"subject" gorm:"not null"`
	Body        string         `json:"body" gorm:"not null"`
	Status      TicketStatus   `json:"status" gorm:"type:varchar(20);not null;default:'OPEN'"`
	Priority    TicketPriority `json:"priority" gorm:"type:varchar(20);not null;default:'NORMAL'"`

	CreatedBy User          `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID"`
	Replies   []TicketReply `json:"replies,omitempty" gorm:"foreignKey:TicketID"`
}

// TicketReply is a single message on a support ticket thread.
type TicketReply struct {
	BaseModel
	TicketID string `json:"ticket_id" gorm:"not null;index"`
	AuthorID string `json:"author_id" gorm:"not null"`
	Body     string `json:"body" gorm:"not null"`

	Author User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}

// ReminderLog records that a payment reminder was sent for a premium, so the
// scheduler does not send duplicates within the dedupe window.
type ReminderLog struct {
	BaseModel
	PremiumID string    `json:"premium_id" gorm:"not null;index"`
	Channel   string    `json:"channel" gorm:"not null"`
	Tier      string    `json:"tier" gorm:"not null"`
	SentAt    time.Time `json:"sent_at" gorm:"not null;index"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Broker{},
		&Client{},
		&Policy{},
		&Premium{},
		&Commission{},
		&Payment{},
		&SupportTicket{},
		&TicketReply{},
		&ReminderLog{},
	)
}
