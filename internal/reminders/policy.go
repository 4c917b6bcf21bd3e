// Package reminders holds the payment-reminder policy: when reminders go out,
// how escalation tiers map to queue priorities, and how often a premium may be
// reminded about.
package reminders

import (
	"fmt"
	"os"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Tier is one escalation step of the reminder ladder.
type Tier struct {
	// Name identifies the tier in reminder logs ("upcoming", "overdue", ...)
	Name string `yaml:"name"`
	// OverdueDays selects this tier once the premium is this many days past
	// due. Negative values fire before the due date.
	OverdueDays int `yaml:"overdue_days"`
	// Queue is the asynq queue the reminder is enqueued on.
	Queue string `yaml:"queue"`
}

// Policy is the loaded reminder configuration.
type Policy struct {
	// Schedule is a cron expression gating when the scheduler actually sends
	// (e.g. "0 9 * * *" keeps reminders to 9am). Empty means send on any scan.
	Schedule string `yaml:"schedule"`
	// LeadDays is how many days before the due date the first reminder may go out.
	LeadDays int `yaml:"lead_days"`
	// DedupeHours suppresses repeat reminders for the same premium inside this window.
	DedupeHours int `yaml:"dedupe_hours"`
	// Tiers must be ordered from least to most overdue.
	Tiers []Tier `yaml:"tiers"`
}

// Default returns the built-in reminder policy used when no config file is set.
func Default() *Policy {
	return &Policy{
		LeadDays:    3,
		DedupeHours: 24,
		Tiers: []Tier{
			{Name: "upcoming", OverdueDays: -3, Queue: "low"},
			{Name: "due", OverdueDays: 0, Queue: "default"},
			{Name: "overdue", OverdueDays: 7, Queue: "critical"},
		},
	}
}

// Load reads a reminder policy from a YAML file. Missing fields fall back to
// the built-in defaults.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reminders config: %w", err)
	}

	policy := Default()
	if err := yaml.Unmarshal(data, policy); err != nil {
		return nil, fmt.Errorf("failed to parse reminders config: %w", err)
	}

	if err := policy.Validate(); err != nil {
		return nil, err
	}

	return policy, nil
}

// Validate checks the policy for obvious misconfiguration.
func (p *Policy) Validate() error {
	if p.Schedule != "" {
		if _, err := cron.ParseStandard(p.Schedule); err != nil {
			return fmt.Errorf("invalid reminder schedule %q: %w", p.Schedule, err)
		}
	}
	if p.LeadDays < 0 {
		return fmt.Errorf("lead_days must not be negative")
	}
	if p.DedupeHours <= 0 {
		return fmt.Errorf("dedupe_hours must be positive")
	}
	if len(p.Tiers) == 0 {
		return fmt.Errorf("at least one reminder tier is required")
	}
	for i, tier := range p.Tiers {
		if tier.Name == "" {
			return fmt.Errorf("tier %d has no name", i)
		}
		if tier.Queue == "" {
			return fmt.Errorf("tier %q has no queue", tier.Name)
		}
		if i > 0 && tier.OverdueDays <= p.Tiers[i-1].OverdueDays {
			return fmt.Errorf("tiers must be ordered by overdue_days")
		}
	}
	return nil
}

// TierFor picks the escalation tier for a premium that is overdueDays past
// due (negative = not yet due). Returns the most severe tier whose threshold
// has been crossed, or nil when none applies yet.
func (p *Policy) TierFor(overdueDays int) *Tier {
	var match *Tier
	for i := range p.Tiers {
		if overdueDays >= p.Tiers[i].OverdueDays {
			match = &p.Tiers[i]
		}
	}
	return match
}
