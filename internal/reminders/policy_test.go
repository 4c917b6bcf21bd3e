package reminders

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTierFor(t *testing.T) {
	policy := Default()

	tests := []struct {
		overdueDays int
		wantTier    string
	}{
		{-10, ""},
		{-4, ""},
		{-3, "upcoming"},
		{-1, "upcoming"},
		{0, "due"},
		{6, "due"},
		{7, "overdue"},
		{60, "overdue"},
	}

	for _, tt := range tests {
		tier := policy.TierFor(tt.overdueDays)
		got := ""
		if tier != nil {
			got = tier.Name
		}
		if got != tt.wantTier {
			t.Errorf("TierFor(%d) = %q, want %q", tt.overdueDays, got, tt.wantTier)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Policy)
		wantErr bool
	}{
		{"default is valid", func(p *Policy) {}, false},
		{"valid cron schedule", func(p *Policy) { p.Schedule = "0 9 * * *" }, false},
		{"bad cron schedule", func(p *Policy) { p.Schedule = "not cron" }, true},
		{"negative lead days", func(p *Policy) { p.LeadDays = -1 }, true},
		{"zero dedupe", func(p *Policy) { p.DedupeHours = 0 }, true},
		{"no tiers", func(p *Policy) { p.Tiers = nil }, true},
		{"unnamed tier", func(p *Policy) { p.Tiers[0].Name = "" }, true},
		{"tier without queue", func(p *Policy) { p.Tiers[1].Queue = "" }, true},
		{"unordered tiers", func(p *Policy) {
			p.Tiers[2].OverdueDays = p.Tiers[1].OverdueDays
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := Default()
			tt.mutate(policy)
			err := policy.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reminders.yaml")

	yaml := `
schedule: "0 9 * * *"
lead_days: 5
dedupe_hours: 48
tiers:
  - name: nudge
    overdue_days: -5
    queue: low
  - name: final
    overdue_days: 14
    queue: critical
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	policy, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if policy.Schedule != "0 9 * * *" {
		t.Errorf("schedule = %q", policy.Schedule)
	}
	if policy.LeadDays != 5 || policy.DedupeHours != 48 {
		t.Errorf("lead=%d dedupe=%d", policy.LeadDays, policy.DedupeHours)
	}
	if len(policy.Tiers) != 2 || policy.Tiers[1].Name != "final" {
		t.Errorf("tiers = %+v", policy.Tiers)
	}

	tier := policy.TierFor(20)
	if tier == nil || tier.Queue != "critical" {
		t.Errorf("TierFor(20) = %+v", tier)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reminders.yaml")

	if err := os.WriteFile(path, []byte("lead_days: 10\n"), 0644); err != nil {
		t.Fatal(err)
	}

	policy, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if policy.LeadDays != 10 {
		t.Errorf("lead_days = %d", policy.LeadDays)
	}
	if policy.DedupeHours != Default().DedupeHours {
		t.Errorf("dedupe_hours should fall back to default, got %d", policy.DedupeHours)
	}
	if len(policy.Tiers) != 3 {
		t.Errorf("tiers should fall back to default, got %+v", policy.Tiers)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_InvalidPolicyRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reminders.yaml")

	if err := os.WriteFile(path, []byte("dedupe_hours: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected validation error")
	}
}
