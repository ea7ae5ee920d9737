package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SLAThreshold holds the response and resolution windows for one priority.
type SLAThreshold struct {
	ResponseMinutes   int `yaml:"response_minutes"`
	ResolutionMinutes int `yaml:"resolution_minutes"`
}

// Response returns the response window as a duration.
func (t SLAThreshold) Response() time.Duration {
	return time.Duration(t.ResponseMinutes) * time.Minute
}

// Resolution returns the resolution window as a duration.
func (t SLAThreshold) Resolution() time.Duration {
	return time.Duration(t.ResolutionMinutes) * time.Minute
}

// SLAPolicy is the externally supplied priority threshold table.
type SLAPolicy struct {
	Priorities      map[int]SLAThreshold `yaml:"priorities"`
	TargetAdherence float64              `yaml:"target_adherence"`
}

// Threshold returns the thresholds for a priority, falling back to P3 for
// values outside the table (mirrors upstream ticketing defaults).
func (p SLAPolicy) Threshold(priority int) SLAThreshold {
	if t, ok := p.Priorities[priority]; ok {
		return t
	}
	return p.Priorities[3]
}

// DefaultSLAPolicy returns the built-in threshold table used when no policy
// file is configured.
func DefaultSLAPolicy() SLAPolicy {
	return SLAPolicy{
		Priorities: map[int]SLAThreshold{
			1: {ResponseMinutes: 15, ResolutionMinutes: 240},
			2: {ResponseMinutes: 60, ResolutionMinutes: 480},
			3: {ResponseMinutes: 240, ResolutionMinutes: 1440},
			4: {ResponseMinutes: 480, ResolutionMinutes: 2880},
		},
		TargetAdherence: 0.95,
	}
}

// LoadSLAPolicy reads and validates the policy table from a YAML file. An
// empty path yields the built-in defaults.
func LoadSLAPolicy(path string) (*SLAPolicy, error) {
	policy := DefaultSLAPolicy()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read policy file: %w", err)
		}
		policy = SLAPolicy{}
		if err := yaml.Unmarshal(raw, &policy); err != nil {
			return nil, fmt.Errorf("parse policy file: %w", err)
		}
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &policy, nil
}

// Validate checks the table covers all four priority levels with positive
// windows and a sane adherence target.
func (p SLAPolicy) Validate() error {
	for priority := 1; priority <= 4; priority++ {
		t, ok := p.Priorities[priority]
		if !ok {
			return fmt.Errorf("sla policy missing priority %d", priority)
		}
		if t.ResponseMinutes <= 0 || t.ResolutionMinutes <= 0 {
			return fmt.Errorf("sla policy priority %d: windows must be positive", priority)
		}
		if t.ResponseMinutes > t.ResolutionMinutes {
			return fmt.Errorf("sla policy priority %d: response window exceeds resolution window", priority)
		}
	}
	if p.TargetAdherence <= 0 || p.TargetAdherence > 1 {
		return fmt.Errorf("sla policy target_adherence must be in (0,1], got %v", p.TargetAdherence)
	}
	return nil
}
