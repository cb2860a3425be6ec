package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RoutingPolicy is the on-disk shape of the alert routing policy file
// (alert-rules.yaml): notification templates, per-role rules and the
// escalation chain. Sections left empty fall back to built-in defaults.
type RoutingPolicy struct {
	Templates  map[string]TemplateSpec `yaml:"templates"`
	Roles      map[string]RuleSpec     `yaml:"roles"`
	Escalation []EscalationStepSpec    `yaml:"escalation"`
}

// TemplateSpec declares a notification template. The body may reference
// alert data with {key} placeholders.
type TemplateSpec struct {
	Subject    string                         `yaml:"subject"`
	Body       string                         `yaml:"body"`
	Priority   string                         `yaml:"priority"`
	Channels   []string                       `yaml:"channels"`
	Escalate   bool                           `yaml:"escalate"`
	PerChannel map[string]ChannelTemplateSpec `yaml:"per_channel"`
}

// ChannelTemplateSpec overrides the rendered content for one channel,
// e.g. a short form for sms.
type ChannelTemplateSpec struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// RuleSpec declares how one role receives notifications.
type RuleSpec struct {
	Channels        []string       `yaml:"channels"`
	Priorities      []string       `yaml:"priorities"`
	EscalationLevel int            `yaml:"escalation_level"`
	QuietHours      QuietHoursSpec `yaml:"quiet_hours"`
}

// QuietHoursSpec suppresses non-critical delivery between Start and End
// (hours of day, local time). Start > End wraps past midnight.
type QuietHoursSpec struct {
	Enabled bool `yaml:"enabled"`
	Start   int  `yaml:"start"`
	End     int  `yaml:"end"`
}

// EscalationStepSpec is one step of the escalation chain; position in the
// list is the escalation level (first step = level 1).
type EscalationStepSpec struct {
	Role  string `yaml:"role"`
	Delay int    `yaml:"delay"` // milliseconds before this level fires
}

// LoadPolicy reads and parses the routing policy file. A missing file is
// not an error; it returns (nil, nil) and the caller applies defaults.
func LoadPolicy(path string) (*RoutingPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	var policy RoutingPolicy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}

	if err := validatePolicy(&policy); err != nil {
		return nil, fmt.Errorf("policy validation failed: %w", err)
	}

	return &policy, nil
}

func validatePolicy(policy *RoutingPolicy) error {
	validPriorities := []string{"critical", "high", "medium", "low", "info"}

	for name, tmpl := range policy.Templates {
		if tmpl.Priority != "" && !contains(validPriorities, tmpl.Priority) {
			return fmt.Errorf("template %s: invalid priority %q", name, tmpl.Priority)
		}
	}

	for role, rule := range policy.Roles {
		for _, p := range rule.Priorities {
			if !contains(validPriorities, p) {
				return fmt.Errorf("role %s: invalid priority %q", role, p)
			}
		}
		if rule.QuietHours.Enabled {
			if rule.QuietHours.Start < 0 || rule.QuietHours.Start > 23 {
				return fmt.Errorf("role %s: quiet hours start out of range", role)
			}
			if rule.QuietHours.End < 0 || rule.QuietHours.End > 23 {
				return fmt.Errorf("role %s: quiet hours end out of range", role)
			}
		}
	}

	for i, step := range policy.Escalation {
		if step.Role == "" {
			return fmt.Errorf("escalation step %d: role is required", i+1)
		}
		if step.Delay < 0 {
			return fmt.Errorf("escalation step %d: negative delay", i+1)
		}
	}

	return nil
}
