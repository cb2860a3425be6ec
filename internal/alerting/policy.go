package alerting

import (
	"sort"
	"time"

	"github.com/platformbuilds/alert-engine/internal/config"
	"github.com/platformbuilds/alert-engine/internal/models"
)

// Policy is the engine's runtime view of the routing policy: notification
// templates, per-role rules and the escalation chain. Policies are
// immutable once built; hot reload swaps the whole snapshot.
type Policy struct {
	Templates map[string]*Template
	Rules     map[string]*NotificationRule
	Chain     []EscalationStep
}

// Template declares default routing and {key}-substituted content for one
// alert type.
type Template struct {
	Subject    string
	Body       string
	PerChannel map[string]models.ChannelContent
	Priority   models.Priority
	Channels   []string
	Escalate   bool
}

// NotificationRule declares how one role receives notifications.
type NotificationRule struct {
	Channels        []string
	Priorities      []models.Priority
	EscalationLevel int
	QuietHours      bool
	QuietHoursStart int
	QuietHoursEnd   int
}

// Covers reports whether the rule routes alerts of the given priority.
// An empty priority list covers everything.
func (r *NotificationRule) Covers(p models.Priority) bool {
	if len(r.Priorities) == 0 {
		return true
	}
	for _, allowed := range r.Priorities {
		if allowed == p {
			return true
		}
	}
	return false
}

// InQuietHours reports whether the given hour of day falls inside the
// rule's quiet window. A window with start > end wraps past midnight,
// e.g. 22..8 covers 23:00 and 02:00 but not 10:00.
func (r *NotificationRule) InQuietHours(hour int) bool {
	if !r.QuietHours {
		return false
	}
	if r.QuietHoursStart > r.QuietHoursEnd {
		return hour >= r.QuietHoursStart || hour < r.QuietHoursEnd
	}
	return hour >= r.QuietHoursStart && hour < r.QuietHoursEnd
}

// EscalationStep is one level of the escalation chain.
type EscalationStep struct {
	Role  string
	Delay time.Duration
}

// StepForLevel maps an escalation level to its chain step. Levels are
// 1-based: level 1 is the first step. A level past the end of the chain
// has no step, which terminates escalation.
func (p *Policy) StepForLevel(level int) (EscalationStep, bool) {
	if level < 1 || level > len(p.Chain) {
		return EscalationStep{}, false
	}
	return p.Chain[level-1], true
}

// Roles returns the rule role names in stable order.
func (p *Policy) Roles() []string {
	roles := make([]string, 0, len(p.Rules))
	for role := range p.Rules {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// PolicyFromSpec builds a runtime policy from the parsed policy file,
// filling any section the file leaves empty from the built-in defaults.
// A nil spec yields the defaults unchanged.
func PolicyFromSpec(spec *config.RoutingPolicy) *Policy {
	policy := DefaultPolicy()
	if spec == nil {
		return policy
	}

	if len(spec.Templates) > 0 {
		policy.Templates = make(map[string]*Template, len(spec.Templates))
		for name, t := range spec.Templates {
			tmpl := &Template{
				Subject:  t.Subject,
				Body:     t.Body,
				Priority: models.Priority(t.Priority),
				Channels: append([]string(nil), t.Channels...),
				Escalate: t.Escalate,
			}
			if len(t.PerChannel) > 0 {
				tmpl.PerChannel = make(map[string]models.ChannelContent, len(t.PerChannel))
				for ch, c := range t.PerChannel {
					tmpl.PerChannel[ch] = models.ChannelContent{Subject: c.Subject, Body: c.Body}
				}
			}
			policy.Templates[name] = tmpl
		}
	}

	if len(spec.Roles) > 0 {
		policy.Rules = make(map[string]*NotificationRule, len(spec.Roles))
		for role, r := range spec.Roles {
			rule := &NotificationRule{
				Channels:        append([]string(nil), r.Channels...),
				EscalationLevel: r.EscalationLevel,
				QuietHours:      r.QuietHours.Enabled,
				QuietHoursStart: r.QuietHours.Start,
				QuietHoursEnd:   r.QuietHours.End,
			}
			for _, p := range r.Priorities {
				rule.Priorities = append(rule.Priorities, models.Priority(p))
			}
			policy.Rules[role] = rule
		}
	}

	if len(spec.Escalation) > 0 {
		policy.Chain = make([]EscalationStep, 0, len(spec.Escalation))
		for _, step := range spec.Escalation {
			policy.Chain = append(policy.Chain, EscalationStep{
				Role:  step.Role,
				Delay: time.Duration(step.Delay) * time.Millisecond,
			})
		}
	}

	return policy
}

// DefaultPolicy is the policy in effect when no policy file is present.
func DefaultPolicy() *Policy {
	return &Policy{
		Templates: map[string]*Template{
			"system_down": {
				Subject:  "System Down: {system}",
				Body:     "The system {system} is not responding. Last check: {lastCheck}",
				Priority: models.PriorityCritical,
				Channels: []string{"email", "sms", "realtime", "chat"},
				Escalate: true,
				PerChannel: map[string]models.ChannelContent{
					"sms": {Body: "SYSTEM DOWN: {system}"},
				},
			},
			"high_error_rate": {
				Subject:  "High Error Rate: {service}",
				Body:     "Error rate {errorRate}% exceeds the threshold {threshold}% for {service}",
				Priority: models.PriorityHigh,
				Channels: []string{"email", "realtime"},
				Escalate: true,
			},
			"slow_api": {
				Subject:  "Slow API Response: {endpoint}",
				Body:     "Endpoint {endpoint} is answering in {latency}ms (limit {limit}ms)",
				Priority: models.PriorityMedium,
				Channels: []string{"realtime"},
			},
		},
		Rules: map[string]*NotificationRule{
			"admin": {
				Channels:        []string{"email", "sms", "realtime"},
				Priorities:      []models.Priority{models.PriorityCritical, models.PriorityHigh},
				EscalationLevel: 2,
			},
			"operator": {
				Channels:        []string{"email", "realtime", "chat"},
				Priorities:      []models.Priority{models.PriorityCritical, models.PriorityHigh, models.PriorityMedium},
				EscalationLevel: 1,
				QuietHours:      true,
				QuietHoursStart: 22,
				QuietHoursEnd:   8,
			},
			"developer": {
				Channels:        []string{"realtime", "chat"},
				Priorities:      []models.Priority{models.PriorityHigh, models.PriorityMedium, models.PriorityLow},
				EscalationLevel: 1,
				QuietHours:      true,
				QuietHoursStart: 22,
				QuietHoursEnd:   8,
			},
		},
		Chain: []EscalationStep{
			{Role: "operator", Delay: 5 * time.Minute},
			{Role: "admin", Delay: 15 * time.Minute},
			{Role: "admin", Delay: 30 * time.Minute},
		},
	}
}
