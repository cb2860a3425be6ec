package models

import "time"

// Priority levels in descending order of urgency.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
	PriorityInfo     Priority = "info"
)

var priorityWeights = map[Priority]int{
	PriorityCritical: 50,
	PriorityHigh:     40,
	PriorityMedium:   30,
	PriorityLow:      20,
	PriorityInfo:     10,
}

// Weight returns the sort weight of p; higher drains first. Unknown
// priorities weigh zero and sort last.
func (p Priority) Weight() int {
	return priorityWeights[p]
}

// Valid reports whether p is one of the five known levels.
func (p Priority) Valid() bool {
	_, ok := priorityWeights[p]
	return ok
}

// Priorities lists all levels, most urgent first.
func Priorities() []Priority {
	return []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow, PriorityInfo}
}

// Alert lifecycle statuses.
const (
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// TypeEscalation is the alert type raised automatically when an alert is
// not acknowledged in time; its data references the original alert.
const TypeEscalation = "escalation"

// History actions recorded by the store.
const (
	ActionCreated      = "created"
	ActionAcknowledged = "acknowledged"
	ActionResolved     = "resolved"
	ActionEscalated    = "escalated"
)

type Alert struct {
	ID              string                    `json:"id"`
	Type            string                    `json:"type"` // e.g. system_down, high_error_rate, escalation
	Priority        Priority                  `json:"priority"`
	Title           string                    `json:"title"`
	Message         string                    `json:"message"`
	Data            map[string]interface{}    `json:"data,omitempty"`
	Source          string                    `json:"source,omitempty"`
	Tags            []string                  `json:"tags,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
	Status          string                    `json:"status"` // pending, processed, failed
	Acknowledged    bool                      `json:"acknowledged"`
	AcknowledgedBy  string                    `json:"acknowledged_by,omitempty"`
	AcknowledgedAt  *time.Time                `json:"acknowledged_at,omitempty"`
	AckComment      string                    `json:"ack_comment,omitempty"`
	Resolved        bool                      `json:"resolved"`
	ResolvedBy      string                    `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time                `json:"resolved_at,omitempty"`
	Resolution      string                    `json:"resolution,omitempty"`
	EscalationLevel int                       `json:"escalation_level"`
	Escalated       bool                      `json:"escalated"`
	Attempts        int                       `json:"attempts"`
	MaxAttempts     int                       `json:"max_attempts"`
	NextRetryAt     *time.Time                `json:"next_retry_at,omitempty"`
	LastAttemptAt   *time.Time                `json:"last_attempt_at,omitempty"`
	Recipients      []string                  `json:"recipients,omitempty"`
	Channels        []string                  `json:"channels,omitempty"`
	Overrides       map[string]ChannelContent `json:"channel_overrides,omitempty"`
	Metadata        AlertMetadata             `json:"metadata"`
}

// ChannelContent is rendered channel-specific content, e.g. an sms short
// form produced by a template's per-channel section.
type ChannelContent struct {
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
}

// ContentFor returns the subject and body to deliver on the given channel,
// preferring a channel override when one was rendered.
func (a *Alert) ContentFor(channel string) (string, string) {
	subject, body := a.Title, a.Message
	if o, ok := a.Overrides[channel]; ok {
		if o.Subject != "" {
			subject = o.Subject
		}
		if o.Body != "" {
			body = o.Body
		}
	}
	return subject, body
}

// AlertMetadata carries caller context and routing hints that are not part
// of the alert payload itself.
type AlertMetadata struct {
	CreatedBy     string `json:"created_by,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	Environment   string `json:"environment,omitempty"`
	Template      string `json:"template,omitempty"` // template applied at creation
	Escalate      bool   `json:"escalate"`           // opt-in to the escalation chain
	RefID         string `json:"ref_id,omitempty"`   // original alert id on type == escalation
}

// Clone returns a deep copy safe to hand outside the store.
func (a *Alert) Clone() *Alert {
	if a == nil {
		return nil
	}
	dup := *a
	if a.Data != nil {
		dup.Data = make(map[string]interface{}, len(a.Data))
		for k, v := range a.Data {
			dup.Data[k] = v
		}
	}
	if a.Tags != nil {
		dup.Tags = append([]string(nil), a.Tags...)
	}
	if a.Recipients != nil {
		dup.Recipients = append([]string(nil), a.Recipients...)
	}
	if a.Channels != nil {
		dup.Channels = append([]string(nil), a.Channels...)
	}
	if a.Overrides != nil {
		dup.Overrides = make(map[string]ChannelContent, len(a.Overrides))
		for k, v := range a.Overrides {
			dup.Overrides[k] = v
		}
	}
	if a.AcknowledgedAt != nil {
		t := *a.AcknowledgedAt
		dup.AcknowledgedAt = &t
	}
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		dup.ResolvedAt = &t
	}
	if a.NextRetryAt != nil {
		t := *a.NextRetryAt
		dup.NextRetryAt = &t
	}
	if a.LastAttemptAt != nil {
		t := *a.LastAttemptAt
		dup.LastAttemptAt = &t
	}
	return &dup
}

// HistoryEntry is one append-only record of an alert lifecycle transition.
// The embedded alert is a copy taken at event time.
type HistoryEntry struct {
	ID     string    `json:"id"`
	Action string    `json:"action"` // created, acknowledged, resolved, escalated
	Alert  Alert     `json:"alert"`
	Time   time.Time `json:"time"`
}

// DeliveryResult is the per-channel outcome of one notification attempt.
type DeliveryResult struct {
	Success        bool   `json:"success"`
	RecipientCount int    `json:"recipient_count"`
	Error          string `json:"error,omitempty"`
}

// ProcessingOutcome summarizes one pass of an alert through the dispatcher:
// who was notified, over which channels, and how each channel fared.
type ProcessingOutcome struct {
	AlertID    string                     `json:"alert_id"`
	Recipients []string                   `json:"recipients"`
	Channels   []string                   `json:"channels"`
	Results    map[string]*DeliveryResult `json:"results"`
}

// Failed lists the channels whose delivery did not succeed.
func (o *ProcessingOutcome) Failed() []string {
	var failed []string
	for ch, r := range o.Results {
		if r == nil || !r.Success {
			failed = append(failed, ch)
		}
	}
	return failed
}
