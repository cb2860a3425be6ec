package models

// CreateAlertRequest is the payload accepted when raising an alert. Only
// the type is mandatory; priority, content and routing can all come from
// a template or from defaults.
type CreateAlertRequest struct {
	Type          string                 `json:"type" binding:"required"`
	Priority      Priority               `json:"priority,omitempty"`
	Title         string                 `json:"title,omitempty"`
	Message       string                 `json:"message,omitempty"`
	Data          map[string]interface{} `json:"data,omitempty"`
	Source        string                 `json:"source,omitempty"`
	Tags          []string               `json:"tags,omitempty"`
	Template      string                 `json:"template,omitempty"`
	Channels      []string               `json:"channels,omitempty"`
	CreatedBy     string                 `json:"created_by,omitempty"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Environment   string                 `json:"environment,omitempty"`
	RefID         string                 `json:"ref_id,omitempty"`   // id of a related alert, set on escalation follow-ups
	Escalate      *bool                  `json:"escalate,omitempty"` // overrides the template's escalate flag
}

// AcknowledgeAlertRequest marks an alert as seen by an operator.
type AcknowledgeAlertRequest struct {
	User    string `json:"user" binding:"required"`
	Comment string `json:"comment,omitempty"`
}

// ResolveAlertRequest closes out an alert.
type ResolveAlertRequest struct {
	User       string `json:"user" binding:"required"`
	Resolution string `json:"resolution,omitempty"`
}

// CreateAlertResult is what CreateAlert hands back: either the stored
// alert, or a suppression verdict with the reason (e.g. rate_limited).
// Suppression is a declined result, not an error.
type CreateAlertResult struct {
	Alert      *Alert `json:"alert,omitempty"`
	Suppressed bool   `json:"suppressed"`
	Reason     string `json:"reason,omitempty"`
}
