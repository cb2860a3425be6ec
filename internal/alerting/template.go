package alerting

import (
	"fmt"
	"strings"

	"github.com/platformbuilds/alert-engine/internal/models"
)

// RenderTemplate substitutes {key} placeholders in text with values from
// data. Placeholders without a matching key are left as-is, so a missing
// value is visible in the delivered message instead of silently blank.
func RenderTemplate(text string, data map[string]interface{}) string {
	if text == "" || len(data) == 0 {
		return text
	}

	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{"+key+"}", fmt.Sprintf("%v", value))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// applyTemplate stamps the template onto the alert: rendered subject and
// body replace title and message, the template priority (when declared)
// replaces the alert's, template channels union into the alert's channel
// set, and the escalate flag lands in metadata. A nil template leaves the
// alert untouched.
func applyTemplate(alert *models.Alert, tmpl *Template) {
	if tmpl == nil {
		return
	}

	if tmpl.Subject != "" {
		alert.Title = RenderTemplate(tmpl.Subject, alert.Data)
	}
	if tmpl.Body != "" {
		alert.Message = RenderTemplate(tmpl.Body, alert.Data)
	}
	if tmpl.Priority != "" {
		alert.Priority = tmpl.Priority
	}
	alert.Channels = unionStrings(alert.Channels, tmpl.Channels)
	alert.Metadata.Escalate = tmpl.Escalate

	for channel, content := range tmpl.PerChannel {
		if alert.Overrides == nil {
			alert.Overrides = make(map[string]models.ChannelContent, len(tmpl.PerChannel))
		}
		alert.Overrides[channel] = models.ChannelContent{
			Subject: RenderTemplate(content.Subject, alert.Data),
			Body:    RenderTemplate(content.Body, alert.Data),
		}
	}
}

// unionStrings merges b into a preserving first-seen order without
// duplicates.
func unionStrings(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a)+len(b))
	merged := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			merged = append(merged, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			merged = append(merged, s)
		}
	}
	return merged
}
