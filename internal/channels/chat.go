package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/platformbuilds/alert-engine/internal/config"
	"github.com/platformbuilds/alert-engine/internal/models"
	"github.com/platformbuilds/alert-engine/pkg/logger"
)

// ChatNotifier posts alerts to a Slack-compatible incoming webhook.
type ChatNotifier struct {
	config config.ChatConfig
	client *http.Client
	logger logger.Logger
}

func NewChatNotifier(cfg config.ChatConfig, logger logger.Logger) *ChatNotifier {
	return &ChatNotifier{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

func (n *ChatNotifier) Kind() Kind { return KindChat }

func (n *ChatNotifier) Send(ctx context.Context, alert *models.Alert, recipients []*models.User) (*models.DeliveryResult, error) {
	if n.config.WebhookURL == "" {
		return nil, fmt.Errorf("chat channel not properly configured")
	}

	subject, body := alert.ContentFor(string(KindChat))

	payload := map[string]interface{}{
		"channel": n.config.Channel,
		"attachments": []map[string]interface{}{
			{
				"color":     chatColor(alert.Priority),
				"title":     subject,
				"text":      body,
				"timestamp": alert.CreatedAt.Unix(),
				"fields": []map[string]interface{}{
					{
						"title": "Type",
						"value": alert.Type,
						"short": true,
					},
					{
						"title": "Priority",
						"value": string(alert.Priority),
						"short": true,
					},
					{
						"title": "Source",
						"value": alert.Source,
						"short": true,
					},
				},
			},
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", n.config.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat notification failed with status %d", resp.StatusCode)
	}

	n.logger.Info("Chat notification sent", "alertId", alert.ID, "type", alert.Type)
	return &models.DeliveryResult{Success: true, RecipientCount: len(recipients)}, nil
}

func chatColor(priority models.Priority) string {
	switch priority {
	case models.PriorityCritical:
		return "danger"
	case models.PriorityHigh:
		return "warning"
	case models.PriorityInfo:
		return "good"
	default:
		return "#439FE0"
	}
}
