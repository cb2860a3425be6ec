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

// smsMaxRunes caps message length to a single SMS segment.
const smsMaxRunes = 160

// SMSNotifier delivers alerts through an HTTP SMS gateway, one POST per
// recipient phone number.
type SMSNotifier struct {
	config config.SMSConfig
	client *http.Client
	logger logger.Logger
}

func NewSMSNotifier(cfg config.SMSConfig, logger logger.Logger) *SMSNotifier {
	return &SMSNotifier{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

func (n *SMSNotifier) Kind() Kind { return KindSMS }

func (n *SMSNotifier) Send(ctx context.Context, alert *models.Alert, recipients []*models.User) (*models.DeliveryResult, error) {
	if n.config.GatewayURL == "" {
		return nil, fmt.Errorf("sms channel not properly configured")
	}

	subject, body := alert.ContentFor(string(KindSMS))
	text := truncateRunes(fmt.Sprintf("[%s] %s: %s", alert.Priority, subject, body), smsMaxRunes)

	delivered := 0
	attempted := 0
	var lastErr error
	for _, user := range recipients {
		if user.Phone == "" {
			continue
		}
		attempted++
		if err := n.post(ctx, user.Phone, text); err != nil {
			lastErr = err
			n.logger.Error("SMS delivery failed", "alertId", alert.ID, "user", user.ID, "error", err)
			continue
		}
		delivered++
	}

	if attempted == 0 {
		return &models.DeliveryResult{Success: true, RecipientCount: 0}, nil
	}
	if delivered == 0 {
		return nil, fmt.Errorf("sms delivery failed for all %d recipients: %w", attempted, lastErr)
	}

	result := &models.DeliveryResult{Success: delivered == attempted, RecipientCount: delivered}
	if delivered < attempted {
		result.Error = fmt.Sprintf("delivered %d of %d recipients", delivered, attempted)
	}

	n.logger.Info("SMS notification sent", "alertId", alert.ID, "delivered", delivered, "attempted", attempted)
	return result, nil
}

func (n *SMSNotifier) post(ctx context.Context, to, body string) error {
	payload := map[string]string{
		"to":   to,
		"from": n.config.From,
		"body": body,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", n.config.GatewayURL, bytes.NewReader(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if n.config.APIKey != "" {
		req.Header.Set("X-API-Key", n.config.APIKey)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
