package channels

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/platformbuilds/alert-engine/internal/config"
	"github.com/platformbuilds/alert-engine/internal/models"
	"github.com/platformbuilds/alert-engine/pkg/logger"
)

// EmailNotifier delivers alerts over SMTP with optional plain auth.
type EmailNotifier struct {
	config config.EmailConfig
	logger logger.Logger

	// sendMail is swappable for tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailNotifier(cfg config.EmailConfig, logger logger.Logger) *EmailNotifier {
	return &EmailNotifier{
		config:   cfg,
		logger:   logger,
		sendMail: smtp.SendMail,
	}
}

func (n *EmailNotifier) Kind() Kind { return KindEmail }

func (n *EmailNotifier) Send(ctx context.Context, alert *models.Alert, recipients []*models.User) (*models.DeliveryResult, error) {
	if n.config.SMTPHost == "" || n.config.SMTPPort == 0 || n.config.FromAddress == "" {
		return nil, fmt.Errorf("email channel not properly configured")
	}

	addresses := make([]string, 0, len(recipients))
	for _, user := range recipients {
		if user.Email == "" {
			continue
		}
		safe, err := sanitizeEmailHeader("recipient", user.Email)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, safe)
	}
	if len(addresses) == 0 {
		return &models.DeliveryResult{Success: true, RecipientCount: 0}, nil
	}

	safeFrom, err := sanitizeEmailHeader("from address", n.config.FromAddress)
	if err != nil {
		return nil, err
	}
	if safeFrom == "" {
		return nil, fmt.Errorf("from address cannot be empty")
	}

	subject, body := alert.ContentFor(string(KindEmail))
	safeTitle, err := sanitizeEmailHeader("title", subject)
	if err != nil {
		return nil, err
	}

	header := fmt.Sprintf("[AlertEngine] %s - %s", strings.ToUpper(string(alert.Priority)), safeTitle)
	text := fmt.Sprintf(
		"Type: %s\nPriority: %s\nSource: %s\nTime: %s\n\n%s",
		alert.Type,
		alert.Priority,
		alert.Source,
		alert.CreatedAt.Format(time.RFC3339),
		body,
	)

	var msgBuilder strings.Builder
	msgBuilder.WriteString("From: ")
	msgBuilder.WriteString(safeFrom)
	msgBuilder.WriteString("\r\n")
	msgBuilder.WriteString("To: ")
	msgBuilder.WriteString(strings.Join(addresses, ","))
	msgBuilder.WriteString("\r\n")
	msgBuilder.WriteString("Subject: ")
	msgBuilder.WriteString(header)
	msgBuilder.WriteString("\r\n\r\n")
	msgBuilder.WriteString(text)

	// Build auth only if username/password provided
	var auth smtp.Auth
	if n.config.Username != "" && n.config.Password != "" {
		auth = smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.SMTPHost)
	}

	smtpAddr := fmt.Sprintf("%s:%d", n.config.SMTPHost, n.config.SMTPPort)
	if err := n.sendMail(smtpAddr, auth, safeFrom, addresses, []byte(msgBuilder.String())); err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Info("Email notification sent",
		"alertId", alert.ID,
		"type", alert.Type,
		"recipients", len(addresses),
	)
	return &models.DeliveryResult{Success: true, RecipientCount: len(addresses)}, nil
}

// sanitizeEmailHeader rejects header values that could break out of email headers.
func sanitizeEmailHeader(fieldName, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if strings.ContainsAny(trimmed, "\r\n") {
		return "", fmt.Errorf("%s contains invalid newline characters", fieldName)
	}
	return trimmed, nil
}
