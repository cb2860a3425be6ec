package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/platformbuilds/alert-engine/internal/config"
	"github.com/platformbuilds/alert-engine/internal/models"
	"github.com/platformbuilds/alert-engine/pkg/logger"
)

const publishTimeout = 5 * time.Second

// PushNotifier publishes alerts to per-user MQTT device topics. Mobile
// clients subscribe to <topic_prefix>/<device_topic>.
type PushNotifier struct {
	config config.PushConfig
	client mqtt.Client
	logger logger.Logger
}

func NewPushNotifier(cfg config.PushConfig, logger logger.Logger) (*PushNotifier, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	n := &PushNotifier{
		config: cfg,
		client: mqtt.NewClient(opts),
		logger: logger,
	}

	token := n.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connection timeout for %s", cfg.BrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}

	logger.Info("Push channel connected to MQTT broker", "broker", cfg.BrokerURL)
	return n, nil
}

func (n *PushNotifier) Kind() Kind { return KindPush }

func (n *PushNotifier) Send(ctx context.Context, alert *models.Alert, recipients []*models.User) (*models.DeliveryResult, error) {
	if !n.client.IsConnected() {
		return nil, fmt.Errorf("not connected to mqtt broker")
	}

	subject, body := alert.ContentFor(string(KindPush))
	payload, err := json.Marshal(map[string]interface{}{
		"id":       alert.ID,
		"type":     alert.Type,
		"priority": string(alert.Priority),
		"title":    subject,
		"message":  body,
		"time":     alert.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}

	delivered := 0
	attempted := 0
	var lastErr error
	for _, user := range recipients {
		if user.DeviceTopic == "" {
			continue
		}
		attempted++

		topic := fmt.Sprintf("%s/%s", n.config.TopicPrefix, user.DeviceTopic)
		token := n.client.Publish(topic, byte(n.config.QoS), false, payload)
		if !token.WaitTimeout(publishTimeout) {
			lastErr = fmt.Errorf("publish timeout for topic %s", topic)
			n.logger.Error("Push delivery timed out", "alertId", alert.ID, "user", user.ID, "topic", topic)
			continue
		}
		if err := token.Error(); err != nil {
			lastErr = err
			n.logger.Error("Push delivery failed", "alertId", alert.ID, "user", user.ID, "error", err)
			continue
		}
		delivered++
	}

	if attempted == 0 {
		return &models.DeliveryResult{Success: true, RecipientCount: 0}, nil
	}
	if delivered == 0 {
		return nil, fmt.Errorf("push delivery failed for all %d recipients: %w", attempted, lastErr)
	}

	result := &models.DeliveryResult{Success: delivered == attempted, RecipientCount: delivered}
	if delivered < attempted {
		result.Error = fmt.Sprintf("delivered %d of %d recipients", delivered, attempted)
	}

	n.logger.Info("Push notification sent", "alertId", alert.ID, "delivered", delivered, "attempted", attempted)
	return result, nil
}

// Close disconnects from the broker, allowing in-flight work to finish.
func (n *PushNotifier) Close() error {
	n.client.Disconnect(250)
	return nil
}
