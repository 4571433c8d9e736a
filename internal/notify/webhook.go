package notify

import (
	"context"
	"fmt"

	httpclient "github.com/cyphera/cyphera-permissions/internal/client/http"
	"github.com/cyphera/cyphera-permissions/internal/logger"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
	"go.uber.org/zap"
)

// OriginHeader names the origin a webhook delivery is meant for
const OriginHeader = "X-Permissions-Origin"

// WebhookNotifier posts every notification as an OriginEvent to one URL
type WebhookNotifier struct {
	client *httpclient.HTTPClient
	url    string
	token  string
	logger *zap.Logger
}

// NewWebhookNotifier creates a webhook notifier. token is sent as a bearer
// token when not empty.
func NewWebhookNotifier(client *httpclient.HTTPClient, url, token string) *WebhookNotifier {
	return &WebhookNotifier{
		client: client,
		url:    url,
		token:  token,
		logger: logger.ForComponent(logger.ComponentNotifications),
	}
}

// NotifyOrigin posts the notification
func (n *WebhookNotifier) NotifyOrigin(ctx context.Context, origin string, notification business.Notification) error {
	opts := []httpclient.RequestOption{httpclient.WithHeader(OriginHeader, origin)}
	if n.token != "" {
		opts = append(opts, httpclient.WithBearerToken(n.token))
	}

	resp, err := n.client.Post(ctx, n.url, OriginEvent{Origin: origin, Notification: notification}, opts...)
	if err != nil {
		return fmt.Errorf("failed to deliver webhook: %w", err)
	}
	_ = resp.Body.Close()

	n.logger.Debug("Delivered webhook",
		zap.String("origin", origin),
		zap.String("method", notification.Method),
		zap.Int("status", resp.StatusCode))
	return nil
}
