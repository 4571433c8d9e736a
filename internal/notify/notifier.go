// Package notify delivers per-origin change notifications.
package notify

import (
	"context"

	"github.com/cyphera/cyphera-permissions/internal/interfaces"
	"github.com/cyphera/cyphera-permissions/internal/logger"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// LogNotifier writes notifications to the structured log. It is the default
// delivery channel for local runs.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: logger.ForComponent(logger.ComponentNotifications)}
}

// NotifyOrigin logs the notification
func (n *LogNotifier) NotifyOrigin(_ context.Context, origin string, notification business.Notification) error {
	n.logger.Info("Notification",
		zap.String("origin", origin),
		zap.String("method", notification.Method),
		zap.Any("params", notification.Params))
	return nil
}

// MultiNotifier fans a notification out to several notifiers. Every notifier
// is tried; their errors are combined.
type MultiNotifier struct {
	notifiers []interfaces.Notifier
}

// NewMultiNotifier creates a fan-out notifier. Nil entries are skipped.
func NewMultiNotifier(notifiers ...interfaces.Notifier) *MultiNotifier {
	m := &MultiNotifier{}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

// NotifyOrigin delivers the notification to every notifier
func (m *MultiNotifier) NotifyOrigin(ctx context.Context, origin string, notification business.Notification) error {
	var err error
	for _, n := range m.notifiers {
		err = multierr.Append(err, n.NotifyOrigin(ctx, origin, notification))
	}
	return err
}
