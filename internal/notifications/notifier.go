// Package notifications delivers fire-and-forget success and error toasts
// to whatever transport the UI listens on.
package notifications

import (
	"context"

	"go.uber.org/zap"

	"github.com/sprintdeck/sprintdeck/internal/common/logger"
	"github.com/sprintdeck/sprintdeck/internal/events"
	"github.com/sprintdeck/sprintdeck/internal/events/bus"
)

// Notifier is the sink for user-facing toasts. Implementations must never
// block the caller on delivery problems.
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}

// BusNotifier publishes notifications as events so UI transports can
// subscribe to them.
type BusNotifier struct {
	bus    bus.EventBus
	source string
	logger *logger.Logger
}

var _ Notifier = (*BusNotifier)(nil)

// NewBusNotifier creates a notifier publishing to the event bus.
func NewBusNotifier(eventBus bus.EventBus, source string, log *logger.Logger) *BusNotifier {
	return &BusNotifier{
		bus:    eventBus,
		source: source,
		logger: log.WithFields(zap.String("component", "notifier")),
	}
}

// Success publishes a success toast.
func (n *BusNotifier) Success(ctx context.Context, message string) {
	n.publish(ctx, events.NotificationSuccess, message)
}

// Error publishes an error toast.
func (n *BusNotifier) Error(ctx context.Context, message string) {
	n.publish(ctx, events.NotificationError, message)
}

func (n *BusNotifier) publish(ctx context.Context, eventType, message string) {
	event := bus.NewEvent(eventType, n.source, map[string]any{
		"message": message,
	})
	if err := n.bus.Publish(ctx, events.SubjectNotifications, event); err != nil {
		// Delivery is best-effort; the failure itself is only logged.
		n.logger.Warn("failed to publish notification",
			zap.String("type", eventType),
			zap.Error(err))
	}
}

// LogNotifier writes notifications to the log, for environments without a
// UI transport.
type LogNotifier struct {
	logger *logger.Logger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a logger-backed notifier.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log.WithFields(zap.String("component", "notifier"))}
}

// Success logs a success toast.
func (n *LogNotifier) Success(ctx context.Context, message string) {
	n.logger.Info("notification", zap.String("level", "success"), zap.String("message", message))
}

// Error logs an error toast.
func (n *LogNotifier) Error(ctx context.Context, message string) {
	n.logger.Warn("notification", zap.String("level", "error"), zap.String("message", message))
}
