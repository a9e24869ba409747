package analytics

import (
	"context"

	"go.uber.org/zap"
)

// ActivityLogger turns domain events into a structured activity log. It
// is the log-shipping collaborator run by the standalone consumer
// binary; downstream tooling tails its output.
type ActivityLogger struct {
	logger *zap.Logger
}

// NewActivityLogger creates an activity logger.
func NewActivityLogger(logger *zap.Logger) *ActivityLogger {
	return &ActivityLogger{logger: logger}
}

func (a *ActivityLogger) HandleCreated(_ context.Context, event *LinkCreatedEvent) error {
	a.logger.Info("link created",
		zap.String("code", event.Code),
		zap.String("targetUrl", event.TargetURL),
		zap.Time("createdAt", event.CreatedAt),
		zap.Bool("deduplicated", event.Deduplicated),
	)

	return nil
}

func (a *ActivityLogger) HandleClicked(_ context.Context, event *LinkClickedEvent) error {
	a.logger.Info("link clicked",
		zap.String("code", event.Code),
		zap.Time("occurredAt", event.OccurredAt),
		zap.String("referrerClass", event.ReferrerClass),
		zap.String("device", event.Device),
		zap.String("browser", event.Browser),
	)

	return nil
}

func (a *ActivityLogger) HandleDeleted(_ context.Context, event *LinkDeletedEvent) error {
	a.logger.Info("link deleted",
		zap.String("code", event.Code),
		zap.Time("deletedAt", event.DeletedAt),
	)

	return nil
}
