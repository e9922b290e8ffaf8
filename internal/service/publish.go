package service

import (
	"context"

	"setrag/internal/logger"
)

// publish never fails the caller; events are best effort.
func publish(ctx context.Context, p Publisher, subject string, data any) {
	if p == nil {
		return
	}
	if err := p.Publish(subject, data); err != nil {
		logger.WithContext(ctx).Warn("Failed to publish event", "subject", subject, "error", err)
	}
}
