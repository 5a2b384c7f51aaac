package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/wphook/pkg/domain"
)

// DebugHooks logs every pipeline event at debug level.
func DebugHooks(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnRequest: func(ctx context.Context, e *domain.RequestEvent) {
			logger.DebugContext(ctx, "XML-RPC Request",
				"request_id", e.RequestID,
				"method", e.Method,
				"outcome", e.Outcome,
				"duration", e.Duration,
				"error", e.Err,
			)
		},
		OnHandler: func(ctx context.Context, e *domain.HandlerEvent) {
			if e.Err != nil {
				logger.DebugContext(ctx, "Handler Return (Error)", "request_id", e.RequestID, "handler", e.Handler, "error", e.Err)
				return
			}
			logger.DebugContext(ctx, "Handler Return (Success)", "request_id", e.RequestID, "handler", e.Handler, "duration", e.Duration)
		},
		OnRelay: func(ctx context.Context, e *domain.RelayEvent) {
			logger.DebugContext(ctx, "Relay", "request_id", e.RequestID, "url", e.URL, "status", e.StatusCode, "error", e.Err)
		},
	}
}
