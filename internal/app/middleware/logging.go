package middleware

import (
	"context"
	"log/slog"
	"time"

	"estatehub/internal/app/bus"
)

func logged(logger *slog.Logger) around {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, kind string, msg bus.Message, next func(context.Context) (any, error)) (any, error) {
		start := time.Now()
		res, err := next(ctx)
		attrs := []any{"kind", kind, "key", msg.Key(), "duration", time.Since(start)}
		if err != nil {
			logger.WarnContext(ctx, "bus message failed", append(attrs, "error", err)...)
			return nil, err
		}
		logger.DebugContext(ctx, "bus message handled", attrs...)
		return res, nil
	}
}

// CommandLogging logs every dispatch with its key and duration.
func CommandLogging(logger *slog.Logger) CommandMiddleware { return logged(logger).commands() }

func QueryLogging(logger *slog.Logger) QueryMiddleware { return logged(logger).queries() }
