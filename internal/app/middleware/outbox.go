package middleware

import (
	"context"
	"log/slog"

	"estatehub/internal/app/bus"
	"estatehub/internal/app/outbox"
)

// OutboxFlush asks box to relay committed records once a command
// succeeds. It must sit outside Transaction. A failed flush is logged and
// does not fail the command, since its writes are already committed.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next bus.CommandBus) bus.CommandBus {
		return commandFunc(func(ctx context.Context, cmd bus.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				logger.ErrorContext(ctx, "outbox flush failed", "key", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}
