package middleware

import (
	"context"

	"estatehub/internal/app/bus"
)

// CommandMiddleware wraps a command bus with extra behaviour.
type CommandMiddleware func(next bus.CommandBus) bus.CommandBus

// QueryMiddleware wraps a query bus with extra behaviour.
type QueryMiddleware func(next bus.QueryBus) bus.QueryBus

// ChainCommands applies mws so that the first one is the outermost.
func ChainCommands(base bus.CommandBus, mws ...CommandMiddleware) bus.CommandBus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

func ChainQueries(base bus.QueryBus, mws ...QueryMiddleware) bus.QueryBus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

type commandFunc func(ctx context.Context, cmd bus.Command) (any, error)

func (f commandFunc) Dispatch(ctx context.Context, cmd bus.Command) (any, error) {
	return f(ctx, cmd)
}

type queryFunc func(ctx context.Context, q bus.Query) (any, error)

func (f queryFunc) Ask(ctx context.Context, q bus.Query) (any, error) {
	return f(ctx, q)
}

// around builds the same middleware for both buses from one function.
type around func(ctx context.Context, kind string, msg bus.Message, next func(context.Context) (any, error)) (any, error)

func (a around) commands() CommandMiddleware {
	return func(next bus.CommandBus) bus.CommandBus {
		return commandFunc(func(ctx context.Context, cmd bus.Command) (any, error) {
			return a(ctx, "command", cmd, func(ctx context.Context) (any, error) { return next.Dispatch(ctx, cmd) })
		})
	}
}

func (a around) queries() QueryMiddleware {
	return func(next bus.QueryBus) bus.QueryBus {
		return queryFunc(func(ctx context.Context, q bus.Query) (any, error) {
			return a(ctx, "query", q, func(ctx context.Context) (any, error) { return next.Ask(ctx, q) })
		})
	}
}
