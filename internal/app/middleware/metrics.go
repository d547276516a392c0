package middleware

import (
	"context"
	"time"

	"estatehub/internal/app/bus"
)

// DispatchObserver receives one observation per handled message.
type DispatchObserver interface {
	ObserveDispatch(kind, key string, elapsed time.Duration, err error)
}

func observed(obs DispatchObserver) around {
	return func(ctx context.Context, kind string, msg bus.Message, next func(context.Context) (any, error)) (any, error) {
		start := time.Now()
		res, err := next(ctx)
		obs.ObserveDispatch(kind, msg.Key(), time.Since(start), err)
		return res, err
	}
}

func CommandMetrics(obs DispatchObserver) CommandMiddleware {
	if obs == nil {
		panic("middleware: dispatch observer required")
	}
	return observed(obs).commands()
}

func QueryMetrics(obs DispatchObserver) QueryMiddleware {
	if obs == nil {
		panic("middleware: dispatch observer required")
	}
	return observed(obs).queries()
}
