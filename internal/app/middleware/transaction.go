package middleware

import (
	"context"

	"estatehub/internal/app/bus"
	"estatehub/internal/app/uow"
)

type TxOptionsProvider func(cmd bus.Command) uow.TxOptions

// Transaction runs each command inside its own unit of work, committing
// on success and rolling back on error or panic.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next bus.CommandBus) bus.CommandBus {
		return commandFunc(func(ctx context.Context, cmd bus.Command) (any, error) {
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			unit, execCtx, err := uow.Enter(ctx, factory, opts)
			if err != nil {
				return nil, err
			}
			committed := false
			defer func() {
				if !committed {
					_ = unit.Rollback(execCtx)
				}
			}()

			res, err := next.Dispatch(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			if err := unit.Commit(execCtx); err != nil {
				return nil, err
			}
			committed = true
			return res, nil
		})
	}
}
