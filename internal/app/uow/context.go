package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, unit)
}

func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(ctxKey{}).(UnitOfWork)
	return unit, ok && unit != nil
}

// Current returns the unit opened by the transaction middleware.
func Current(ctx context.Context) (UnitOfWork, error) {
	unit, ok := FromContext(ctx)
	if !ok {
		return nil, ErrUnitOfWorkMissing
	}
	return unit, nil
}

// Enter begins a unit and returns a context carrying it.
func Enter(ctx context.Context, factory UoWFactory, opts TxOptions) (UnitOfWork, context.Context, error) {
	if factory == nil {
		return nil, ctx, ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, ctx, err
	}
	if injector, ok := unit.(ContextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return unit, ContextWithUnitOfWork(ctx, unit), nil
}

// BeginReadOnly reuses the unit already in ctx or opens a read-only one.
// done releases a unit opened here and is a no-op otherwise.
func BeginReadOnly(ctx context.Context, factory UoWFactory) (unit UnitOfWork, execCtx context.Context, done func(), err error) {
	if existing, ok := FromContext(ctx); ok {
		return existing, ctx, func() {}, nil
	}
	unit, execCtx, err = Enter(ctx, factory, TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	return unit, execCtx, func() { _ = unit.Rollback(execCtx) }, nil
}
