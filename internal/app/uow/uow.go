package uow

import (
	"context"

	"estatehub/internal/app/outbox"
	"estatehub/internal/domain/booking"
	"estatehub/internal/domain/property"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Properties() property.Repository
	Reservations() booking.Repository
	// Outbox returns an outbox whose writes commit together with the unit.
	Outbox() outbox.Outbox

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}

// ContextInjector is implemented by units that must travel in the context
// themselves, such as a database session.
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}
