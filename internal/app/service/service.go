// Package service assembles the command and query buses with every
// handler and the middleware chain in the order the handlers rely on.
package service

import (
	"log/slog"
	"time"

	"estatehub/internal/app/bus"
	"estatehub/internal/app/handlers/availability"
	"estatehub/internal/app/handlers/pricing"
	"estatehub/internal/app/handlers/reservations"
	"estatehub/internal/app/middleware"
	"estatehub/internal/app/outbox"
	"estatehub/internal/app/uow"
)

type Options struct {
	UoWFactory uow.UoWFactory
	// Outbox is flushed after each successful command. Optional.
	Outbox         outbox.Outbox
	Idempotency    middleware.IdempotencyStore
	IdempotencyTTL time.Duration
	Observer       middleware.DispatchObserver
	Logger         *slog.Logger
	Deps           reservations.Deps
}

type Service struct {
	Commands bus.CommandBus
	Queries  bus.QueryBus
}

func New(opts Options) *Service {
	if opts.UoWFactory == nil {
		panic("service: unit of work factory required")
	}
	factory := opts.UoWFactory
	deps := opts.Deps

	b := bus.New()
	bus.RegisterCommand(b, &reservations.RequestReservationHandler{Deps: deps, Logger: opts.Logger})
	decisions := &reservations.HostDecisionHandler{Deps: deps, Logger: opts.Logger}
	bus.RegisterCommand(b, decisions.ConfirmHandler())
	bus.RegisterCommand(b, decisions.RejectHandler())
	bus.RegisterCommand(b, &reservations.CancelReservationHandler{Deps: deps, Logger: opts.Logger})
	bus.RegisterCommand(b, &reservations.CompleteReservationHandler{Deps: deps})

	bus.RegisterQuery(b, &pricing.QuotePriceHandler{UoWFactory: factory})
	bus.RegisterQuery(b, &availability.CheckAvailabilityHandler{UoWFactory: factory})
	bus.RegisterQuery(b, &availability.GetCalendarHandler{UoWFactory: factory})
	bus.RegisterQuery(b, &reservations.CancellationPreviewHandler{Deps: deps, UoWFactory: factory})
	bus.RegisterQuery(b, &reservations.ListPropertyReservationsHandler{UoWFactory: factory})

	cmdChain := []middleware.CommandMiddleware{middleware.CommandLogging(opts.Logger)}
	queryChain := []middleware.QueryMiddleware{middleware.QueryLogging(opts.Logger)}
	if opts.Observer != nil {
		cmdChain = append(cmdChain, middleware.CommandMetrics(opts.Observer))
		queryChain = append(queryChain, middleware.QueryMetrics(opts.Observer))
	}
	cmdChain = append(cmdChain, middleware.Validation())
	queryChain = append(queryChain, middleware.QueryValidation())
	if opts.Idempotency != nil {
		cmdChain = append(cmdChain, middleware.Idempotency(opts.Idempotency, nil, opts.IdempotencyTTL))
	}
	// Flushing only sees records once Transaction below has committed them.
	if opts.Outbox != nil {
		cmdChain = append(cmdChain, middleware.OutboxFlush(opts.Outbox, opts.Logger))
	}
	cmdChain = append(cmdChain, middleware.Transaction(factory, nil))

	return &Service{
		Commands: middleware.ChainCommands(b, cmdChain...),
		Queries:  middleware.ChainQueries(b, queryChain...),
	}
}
