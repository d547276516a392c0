package reservations

import (
	"context"
	"strings"

	"estatehub/internal/app/bus"
	"estatehub/internal/app/dto"
	"estatehub/internal/app/outbox"
	"estatehub/internal/app/uow"
	"estatehub/internal/domain/booking"
)

const completeReservationKey = "reservations.complete"

type CompleteReservationCommand struct {
	ReservationID string
}

func (c CompleteReservationCommand) Key() string { return completeReservationKey }

func (c CompleteReservationCommand) Validate() error {
	if strings.TrimSpace(c.ReservationID) == "" {
		return ErrReservationIDRequired
	}
	return nil
}

type CompleteReservationHandler struct {
	Deps
}

func (h *CompleteReservationHandler) Handle(ctx context.Context, cmd CompleteReservationCommand) (*dto.ReservationAction, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	r, err := unit.Reservations().ByID(ctx, booking.ReservationID(cmd.ReservationID))
	if err != nil {
		return nil, err
	}
	if err := r.Complete(h.now()); err != nil {
		return nil, err
	}
	if err := unit.Reservations().Save(ctx, r); err != nil {
		return nil, err
	}
	if err := outbox.RecordPending(ctx, unit.Outbox(), h.encoder(), r); err != nil {
		return nil, err
	}
	return &dto.ReservationAction{ReservationID: string(r.ID), Status: string(r.Status)}, nil
}

var _ bus.Handler[CompleteReservationCommand, *dto.ReservationAction] = (*CompleteReservationHandler)(nil)
