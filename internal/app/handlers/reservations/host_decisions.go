package reservations

import (
	"context"
	"log/slog"
	"strings"

	"estatehub/internal/app/bus"
	"estatehub/internal/app/dto"
	"estatehub/internal/app/outbox"
	"estatehub/internal/app/uow"
	"estatehub/internal/domain/booking"
	"estatehub/internal/domain/property"
)

const (
	confirmReservationKey = "reservations.confirm"
	rejectReservationKey  = "reservations.reject"
	defaultRejectReason   = "host-declined"
)

type ConfirmReservationCommand struct {
	HostID        string
	ReservationID string
}

func (c ConfirmReservationCommand) Key() string { return confirmReservationKey }

func (c ConfirmReservationCommand) Validate() error { return validateHostAction(c.HostID, c.ReservationID) }

type RejectReservationCommand struct {
	HostID        string
	ReservationID string
	Reason        string
}

func (c RejectReservationCommand) Key() string { return rejectReservationKey }

func (c RejectReservationCommand) Validate() error { return validateHostAction(c.HostID, c.ReservationID) }

func validateHostAction(hostID, reservationID string) error {
	if strings.TrimSpace(hostID) == "" {
		return ErrHostIDRequired
	}
	if strings.TrimSpace(reservationID) == "" {
		return ErrReservationIDRequired
	}
	return nil
}

// HostDecisionHandler serves both confirm and reject; only the host of the
// reserved property may decide.
type HostDecisionHandler struct {
	Deps
	Logger *slog.Logger
}

func (h *HostDecisionHandler) Confirm(ctx context.Context, cmd ConfirmReservationCommand) (*dto.ReservationAction, error) {
	return h.decide(ctx, cmd.HostID, cmd.ReservationID, func(r *booking.Reservation) error {
		return r.Confirm(h.now())
	})
}

func (h *HostDecisionHandler) Reject(ctx context.Context, cmd RejectReservationCommand) (*dto.ReservationAction, error) {
	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		reason = defaultRejectReason
	}
	return h.decide(ctx, cmd.HostID, cmd.ReservationID, func(r *booking.Reservation) error {
		return r.Reject(reason, h.now())
	})
}

func (h *HostDecisionHandler) decide(ctx context.Context, hostID, reservationID string, apply func(*booking.Reservation) error) (*dto.ReservationAction, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	r, err := unit.Reservations().ByID(ctx, booking.ReservationID(reservationID))
	if err != nil {
		return nil, err
	}
	p, err := unit.Properties().ByID(ctx, r.PropertyID)
	if err != nil {
		return nil, err
	}
	if p.Host != property.HostID(strings.TrimSpace(hostID)) {
		return nil, booking.ErrNotPropertyHost
	}
	if err := apply(r); err != nil {
		return nil, err
	}
	if err := unit.Reservations().Save(ctx, r); err != nil {
		return nil, err
	}
	if err := outbox.RecordPending(ctx, unit.Outbox(), h.encoder(), r); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "host decision recorded", "reservation_id", r.ID, "host_id", hostID, "status", r.Status)
	}
	return &dto.ReservationAction{ReservationID: string(r.ID), Status: string(r.Status)}, nil
}

// ConfirmHandler and RejectHandler expose the two decisions as bus handlers.
func (h *HostDecisionHandler) ConfirmHandler() bus.Handler[ConfirmReservationCommand, *dto.ReservationAction] {
	return bus.HandlerFunc[ConfirmReservationCommand, *dto.ReservationAction](h.Confirm)
}

func (h *HostDecisionHandler) RejectHandler() bus.Handler[RejectReservationCommand, *dto.ReservationAction] {
	return bus.HandlerFunc[RejectReservationCommand, *dto.ReservationAction](h.Reject)
}
