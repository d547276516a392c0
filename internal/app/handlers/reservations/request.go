package reservations

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"estatehub/internal/app/bus"
	"estatehub/internal/app/dto"
	"estatehub/internal/app/middleware"
	"estatehub/internal/app/outbox"
	"estatehub/internal/app/uow"
	"estatehub/internal/domain/booking"
	"estatehub/internal/domain/pricing"
	"estatehub/internal/domain/property"
	"estatehub/internal/domain/shared/daterange"
)

const requestReservationKey = "reservations.request"

type RequestReservationCommand struct {
	PropertyID      string         `json:"property_id"`
	GuestID         string         `json:"guest_id"`
	CheckIn         daterange.Date `json:"check_in"`
	CheckOut        daterange.Date `json:"check_out"`
	Guests          int            `json:"guests"`
	IdempotencyKeyV string         `json:"-"`
}

func (c RequestReservationCommand) Key() string { return requestReservationKey }

func (c RequestReservationCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestReservationCommand) ResultPrototype() any { return &dto.Reservation{} }

func (c RequestReservationCommand) Validate() error {
	switch {
	case strings.TrimSpace(c.PropertyID) == "":
		return ErrPropertyIDRequired
	case strings.TrimSpace(c.GuestID) == "":
		return booking.ErrGuestRequired
	case c.Guests <= 0:
		return booking.ErrInvalidGuests
	}
	_, err := daterange.New(c.CheckIn, c.CheckOut)
	return err
}

// RequestReservationHandler creates a pending reservation. The cheap
// availability check gives a precise conflict message; the repository's
// atomic insert is what actually prevents double booking.
type RequestReservationHandler struct {
	Deps
	Logger *slog.Logger
}

func (h *RequestReservationHandler) Handle(ctx context.Context, cmd RequestReservationCommand) (*dto.Reservation, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	now := h.now()
	req, err := booking.NewBookingRange(property.ID(cmd.PropertyID), cmd.CheckIn, cmd.CheckOut, daterange.DateOf(now))
	if err != nil {
		return nil, err
	}

	p, err := unit.Properties().ByID(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if err := p.EnsureBookable(); err != nil {
		return nil, err
	}
	quote, err := pricing.Quote(p.PricePerNight, req.Range)
	if err != nil {
		return nil, err
	}

	current, err := unit.Reservations().ListByProperty(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	conflicts, err := booking.Conflicts(req.Range, booking.ExistingBookings(current))
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, fmt.Errorf("%w: %s overlaps %s", booking.ErrDatesUnavailable, req.Range, conflicts[0].Range)
	}

	r, err := booking.NewReservation(booking.CreateParams{
		ID:        booking.ReservationID(h.newID()),
		Request:   req,
		GuestID:   cmd.GuestID,
		Guests:    cmd.Guests,
		Quote:     quote,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Reservations().InsertIfAvailable(ctx, r); err != nil {
		return nil, err
	}
	if err := outbox.RecordPending(ctx, unit.Outbox(), h.encoder(), r); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "reservation requested",
			"reservation_id", r.ID, "property_id", r.PropertyID, "range", r.Range.String(), "total", r.Quote.Total.StringFixed(2))
	}
	out := dto.MapReservation(r)
	out.Quote.Currency = p.Currency
	return &out, nil
}

var _ bus.Handler[RequestReservationCommand, *dto.Reservation] = (*RequestReservationHandler)(nil)
var _ middleware.IdempotentCommand = RequestReservationCommand{}
