package reservations

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"estatehub/internal/app/bus"
	"estatehub/internal/app/dto"
	"estatehub/internal/app/outbox"
	"estatehub/internal/app/uow"
	"estatehub/internal/domain/booking"
)

const (
	cancelReservationKey      = "reservations.cancel"
	cancellationPreviewKey    = "reservations.cancellation_preview"
	defaultCancellationReason = "guest-cancelled"
)

type CancelReservationCommand struct {
	ReservationID string
	Reason        string
}

func (c CancelReservationCommand) Key() string { return cancelReservationKey }

func (c CancelReservationCommand) Validate() error {
	if strings.TrimSpace(c.ReservationID) == "" {
		return ErrReservationIDRequired
	}
	return nil
}

type CancelReservationHandler struct {
	Deps
	Logger *slog.Logger
}

func (h *CancelReservationHandler) Handle(ctx context.Context, cmd CancelReservationCommand) (*dto.Cancellation, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	r, err := unit.Reservations().ByID(ctx, booking.ReservationID(cmd.ReservationID))
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		reason = defaultCancellationReason
	}
	outcome, err := r.Cancel(reason, h.now())
	if err != nil {
		return nil, err
	}
	if err := unit.Reservations().Save(ctx, r); err != nil {
		return nil, err
	}
	if err := outbox.RecordPending(ctx, unit.Outbox(), h.encoder(), r); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "reservation cancelled",
			"reservation_id", r.ID, "tier", outcome.Tier, "refund", outcome.Refund.StringFixed(2))
	}
	out := dto.MapCancellation(r, outcome)
	return &out, nil
}

// CancellationPreviewQuery evaluates a cancellation without applying it.
// A zero At means now.
type CancellationPreviewQuery struct {
	ReservationID string
	At            time.Time
}

func (q CancellationPreviewQuery) Key() string { return cancellationPreviewKey }

func (q CancellationPreviewQuery) Validate() error {
	if strings.TrimSpace(q.ReservationID) == "" {
		return ErrReservationIDRequired
	}
	return nil
}

type CancellationPreviewHandler struct {
	Deps
	UoWFactory uow.UoWFactory
}

func (h *CancellationPreviewHandler) Handle(ctx context.Context, q CancellationPreviewQuery) (dto.CancellationPreview, error) {
	unit, execCtx, done, err := uow.BeginReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return dto.CancellationPreview{}, err
	}
	defer done()

	r, err := unit.Reservations().ByID(execCtx, booking.ReservationID(q.ReservationID))
	if err != nil {
		return dto.CancellationPreview{}, err
	}
	at := q.At
	if at.IsZero() {
		at = h.now()
	}
	outcome, err := r.PreviewCancellation(at)
	if err != nil {
		return dto.CancellationPreview{}, err
	}
	return dto.CancellationPreview{
		ReservationID: string(r.ID),
		Status:        string(r.Status),
		Total:         dto.Amount(r.Quote.Total),
		Cancellation:  dto.MapCancellation(r, outcome),
	}, nil
}

var _ bus.Handler[CancelReservationCommand, *dto.Cancellation] = (*CancelReservationHandler)(nil)
var _ bus.Handler[CancellationPreviewQuery, dto.CancellationPreview] = (*CancellationPreviewHandler)(nil)
