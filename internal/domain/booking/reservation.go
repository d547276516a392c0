package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"estatehub/internal/domain/pricing"
	"estatehub/internal/domain/property"
	"estatehub/internal/domain/shared/daterange"
	"estatehub/internal/domain/shared/events"
)

var (
	ErrInvalidGuests       = errors.New("booking: guests count must be positive")
	ErrGuestRequired       = errors.New("booking: guest id is required")
	ErrQuoteRequired       = errors.New("booking: price quote is required")
	ErrInvalidTransition   = errors.New("booking: invalid status transition")
	ErrReservationNotFound = errors.New("booking: reservation not found")
	ErrDatesUnavailable    = errors.New("booking: dates are no longer available")
	ErrNotPropertyHost     = errors.New("booking: reservation does not belong to host")
	ErrStayNotFinished     = errors.New("booking: stay has not ended yet")
	ErrConcurrentUpdate    = errors.New("booking: reservation was modified concurrently")
)

type ReservationID string

// Reservation is a stored booking. The engine functions in this package
// never mutate it; status changes go through its methods.
type Reservation struct {
	ID           ReservationID
	PropertyID   property.ID
	GuestID      string
	Range        daterange.DateRange
	Guests       int
	Quote        pricing.PriceQuote
	Status       Status
	Cancellation *CancellationOutcome
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
	events.EventRecorder
}

// CancellationOutcome records how a cancellation was settled.
type CancellationOutcome struct {
	Tier              RefundTier
	DaysBeforeCheckIn int
	Refund            decimal.Decimal
	Reason            string
	At                time.Time
}

// Repository is the persistence collaborator for reservations.
type Repository interface {
	ByID(ctx context.Context, id ReservationID) (*Reservation, error)
	ListByProperty(ctx context.Context, propertyID property.ID) ([]*Reservation, error)
	// InsertIfAvailable stores a new reservation only if no blocking
	// reservation of the same property overlaps it, atomically with
	// respect to other inserts. It returns ErrDatesUnavailable otherwise.
	InsertIfAvailable(ctx context.Context, r *Reservation) error
	// Save persists a status change, failing with ErrConcurrentUpdate on a
	// stale Version.
	Save(ctx context.Context, r *Reservation) error
}

type CreateParams struct {
	ID        ReservationID
	Request   BookingRange
	GuestID   string
	Guests    int
	Quote     pricing.PriceQuote
	CreatedAt time.Time
}

func NewReservation(params CreateParams) (*Reservation, error) {
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, ErrGuestRequired
	}
	if params.Quote.IsZero() {
		return nil, ErrQuoteRequired
	}
	if err := params.Request.Range.Validate(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	r := &Reservation{
		ID:         params.ID,
		PropertyID: params.Request.PropertyID,
		GuestID:    strings.TrimSpace(params.GuestID),
		Range:      params.Request.Range,
		Guests:     params.Guests,
		Quote:      params.Quote,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.Record(ReservationRequested{
		ReservationID: r.ID,
		PropertyID:    r.PropertyID,
		GuestID:       r.GuestID,
		Range:         r.Range,
		Nights:        r.Quote.Nights,
		Total:         r.Quote.Total,
		At:            now,
	})
	return r, nil
}

// Existing returns the availability view of r.
func (r *Reservation) Existing() ExistingBooking {
	return ExistingBooking{ID: string(r.ID), Range: r.Range, Status: r.Status}
}

// ExistingBookings converts stored reservations for the availability checks.
func ExistingBookings(rs []*Reservation) []ExistingBooking {
	out := make([]ExistingBooking, 0, len(rs))
	for _, r := range rs {
		if r == nil {
			continue
		}
		out = append(out, r.Existing())
	}
	return out
}

func (r *Reservation) Confirm(now time.Time) error {
	if r.Status != StatusPending {
		return r.transitionError(StatusConfirmed)
	}
	r.Status = StatusConfirmed
	r.UpdatedAt = now.UTC()
	r.Record(ReservationConfirmed{ReservationID: r.ID, PropertyID: r.PropertyID, Range: r.Range, At: r.UpdatedAt})
	return nil
}

func (r *Reservation) Reject(reason string, now time.Time) error {
	if r.Status != StatusPending {
		return r.transitionError(StatusRejected)
	}
	r.Status = StatusRejected
	r.UpdatedAt = now.UTC()
	r.Record(ReservationRejected{ReservationID: r.ID, Reason: reason, At: r.UpdatedAt})
	return nil
}

// PreviewCancellation evaluates the refund a cancellation at now would get.
func (r *Reservation) PreviewCancellation(now time.Time) (CancellationOutcome, error) {
	if !r.Status.Blocks() {
		return CancellationOutcome{}, r.transitionError(StatusCancelled)
	}
	days := DaysUntilCheckIn(r.Range.CheckIn, now)
	tier := tierFor(days)
	return CancellationOutcome{
		Tier:              tier,
		DaysBeforeCheckIn: days,
		Refund:            RefundFor(r.Quote, tier),
		At:                now.UTC(),
	}, nil
}

func (r *Reservation) Cancel(reason string, now time.Time) (CancellationOutcome, error) {
	outcome, err := r.PreviewCancellation(now)
	if err != nil {
		return CancellationOutcome{}, err
	}
	outcome.Reason = reason
	r.Status = StatusCancelled
	r.Cancellation = &outcome
	r.UpdatedAt = now.UTC()
	r.Record(ReservationCancelled{
		ReservationID: r.ID,
		PropertyID:    r.PropertyID,
		Tier:          outcome.Tier,
		Refund:        outcome.Refund,
		Reason:        reason,
		At:            r.UpdatedAt,
	})
	return outcome, nil
}

// Complete closes a confirmed stay once its check-out day has been reached.
func (r *Reservation) Complete(now time.Time) error {
	if r.Status != StatusConfirmed {
		return r.transitionError(StatusCompleted)
	}
	if daterange.DateOf(now).Before(r.Range.CheckOut) {
		return fmt.Errorf("%w: checks out on %s", ErrStayNotFinished, r.Range.CheckOut)
	}
	r.Status = StatusCompleted
	r.UpdatedAt = now.UTC()
	r.Record(ReservationCompleted{ReservationID: r.ID, At: r.UpdatedAt})
	return nil
}

// Clone returns a copy without pending events.
func (r *Reservation) Clone() *Reservation {
	cp := *r
	cp.EventRecorder = events.EventRecorder{}
	if r.Cancellation != nil {
		c := *r.Cancellation
		cp.Cancellation = &c
	}
	return &cp
}

func (r *Reservation) transitionError(to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, to)
}
