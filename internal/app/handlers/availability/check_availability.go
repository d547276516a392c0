package availability

import (
	"context"
	"errors"
	"strings"

	"estatehub/internal/app/bus"
	"estatehub/internal/app/dto"
	"estatehub/internal/app/uow"
	"estatehub/internal/domain/booking"
	"estatehub/internal/domain/property"
	"estatehub/internal/domain/shared/daterange"
)

const checkAvailabilityKey = "availability.check"

var ErrPropertyIDRequired = errors.New("availability: property id is required")

type CheckAvailabilityQuery struct {
	PropertyID string
	CheckIn    daterange.Date
	CheckOut   daterange.Date
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

func (q CheckAvailabilityQuery) Validate() error {
	if strings.TrimSpace(q.PropertyID) == "" {
		return ErrPropertyIDRequired
	}
	_, err := daterange.New(q.CheckIn, q.CheckOut)
	return err
}

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.Availability, error) {
	requested := daterange.DateRange{CheckIn: q.CheckIn, CheckOut: q.CheckOut}
	existing, err := loadExisting(ctx, h.UoWFactory, q.PropertyID)
	if err != nil {
		return dto.Availability{}, err
	}
	conflicts, err := booking.Conflicts(requested, existing)
	if err != nil {
		return dto.Availability{}, err
	}
	return dto.MapAvailability(q.PropertyID, requested, conflicts), nil
}

// loadExisting fails with property.ErrPropertyNotFound for unknown ids so
// that an empty calendar always means a real, free property.
func loadExisting(ctx context.Context, factory uow.UoWFactory, propertyID string) ([]booking.ExistingBooking, error) {
	unit, execCtx, done, err := uow.BeginReadOnly(ctx, factory)
	if err != nil {
		return nil, err
	}
	defer done()

	id := property.ID(propertyID)
	if _, err := unit.Properties().ByID(execCtx, id); err != nil {
		return nil, err
	}
	reservations, err := unit.Reservations().ListByProperty(execCtx, id)
	if err != nil {
		return nil, err
	}
	return booking.ExistingBookings(reservations), nil
}

var _ bus.Handler[CheckAvailabilityQuery, dto.Availability] = (*CheckAvailabilityHandler)(nil)
