package reservations

import (
	"context"
	"sort"
	"strings"

	"estatehub/internal/app/bus"
	"estatehub/internal/app/dto"
	"estatehub/internal/app/uow"
	"estatehub/internal/domain/booking"
	"estatehub/internal/domain/property"
)

const listPropertyReservationsKey = "reservations.list_by_property"

// ListPropertyReservationsQuery lists a property's reservations ordered by
// check-in. An empty Status means every status.
type ListPropertyReservationsQuery struct {
	PropertyID string
	Status     string
}

func (q ListPropertyReservationsQuery) Key() string { return listPropertyReservationsKey }

func (q ListPropertyReservationsQuery) Validate() error {
	if strings.TrimSpace(q.PropertyID) == "" {
		return ErrPropertyIDRequired
	}
	if strings.TrimSpace(q.Status) == "" {
		return nil
	}
	_, err := booking.ParseStatus(q.Status)
	return err
}

type ListPropertyReservationsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListPropertyReservationsHandler) Handle(ctx context.Context, q ListPropertyReservationsQuery) (dto.ReservationCollection, error) {
	var filter booking.Status
	if strings.TrimSpace(q.Status) != "" {
		s, err := booking.ParseStatus(q.Status)
		if err != nil {
			return dto.ReservationCollection{}, err
		}
		filter = s
	}
	unit, execCtx, done, err := uow.BeginReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	defer done()

	id := property.ID(q.PropertyID)
	if _, err := unit.Properties().ByID(execCtx, id); err != nil {
		return dto.ReservationCollection{}, err
	}
	rs, err := unit.Reservations().ListByProperty(execCtx, id)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Range.CheckIn.Before(rs[j].Range.CheckIn) })

	items := make([]dto.Reservation, 0, len(rs))
	for _, r := range rs {
		if filter != "" && r.Status != filter {
			continue
		}
		items = append(items, dto.MapReservation(r))
	}
	return dto.ReservationCollection{PropertyID: q.PropertyID, Items: items}, nil
}

var _ bus.Handler[ListPropertyReservationsQuery, dto.ReservationCollection] = (*ListPropertyReservationsHandler)(nil)
