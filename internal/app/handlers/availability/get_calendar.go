package availability

import (
	"context"
	"fmt"
	"strings"

	"estatehub/internal/app/bus"
	"estatehub/internal/app/dto"
	"estatehub/internal/app/uow"
	"estatehub/internal/domain/booking"
	"estatehub/internal/domain/shared/daterange"
)

const getCalendarKey = "availability.calendar"

// GetCalendarQuery lists blocked nights. From and To are optional and
// bound the window as [From, To).
type GetCalendarQuery struct {
	PropertyID string
	From       daterange.Date
	To         daterange.Date
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

func (q GetCalendarQuery) Validate() error {
	if strings.TrimSpace(q.PropertyID) == "" {
		return ErrPropertyIDRequired
	}
	if !q.From.IsZero() && !q.To.IsZero() && !q.To.After(q.From) {
		return fmt.Errorf("%w: calendar window %s..%s", daterange.ErrInvalidRange, q.From, q.To)
	}
	return nil
}

// clip trims r to the window; ok is false when nothing is left.
func (q GetCalendarQuery) clip(r daterange.DateRange) (daterange.DateRange, bool) {
	if !q.From.IsZero() && r.CheckIn.Before(q.From) {
		r.CheckIn = q.From
	}
	if !q.To.IsZero() && r.CheckOut.After(q.To) {
		r.CheckOut = q.To
	}
	return r, r.CheckOut.After(r.CheckIn)
}

type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	existing, err := loadExisting(ctx, h.UoWFactory, q.PropertyID)
	if err != nil {
		return dto.Calendar{}, err
	}

	// Ranges are merged and sorted, so expanding them after clipping yields
	// the window's nights in order without touching nights outside it.
	var ranges []daterange.DateRange
	var dates []daterange.Date
	for _, r := range booking.BlockedRanges(existing) {
		clipped, ok := q.clip(r)
		if !ok {
			continue
		}
		ranges = append(ranges, clipped)
		dates = append(dates, clipped.Dates()...)
	}
	return dto.MapCalendar(q.PropertyID, q.From, q.To, dates, ranges), nil
}

var _ bus.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
