package dto

import (
	"estatehub/internal/domain/booking"
	"estatehub/internal/domain/shared/daterange"
)

type Range struct {
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Nights   int    `json:"nights"`
}

func MapRange(dr daterange.DateRange) Range {
	return Range{CheckIn: dr.CheckIn.String(), CheckOut: dr.CheckOut.String(), Nights: dr.Nights()}
}

type Conflict struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
	Range
}

type Availability struct {
	PropertyID string     `json:"property_id"`
	Requested  Range      `json:"requested"`
	Available  bool       `json:"available"`
	Conflicts  []Conflict `json:"conflicts"`
}

func MapAvailability(propertyID string, requested daterange.DateRange, conflicts []booking.ExistingBooking) Availability {
	out := Availability{
		PropertyID: propertyID,
		Requested:  MapRange(requested),
		Available:  len(conflicts) == 0,
		Conflicts:  make([]Conflict, 0, len(conflicts)),
	}
	for _, c := range conflicts {
		out.Conflicts = append(out.Conflicts, Conflict{ReservationID: c.ID, Status: string(c.Status), Range: MapRange(c.Range)})
	}
	return out
}

type Calendar struct {
	PropertyID    string   `json:"property_id"`
	From          string   `json:"from,omitempty"`
	To            string   `json:"to,omitempty"`
	BlockedDates  []string `json:"blocked_dates"`
	BlockedRanges []Range  `json:"blocked_ranges"`
}

func MapCalendar(propertyID string, from, to daterange.Date, dates []daterange.Date, ranges []daterange.DateRange) Calendar {
	out := Calendar{
		PropertyID:    propertyID,
		From:          from.String(),
		To:            to.String(),
		BlockedDates:  make([]string, 0, len(dates)),
		BlockedRanges: make([]Range, 0, len(ranges)),
	}
	for _, d := range dates {
		out.BlockedDates = append(out.BlockedDates, d.String())
	}
	for _, r := range ranges {
		out.BlockedRanges = append(out.BlockedRanges, MapRange(r))
	}
	return out
}
