package dto

import (
	"encoding/json"
	"time"

	"estatehub/internal/domain/booking"
)

type Cancellation struct {
	Tier              string      `json:"tier"`
	RefundPercent     int         `json:"refund_percent"`
	DaysBeforeCheckIn int         `json:"days_before_check_in"`
	Refund            json.Number `json:"refund"`
	ServiceFeeKept    json.Number `json:"service_fee_kept"`
	Reason            string      `json:"reason,omitempty"`
	At                time.Time   `json:"at"`
}

func MapCancellation(r *booking.Reservation, c booking.CancellationOutcome) Cancellation {
	return Cancellation{
		Tier:              string(c.Tier),
		RefundPercent:     c.Tier.Percent(),
		DaysBeforeCheckIn: c.DaysBeforeCheckIn,
		Refund:            Amount(c.Refund),
		ServiceFeeKept:    Amount(r.Quote.ServiceFee),
		Reason:            c.Reason,
		At:                c.At,
	}
}

type Reservation struct {
	ID           string        `json:"id"`
	PropertyID   string        `json:"property_id"`
	GuestID      string        `json:"guest_id"`
	Range        Range         `json:"range"`
	Guests       int           `json:"guests"`
	Status       string        `json:"status"`
	Quote        Quote         `json:"quote"`
	Cancellation *Cancellation `json:"cancellation,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func MapReservation(r *booking.Reservation) Reservation {
	out := Reservation{
		ID:         string(r.ID),
		PropertyID: string(r.PropertyID),
		GuestID:    r.GuestID,
		Range:      MapRange(r.Range),
		Guests:     r.Guests,
		Status:     string(r.Status),
		Quote:      MapQuote(nil, r.Range, r.Quote),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.Cancellation != nil {
		c := MapCancellation(r, *r.Cancellation)
		out.Cancellation = &c
	}
	return out
}

type ReservationCollection struct {
	PropertyID string        `json:"property_id"`
	Items      []Reservation `json:"items"`
}

type ReservationAction struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

type CancellationPreview struct {
	ReservationID string       `json:"reservation_id"`
	Status        string       `json:"status"`
	Total         json.Number  `json:"total"`
	Cancellation  Cancellation `json:"cancellation"`
}
