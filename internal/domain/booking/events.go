package booking

import (
	"time"

	"github.com/shopspring/decimal"

	"estatehub/internal/domain/property"
	"estatehub/internal/domain/shared/daterange"
)

type ReservationRequested struct {
	ReservationID ReservationID       `json:"reservation_id"`
	PropertyID    property.ID         `json:"property_id"`
	GuestID       string              `json:"guest_id"`
	Range         daterange.DateRange `json:"range"`
	Nights        int                 `json:"nights"`
	Total         decimal.Decimal     `json:"total"`
	At            time.Time           `json:"at"`
}

func (e ReservationRequested) EventName() string     { return "reservation.requested" }
func (e ReservationRequested) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationRequested) OccurredAt() time.Time { return e.At }

type ReservationConfirmed struct {
	ReservationID ReservationID       `json:"reservation_id"`
	PropertyID    property.ID         `json:"property_id"`
	Range         daterange.DateRange `json:"range"`
	At            time.Time           `json:"at"`
}

func (e ReservationConfirmed) EventName() string     { return "reservation.confirmed" }
func (e ReservationConfirmed) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationConfirmed) OccurredAt() time.Time { return e.At }

type ReservationRejected struct {
	ReservationID ReservationID `json:"reservation_id"`
	Reason        string        `json:"reason"`
	At            time.Time     `json:"at"`
}

func (e ReservationRejected) EventName() string     { return "reservation.rejected" }
func (e ReservationRejected) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationRejected) OccurredAt() time.Time { return e.At }

type ReservationCancelled struct {
	ReservationID ReservationID   `json:"reservation_id"`
	PropertyID    property.ID     `json:"property_id"`
	Tier          RefundTier      `json:"tier"`
	Refund        decimal.Decimal `json:"refund"`
	Reason        string          `json:"reason"`
	At            time.Time       `json:"at"`
}

func (e ReservationCancelled) EventName() string     { return "reservation.cancelled" }
func (e ReservationCancelled) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationCancelled) OccurredAt() time.Time { return e.At }

type ReservationCompleted struct {
	ReservationID ReservationID `json:"reservation_id"`
	At            time.Time     `json:"at"`
}

func (e ReservationCompleted) EventName() string     { return "reservation.completed" }
func (e ReservationCompleted) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationCompleted) OccurredAt() time.Time { return e.At }
