package reservations

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"estatehub/internal/app/outbox"
)

var (
	ErrReservationIDRequired = errors.New("reservations: reservation id is required")
	ErrPropertyIDRequired    = errors.New("reservations: property id is required")
	ErrHostIDRequired        = errors.New("reservations: host id is required")
)

// Deps are shared by every handler in this package. Zero values fall back
// to the wall clock, random UUIDs and the JSON encoder.
type Deps struct {
	Now     func() time.Time
	NewID   func() string
	Encoder outbox.EventEncoder
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) newID() string {
	if d.NewID != nil {
		return d.NewID()
	}
	return uuid.NewString()
}

func (d Deps) encoder() outbox.EventEncoder {
	if d.Encoder != nil {
		return d.Encoder
	}
	return outbox.JSONEventEncoder{}
}
