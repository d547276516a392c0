package booking

import (
	"errors"
	"fmt"
	"strings"

	"estatehub/internal/domain/property"
	"estatehub/internal/domain/shared/daterange"
)

var (
	ErrCheckInInPast    = errors.New("booking: check-in date is in the past")
	ErrPropertyRequired = errors.New("booking: property id is required")
)

// BookingRange is a requested stay at one property.
type BookingRange struct {
	PropertyID property.ID
	Range      daterange.DateRange
}

// NewBookingRange validates a request against today's calendar date.
func NewBookingRange(propertyID property.ID, checkIn, checkOut, today daterange.Date) (BookingRange, error) {
	if strings.TrimSpace(string(propertyID)) == "" {
		return BookingRange{}, ErrPropertyRequired
	}
	dr, err := daterange.New(checkIn, checkOut)
	if err != nil {
		return BookingRange{}, err
	}
	if err := ValidateNotPast(dr, today); err != nil {
		return BookingRange{}, err
	}
	return BookingRange{PropertyID: propertyID, Range: dr}, nil
}

// ValidateNotPast fails when the stay starts before today. CheckOut is
// after CheckIn so it cannot be in the past either.
func ValidateNotPast(dr daterange.DateRange, today daterange.Date) error {
	if dr.CheckIn.Before(today) {
		return fmt.Errorf("%w: %s is before %s", ErrCheckInInPast, dr.CheckIn, today)
	}
	return nil
}
