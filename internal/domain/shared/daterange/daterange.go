package daterange

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
)

// DateRange represents a half-open interval [checkIn, checkOut)
type DateRange struct {
	CheckIn  Date `json:"check_in"`
	CheckOut Date `json:"check_out"`
}

func New(checkIn, checkOut Date) (DateRange, error) {
	dr := DateRange{CheckIn: checkIn, CheckOut: checkOut}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Parse builds a range from two ISO date strings.
func Parse(checkIn, checkOut string) (DateRange, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return DateRange{}, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return DateRange{}, err
	}
	return New(in, out)
}

// MustParse is Parse that panics; for fixtures and tests.
func MustParse(checkIn, checkOut string) DateRange {
	dr, err := Parse(checkIn, checkOut)
	if err != nil {
		panic(err)
	}
	return dr
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return fmt.Errorf("%w: both dates are required", ErrInvalidRange)
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return fmt.Errorf("%w: %s is not after %s", ErrInvalidRange, dr.CheckOut, dr.CheckIn)
	}
	return nil
}

// Nights counts calendar nights between check-in and check-out.
func (dr DateRange) Nights() int {
	return dr.CheckOut.DaysSince(dr.CheckIn)
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) Contains(other DateRange) bool {
	return !other.CheckIn.Before(dr.CheckIn) && !other.CheckOut.After(dr.CheckOut)
}

func (dr DateRange) ContainsDate(d Date) bool {
	return !d.Before(dr.CheckIn) && d.Before(dr.CheckOut)
}

func (dr DateRange) Adjacent(other DateRange) bool {
	return dr.CheckOut.Equal(other.CheckIn) || dr.CheckIn.Equal(other.CheckOut)
}

func (dr DateRange) Merge(other DateRange) (DateRange, bool) {
	if !(dr.Overlaps(other) || dr.Adjacent(other)) {
		return DateRange{}, false
	}
	start := dr.CheckIn
	if other.CheckIn.Before(start) {
		start = other.CheckIn
	}
	end := dr.CheckOut
	if other.CheckOut.After(end) {
		end = other.CheckOut
	}
	return DateRange{CheckIn: start, CheckOut: end}, true
}

// Intersect clips dr to window. ok is false when they do not overlap.
func (dr DateRange) Intersect(window DateRange) (DateRange, bool) {
	if !dr.Overlaps(window) {
		return DateRange{}, false
	}
	start := dr.CheckIn
	if window.CheckIn.After(start) {
		start = window.CheckIn
	}
	end := dr.CheckOut
	if window.CheckOut.Before(end) {
		end = window.CheckOut
	}
	return DateRange{CheckIn: start, CheckOut: end}, true
}

// Dates lists every occupied night: CheckIn up to but excluding CheckOut.
func (dr DateRange) Dates() []Date {
	if !dr.CheckOut.After(dr.CheckIn) {
		return nil
	}
	out := make([]Date, 0, dr.Nights())
	for d := dr.CheckIn; d.Before(dr.CheckOut); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

func (dr DateRange) String() string {
	return "[" + dr.CheckIn.String() + ", " + dr.CheckOut.String() + ")"
}
