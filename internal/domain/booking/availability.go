package booking

import (
	"sort"

	"estatehub/internal/domain/shared/daterange"
)

// ExistingBooking is a read-only view of a stored reservation used by the
// availability checks.
type ExistingBooking struct {
	ID     string
	Range  daterange.DateRange
	Status Status
}

// Blocking reports whether b occupies nights. Malformed records never block.
func (b ExistingBooking) Blocking() bool {
	return b.Status.Blocks() && b.Range.Validate() == nil
}

// IsRangeAvailable reports whether requested can be granted. A conflict is
// a normal answer; only an invalid requested range is an error.
func IsRangeAvailable(requested daterange.DateRange, existing []ExistingBooking) (bool, error) {
	if err := requested.Validate(); err != nil {
		return false, err
	}
	for _, b := range existing {
		if b.Blocking() && requested.Overlaps(b.Range) {
			return false, nil
		}
	}
	return true, nil
}

// Conflicts returns the blocking bookings that overlap requested, in input order.
func Conflicts(requested daterange.DateRange, existing []ExistingBooking) ([]ExistingBooking, error) {
	if err := requested.Validate(); err != nil {
		return nil, err
	}
	var out []ExistingBooking
	for _, b := range existing {
		if b.Blocking() && requested.Overlaps(b.Range) {
			out = append(out, b)
		}
	}
	return out, nil
}

// DateSet is a set of calendar days.
type DateSet map[daterange.Date]struct{}

func (s DateSet) Has(d daterange.Date) bool {
	_, ok := s[d]
	return ok
}

// Sorted returns the members in ascending order.
func (s DateSet) Sorted() []daterange.Date {
	out := make([]daterange.Date, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// BlockedDates expands every blocking booking into the nights it occupies.
// The check-out day is never part of the set.
func BlockedDates(existing []ExistingBooking) DateSet {
	set := DateSet{}
	for _, b := range existing {
		if !b.Blocking() {
			continue
		}
		for _, d := range b.Range.Dates() {
			set[d] = struct{}{}
		}
	}
	return set
}

// BlockedRanges returns blocking ranges sorted by check-in, with
// overlapping and back-to-back stays merged into one range.
func BlockedRanges(existing []ExistingBooking) []daterange.DateRange {
	ranges := make([]daterange.DateRange, 0, len(existing))
	for _, b := range existing {
		if b.Blocking() {
			ranges = append(ranges, b.Range)
		}
	}
	if len(ranges) == 0 {
		return nil
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].CheckIn.Before(ranges[j].CheckIn) })
	merged := []daterange.DateRange{ranges[0]}
	for _, r := range ranges[1:] {
		last := &merged[len(merged)-1]
		if m, ok := last.Merge(r); ok {
			*last = m
			continue
		}
		merged = append(merged, r)
	}
	return merged
}
