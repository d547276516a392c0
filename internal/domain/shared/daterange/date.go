package daterange

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the ISO 8601 calendar date layout used on every boundary.
const Layout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Date is a timezone-naive calendar day. The zero value is "no date".
//
// Values are normalised to midnight UTC so that two dates naming the same
// day compare equal with == and can be used as map keys.
type Date struct {
	t time.Time
}

// NewDate builds a date from its calendar components. Out-of-range
// components are normalised the way time.Date does it.
func NewDate(year int, month time.Month, d int) Date {
	return Date{t: time.Date(year, month, d, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t as seen on t's own wall clock.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses YYYY-MM-DD. Full ISO timestamps are accepted and
// truncated to their date part without any zone conversion.
func ParseDate(raw string) (Date, error) {
	value := strings.TrimSpace(raw)
	if len(value) > len(Layout) && value[len(Layout)] == 'T' {
		value = value[:len(Layout)]
	}
	t, err := time.Parse(Layout, value)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q is not a %s date", ErrInvalidRange, raw, Layout)
	}
	return Date{t: t}, nil
}

// MustParseDate is ParseDate that panics; for fixtures and tests.
func MustParseDate(raw string) Date {
	d, err := ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) IsZero() bool { return d.t.IsZero() }

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time { return d.t }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

// AddDays moves the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// DaysSince returns the whole number of days from o to d. Both sides are
// UTC midnights, so the difference in Unix seconds divides exactly; Sub
// would saturate for ranges past ~292 years.
func (d Date) DaysSince(o Date) int {
	return int((d.t.Unix() - o.t.Unix()) / secondsPerDay)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(Layout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
