package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"estatehub/internal/domain/shared/daterange"
)

var (
	ErrInvalidRate = errors.New("pricing: nightly rate must be a finite non-negative number")
)

// ServiceFeeRate is the platform surcharge applied on top of the nightly subtotal.
var ServiceFeeRate = decimal.RequireFromString("0.10")

// DisplayPlaces is the number of decimals every monetary output is rounded to.
const DisplayPlaces = 2

// PriceQuote is the price breakdown for one stay. It is a value object and
// is never persisted on its own.
type PriceQuote struct {
	Nights         int             `json:"nights"`
	PricePerNight  decimal.Decimal `json:"price_per_night"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ServiceFeeRate decimal.Decimal `json:"service_fee_rate"`
	ServiceFee     decimal.Decimal `json:"service_fee"`
	Total          decimal.Decimal `json:"total"`
}

// CalculatePrice quotes a stay from a nightly rate given as a plain number.
func CalculatePrice(pricePerNight float64, checkIn, checkOut daterange.Date) (PriceQuote, error) {
	dr, err := daterange.New(checkIn, checkOut)
	if err != nil {
		return PriceQuote{}, err
	}
	if math.IsNaN(pricePerNight) || math.IsInf(pricePerNight, 0) || pricePerNight < 0 {
		return PriceQuote{}, fmt.Errorf("%w: got %v", ErrInvalidRate, pricePerNight)
	}
	return Quote(decimal.NewFromFloat(pricePerNight), dr)
}

// Quote computes the breakdown for dr at rate.
//
// Each output is rounded half-up on its own and always from unrounded
// inputs: the fee comes from the raw subtotal and the total from the raw
// subtotal plus the raw fee, never from the already rounded display values.
func Quote(rate decimal.Decimal, dr daterange.DateRange) (PriceQuote, error) {
	if err := dr.Validate(); err != nil {
		return PriceQuote{}, err
	}
	if rate.IsNegative() {
		return PriceQuote{}, fmt.Errorf("%w: got %s", ErrInvalidRate, rate)
	}
	nights := dr.Nights()
	if nights < 1 {
		return PriceQuote{}, fmt.Errorf("%w: stay must cover at least one night", daterange.ErrInvalidRange)
	}
	rawSubtotal := rate.Mul(decimal.NewFromInt(int64(nights)))
	rawFee := rawSubtotal.Mul(ServiceFeeRate)
	return PriceQuote{
		Nights:         nights,
		PricePerNight:  rate,
		Subtotal:       rawSubtotal.Round(DisplayPlaces),
		ServiceFeeRate: ServiceFeeRate,
		ServiceFee:     rawFee.Round(DisplayPlaces),
		Total:          rawSubtotal.Add(rawFee).Round(DisplayPlaces),
	}, nil
}

// Equal reports whether both quotes carry the same numbers.
func (q PriceQuote) Equal(other PriceQuote) bool {
	return q.Nights == other.Nights &&
		q.PricePerNight.Equal(other.PricePerNight) &&
		q.Subtotal.Equal(other.Subtotal) &&
		q.ServiceFeeRate.Equal(other.ServiceFeeRate) &&
		q.ServiceFee.Equal(other.ServiceFee) &&
		q.Total.Equal(other.Total)
}

func (q PriceQuote) IsZero() bool {
	return q.Nights == 0
}
