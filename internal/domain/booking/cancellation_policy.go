package booking

import (
	"time"

	"github.com/shopspring/decimal"

	"estatehub/internal/domain/pricing"
	"estatehub/internal/domain/shared/daterange"
)

// RefundTier is the refund class a cancellation falls into.
type RefundTier string

const (
	FullRefund RefundTier = "full_refund"
	HalfRefund RefundTier = "half_refund"
	NoRefund   RefundTier = "no_refund"
)

const (
	fullRefundMinDays = 7
	halfRefundMinDays = 3
)

var half = decimal.RequireFromString("0.5")

// DaysUntilCheckIn counts days from now to midnight of checkIn on now's
// wall clock, rounding any partial day up. That is the number of calendar
// days between now's date and checkIn, which stays exact across DST shifts.
func DaysUntilCheckIn(checkIn daterange.Date, now time.Time) int {
	return checkIn.DaysSince(daterange.DateOf(now))
}

// ClassifyCancellation maps the notice period to a refund tier. Each
// bound is inclusive, so exactly 7 days is a full refund and exactly 3 is half.
func ClassifyCancellation(checkIn daterange.Date, now time.Time) RefundTier {
	return tierFor(DaysUntilCheckIn(checkIn, now))
}

func tierFor(days int) RefundTier {
	switch {
	case days >= fullRefundMinDays:
		return FullRefund
	case days >= halfRefundMinDays:
		return HalfRefund
	default:
		return NoRefund
	}
}

// Percent is the share of the subtotal returned to the guest.
func (t RefundTier) Percent() int {
	switch t {
	case FullRefund:
		return 100
	case HalfRefund:
		return 50
	default:
		return 0
	}
}

// RefundFor returns the amount refunded for quote under tier. The service
// fee is kept in every tier.
func RefundFor(quote pricing.PriceQuote, tier RefundTier) decimal.Decimal {
	switch tier {
	case FullRefund:
		return quote.Subtotal
	case HalfRefund:
		return quote.Subtotal.Mul(half).Round(pricing.DisplayPlaces)
	default:
		return decimal.Zero
	}
}
