package booking_test

import (
	"testing"

	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, v int64) decimal.Decimal {
	t.Helper()
	return decimal.NewFromInt(v)
}
