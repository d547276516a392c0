package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"estatehub/internal/domain/pricing"
)

// Amount renders money with exactly two decimals as a JSON number.
func Amount(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(pricing.DisplayPlaces))
}
