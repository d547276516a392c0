package dto

import (
	"encoding/json"

	"estatehub/internal/domain/pricing"
	"estatehub/internal/domain/property"
	"estatehub/internal/domain/shared/daterange"
)

type Quote struct {
	PropertyID     string      `json:"property_id,omitempty"`
	CheckIn        string      `json:"check_in"`
	CheckOut       string      `json:"check_out"`
	Nights         int         `json:"nights"`
	Currency       string      `json:"currency,omitempty"`
	PricePerNight  json.Number `json:"price_per_night"`
	Subtotal       json.Number `json:"subtotal"`
	ServiceFeeRate json.Number `json:"service_fee_rate"`
	ServiceFee     json.Number `json:"service_fee"`
	Total          json.Number `json:"total"`
}

func MapQuote(p *property.Property, dr daterange.DateRange, q pricing.PriceQuote) Quote {
	out := Quote{
		CheckIn:        dr.CheckIn.String(),
		CheckOut:       dr.CheckOut.String(),
		Nights:         q.Nights,
		PricePerNight:  Amount(q.PricePerNight),
		Subtotal:       Amount(q.Subtotal),
		ServiceFeeRate: json.Number(q.ServiceFeeRate.String()),
		ServiceFee:     Amount(q.ServiceFee),
		Total:          Amount(q.Total),
	}
	if p != nil {
		out.PropertyID = string(p.ID)
		out.Currency = p.Currency
	}
	return out
}
