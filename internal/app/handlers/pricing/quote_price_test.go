package pricing_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/app/bus"
	"estatehub/internal/app/dto"
	"estatehub/internal/app/handlers/pricing"
	"estatehub/internal/app/middleware"
	"estatehub/internal/domain/property"
	"estatehub/internal/domain/shared/daterange"
	"estatehub/internal/infra/storage/memory"
)

func TestQuotePrice(t *testing.T) {
	props := memory.NewPropertyRepository()
	for _, fx := range []struct {
		id     string
		rate   string
		active bool
	}{{"p-1", "99.99", true}, {"p-2", "100", false}} {
		p, err := property.New(property.CreateParams{
			ID: property.ID(fx.id), Host: "h", Title: "t", PricePerNight: decimal.RequireFromString(fx.rate), Currency: "gbp", Active: fx.active,
		})
		require.NoError(t, err)
		require.NoError(t, props.Save(context.Background(), p))
	}
	factory := memory.Factory{PropertiesRepo: props, ReservationsRepo: memory.NewReservationRepository()}
	b := bus.New()
	bus.RegisterQuery(b, &pricing.QuotePriceHandler{UoWFactory: factory})
	queries := middleware.ChainQueries(b, middleware.QueryValidation())

	ask := func(id, in, out string) (dto.Quote, error) {
		return bus.Ask[pricing.QuotePriceQuery, dto.Quote](context.Background(), queries, pricing.QuotePriceQuery{
			PropertyID: id, CheckIn: daterange.MustParseDate(in), CheckOut: daterange.MustParseDate(out),
		})
	}

	q, err := ask("p-1", "2024-05-01", "2024-05-08")
	require.NoError(t, err)
	assert.Equal(t, dto.Quote{
		PropertyID:     "p-1",
		CheckIn:        "2024-05-01",
		CheckOut:       "2024-05-08",
		Nights:         7,
		Currency:       "GBP",
		PricePerNight:  "99.99",
		Subtotal:       "699.93",
		ServiceFeeRate: "0.1",
		ServiceFee:     "69.99",
		Total:          "769.92",
	}, q)

	_, err = ask("p-2", "2024-05-01", "2024-05-08")
	require.ErrorIs(t, err, property.ErrPropertyInactive)

	_, err = ask("p-1", "2024-05-08", "2024-05-01")
	require.ErrorIs(t, err, daterange.ErrInvalidRange)

	_, err = ask("", "2024-05-01", "2024-05-02")
	require.ErrorIs(t, err, pricing.ErrPropertyIDRequired)
}
