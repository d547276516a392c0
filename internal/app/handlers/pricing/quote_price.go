package pricing

import (
	"context"
	"errors"
	"strings"

	"estatehub/internal/app/bus"
	"estatehub/internal/app/dto"
	"estatehub/internal/app/uow"
	domainpricing "estatehub/internal/domain/pricing"
	"estatehub/internal/domain/property"
	"estatehub/internal/domain/shared/daterange"
)

const quotePriceKey = "pricing.quote"

var ErrPropertyIDRequired = errors.New("pricing: property id is required")

// QuotePriceQuery prices a stay at the property's stored nightly rate.
type QuotePriceQuery struct {
	PropertyID string
	CheckIn    daterange.Date
	CheckOut   daterange.Date
}

func (q QuotePriceQuery) Key() string { return quotePriceKey }

func (q QuotePriceQuery) Validate() error {
	if strings.TrimSpace(q.PropertyID) == "" {
		return ErrPropertyIDRequired
	}
	_, err := daterange.New(q.CheckIn, q.CheckOut)
	return err
}

type QuotePriceHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *QuotePriceHandler) Handle(ctx context.Context, q QuotePriceQuery) (dto.Quote, error) {
	dr, err := daterange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.Quote{}, err
	}
	unit, execCtx, done, err := uow.BeginReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return dto.Quote{}, err
	}
	defer done()

	p, err := unit.Properties().ByID(execCtx, property.ID(q.PropertyID))
	if err != nil {
		return dto.Quote{}, err
	}
	if err := p.EnsureBookable(); err != nil {
		return dto.Quote{}, err
	}
	quote, err := domainpricing.Quote(p.PricePerNight, dr)
	if err != nil {
		return dto.Quote{}, err
	}
	return dto.MapQuote(p, dr, quote), nil
}

var _ bus.Handler[QuotePriceQuery, dto.Quote] = (*QuotePriceHandler)(nil)
