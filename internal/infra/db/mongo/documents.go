package mongo

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"estatehub/internal/domain/booking"
	"estatehub/internal/domain/pricing"
	"estatehub/internal/domain/property"
	"estatehub/internal/domain/shared/daterange"
)

// Dates are stored as YYYY-MM-DD strings so range filters compare lexically.

type propertyDocument struct {
	ID            string               `bson:"_id"`
	HostID        string               `bson:"host_id"`
	Title         string               `bson:"title"`
	City          string               `bson:"city"`
	Country       string               `bson:"country"`
	PricePerNight primitive.Decimal128 `bson:"price_per_night"`
	Currency      string               `bson:"currency"`
	Active        bool                 `bson:"active"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
	Version       int64                `bson:"version"`
}

func newPropertyDocument(p *property.Property) (propertyDocument, error) {
	rate, err := toDecimal128(p.PricePerNight)
	if err != nil {
		return propertyDocument{}, err
	}
	return propertyDocument{
		ID:            string(p.ID),
		HostID:        string(p.Host),
		Title:         p.Title,
		City:          p.City,
		Country:       p.Country,
		PricePerNight: rate,
		Currency:      p.Currency,
		Active:        p.Active,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		Version:       p.Version,
	}, nil
}

func (d propertyDocument) toAggregate() (*property.Property, error) {
	rate, err := fromDecimal128(d.PricePerNight)
	if err != nil {
		return nil, errors.Wrapf(err, "mongo: property %s rate", d.ID)
	}
	return &property.Property{
		ID:            property.ID(d.ID),
		Host:          property.HostID(d.HostID),
		Title:         d.Title,
		City:          d.City,
		Country:       d.Country,
		PricePerNight: rate,
		Currency:      d.Currency,
		Active:        d.Active,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
		Version:       d.Version,
	}, nil
}

type quoteDocument struct {
	Nights         int                  `bson:"nights"`
	PricePerNight  primitive.Decimal128 `bson:"price_per_night"`
	Subtotal       primitive.Decimal128 `bson:"subtotal"`
	ServiceFeeRate primitive.Decimal128 `bson:"service_fee_rate"`
	ServiceFee     primitive.Decimal128 `bson:"service_fee"`
	Total          primitive.Decimal128 `bson:"total"`
}

type cancellationDocument struct {
	Tier              string               `bson:"tier"`
	DaysBeforeCheckIn int                  `bson:"days_before_check_in"`
	Refund            primitive.Decimal128 `bson:"refund"`
	Reason            string               `bson:"reason,omitempty"`
	At                time.Time            `bson:"at"`
}

type reservationDocument struct {
	ID           string                `bson:"_id"`
	PropertyID   string                `bson:"property_id"`
	GuestID      string                `bson:"guest_id"`
	CheckIn      string                `bson:"check_in"`
	CheckOut     string                `bson:"check_out"`
	Guests       int                   `bson:"guests"`
	Quote        quoteDocument         `bson:"quote"`
	Status       string                `bson:"status"`
	Cancellation *cancellationDocument `bson:"cancellation,omitempty"`
	CreatedAt    time.Time             `bson:"created_at"`
	UpdatedAt    time.Time             `bson:"updated_at"`
	Version      int64                 `bson:"version"`
}

func newReservationDocument(r *booking.Reservation) (reservationDocument, error) {
	quote, err := newQuoteDocument(r.Quote)
	if err != nil {
		return reservationDocument{}, errors.Wrapf(err, "mongo: reservation %s quote", r.ID)
	}
	doc := reservationDocument{
		ID:         string(r.ID),
		PropertyID: string(r.PropertyID),
		GuestID:    r.GuestID,
		CheckIn:    r.Range.CheckIn.String(),
		CheckOut:   r.Range.CheckOut.String(),
		Guests:     r.Guests,
		Quote:      quote,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		Version:    r.Version,
	}
	if c := r.Cancellation; c != nil {
		refund, err := toDecimal128(c.Refund)
		if err != nil {
			return reservationDocument{}, errors.Wrapf(err, "mongo: reservation %s refund", r.ID)
		}
		doc.Cancellation = &cancellationDocument{
			Tier:              string(c.Tier),
			DaysBeforeCheckIn: c.DaysBeforeCheckIn,
			Refund:            refund,
			Reason:            c.Reason,
			At:                c.At,
		}
	}
	return doc, nil
}

func (d reservationDocument) toAggregate() (*booking.Reservation, error) {
	dr, err := daterange.Parse(d.CheckIn, d.CheckOut)
	if err != nil {
		return nil, errors.Wrapf(err, "mongo: reservation %s range", d.ID)
	}
	status, err := booking.ParseStatus(d.Status)
	if err != nil {
		return nil, errors.Wrapf(err, "mongo: reservation %s", d.ID)
	}
	quote, err := d.Quote.toQuote()
	if err != nil {
		return nil, errors.Wrapf(err, "mongo: reservation %s quote", d.ID)
	}
	r := &booking.Reservation{
		ID:         booking.ReservationID(d.ID),
		PropertyID: property.ID(d.PropertyID),
		GuestID:    d.GuestID,
		Range:      dr,
		Guests:     d.Guests,
		Quote:      quote,
		Status:     status,
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
		Version:    d.Version,
	}
	if c := d.Cancellation; c != nil {
		refund, err := fromDecimal128(c.Refund)
		if err != nil {
			return nil, errors.Wrapf(err, "mongo: reservation %s refund", d.ID)
		}
		r.Cancellation = &booking.CancellationOutcome{
			Tier:              booking.RefundTier(c.Tier),
			DaysBeforeCheckIn: c.DaysBeforeCheckIn,
			Refund:            refund,
			Reason:            c.Reason,
			At:                c.At.UTC(),
		}
	}
	return r, nil
}

func newQuoteDocument(q pricing.PriceQuote) (quoteDocument, error) {
	values := []decimal.Decimal{q.PricePerNight, q.Subtotal, q.ServiceFeeRate, q.ServiceFee, q.Total}
	out := make([]primitive.Decimal128, len(values))
	for i, v := range values {
		d, err := toDecimal128(v)
		if err != nil {
			return quoteDocument{}, err
		}
		out[i] = d
	}
	return quoteDocument{
		Nights:         q.Nights,
		PricePerNight:  out[0],
		Subtotal:       out[1],
		ServiceFeeRate: out[2],
		ServiceFee:     out[3],
		Total:          out[4],
	}, nil
}

func (d quoteDocument) toQuote() (pricing.PriceQuote, error) {
	values := []primitive.Decimal128{d.PricePerNight, d.Subtotal, d.ServiceFeeRate, d.ServiceFee, d.Total}
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		dec, err := fromDecimal128(v)
		if err != nil {
			return pricing.PriceQuote{}, err
		}
		out[i] = dec
	}
	return pricing.PriceQuote{
		Nights:         d.Nights,
		PricePerNight:  out[0],
		Subtotal:       out[1],
		ServiceFeeRate: out[2],
		ServiceFee:     out[3],
		Total:          out[4],
	}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, errors.Wrapf(err, "mongo: decimal %s", d)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(v.String())
}
