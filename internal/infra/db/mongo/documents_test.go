package mongo

import (
	"fmt"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"estatehub/internal/app/middleware"
	"estatehub/internal/domain/booking"
	"estatehub/internal/domain/pricing"
	"estatehub/internal/domain/property"
	"estatehub/internal/domain/shared/daterange"
)

func TestReservationDocumentKeepsMoneyExact(t *testing.T) {
	dr := daterange.MustParse("2024-01-10", "2024-01-17")
	quote, err := pricing.Quote(decimal.RequireFromString("99.99"), dr)
	require.NoError(t, err)
	at := time.Date(2024, 1, 2, 8, 30, 0, 0, time.UTC)
	res := &booking.Reservation{
		ID:         "r-1",
		PropertyID: "p-1",
		GuestID:    "g-1",
		Range:      dr,
		Guests:     2,
		Quote:      quote,
		Status:     booking.StatusCancelled,
		Cancellation: &booking.CancellationOutcome{
			Tier:              booking.FullRefund,
			DaysBeforeCheckIn: 8,
			Refund:            quote.Subtotal,
			Reason:            "plans changed",
			At:                at,
		},
		CreatedAt: at,
		UpdatedAt: at,
		Version:   3,
	}

	doc, err := newReservationDocument(res)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-10", doc.CheckIn)
	assert.Equal(t, "2024-01-17", doc.CheckOut)
	assert.Equal(t, "699.93", doc.Quote.Subtotal.String())

	// Round trip through BSON like the driver would.
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var decoded reservationDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	got, err := decoded.toAggregate()
	require.NoError(t, err)
	assert.True(t, got.Quote.Equal(quote), "quote %+v", got.Quote)
	assert.True(t, got.Range.CheckIn.Equal(dr.CheckIn))
	assert.True(t, got.Range.CheckOut.Equal(dr.CheckOut))
	require.NotNil(t, got.Cancellation)
	assert.True(t, got.Cancellation.Refund.Equal(decimal.RequireFromString("699.93")))
	assert.Equal(t, booking.FullRefund, got.Cancellation.Tier)
	assert.Equal(t, "plans changed", got.Cancellation.Reason)
	assert.Equal(t, int64(3), got.Version)
	assert.Empty(t, got.PendingEvents())
}

func TestReservationDocumentRejectsCorruptRecords(t *testing.T) {
	doc := reservationDocument{ID: "r-9", CheckIn: "2024-02-03", CheckOut: "2024-02-01", Status: "pending"}
	_, err := doc.toAggregate()
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)

	doc = reservationDocument{ID: "r-9", CheckIn: "2024-02-01", CheckOut: "2024-02-03", Status: "archived"}
	_, err = doc.toAggregate()
	assert.ErrorIs(t, err, booking.ErrUnknownStatus)
}

func TestPropertyDocumentRate(t *testing.T) {
	p, err := property.New(property.CreateParams{
		ID:            "p-1",
		Host:          "h-1",
		Title:         "Loft",
		PricePerNight: decimal.RequireFromString("120.50"),
		Currency:      "eur",
		Active:        true,
		Now:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	doc, err := newPropertyDocument(p)
	require.NoError(t, err)
	got, err := doc.toAggregate()
	require.NoError(t, err)
	assert.True(t, got.PricePerNight.Equal(p.PricePerNight))
	assert.Equal(t, "EUR", got.Currency)
	assert.Equal(t, property.HostID("h-1"), got.Host)
}

func TestOverlapFilterUsesHalfOpenBounds(t *testing.T) {
	got := overlapFilter("p-1", daterange.MustParse("2024-02-01", "2024-02-03"))
	want := bson.M{
		"property_id": "p-1",
		"status":      bson.M{"$in": bson.A{"pending", "confirmed"}},
		"check_in":    bson.M{"$lt": "2024-02-03"},
		"check_out":   bson.M{"$gt": "2024-02-01"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertErrorMapping(t *testing.T) {
	doc := reservationDocument{ID: "r-1", PropertyID: "p-1"}

	conflict := mongo.CommandError{Code: codeWriteConflict, Name: "WriteConflict"}
	assert.ErrorIs(t, mapInsertError(conflict, doc), booking.ErrDatesUnavailable)

	transient := mongo.CommandError{Code: 251, Labels: []string{labelTransientTxn}}
	assert.ErrorIs(t, mapInsertError(fmt.Errorf("insert: %w", transient), doc), booking.ErrDatesUnavailable)

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, mapInsertError(dup, doc), booking.ErrConcurrentUpdate)

	other := errors.New("network down")
	err := mapInsertError(other, doc)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, booking.ErrDatesUnavailable)
}

func TestIdempotencyDocumentExpiry(t *testing.T) {
	exp := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	rec := middleware.IdempotencyRecord{Key: "reservations.request:k1", Fingerprint: "abc", Payload: []byte(`{}`), ExpiresAt: exp}

	doc := newIdempotencyDocument(rec)
	require.NotNil(t, doc.ExpiresAt)
	assert.Equal(t, exp, doc.toRecord().ExpiresAt)

	rec.ExpiresAt = time.Time{}
	doc = newIdempotencyDocument(rec)
	assert.Nil(t, doc.ExpiresAt)
	assert.True(t, doc.toRecord().ExpiresAt.IsZero())
}
