package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "estatehub/internal/app/outbox"
	"estatehub/internal/app/middleware"
	"estatehub/internal/app/uow"
	"estatehub/internal/domain/booking"
	"estatehub/internal/domain/pricing"
	"estatehub/internal/domain/shared/daterange"
)

var today = daterange.MustParseDate("2024-01-01")

func newReservation(t *testing.T, id, checkIn, checkOut string) *booking.Reservation {
	t.Helper()
	req, err := booking.NewBookingRange("p-1", daterange.MustParseDate(checkIn), daterange.MustParseDate(checkOut), today)
	require.NoError(t, err)
	quote, err := pricing.Quote(decimal.NewFromInt(100), req.Range)
	require.NoError(t, err)
	res, err := booking.NewReservation(booking.CreateParams{
		ID: booking.ReservationID(id), Request: req, GuestID: "g-1", Guests: 1, Quote: quote,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return res
}

func TestInsertIfAvailable(t *testing.T) {
	ctx := context.Background()
	repo := NewReservationRepository()

	first := newReservation(t, "r-1", "2024-02-01", "2024-02-04")
	require.NoError(t, repo.InsertIfAvailable(ctx, first))
	assert.Equal(t, int64(1), first.Version)

	err := repo.InsertIfAvailable(ctx, newReservation(t, "r-2", "2024-02-03", "2024-02-05"))
	assert.ErrorIs(t, err, booking.ErrDatesUnavailable)

	require.NoError(t, repo.InsertIfAvailable(ctx, newReservation(t, "r-3", "2024-02-04", "2024-02-06")))

	err = repo.InsertIfAvailable(ctx, newReservation(t, "r-1", "2024-03-01", "2024-03-02"))
	assert.ErrorIs(t, err, booking.ErrConcurrentUpdate)

	stored, err := repo.ByID(ctx, "r-1")
	require.NoError(t, err)
	_, err = stored.Cancel("test", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, stored))

	require.NoError(t, repo.InsertIfAvailable(ctx, newReservation(t, "r-4", "2024-02-01", "2024-02-03")))

	all, err := repo.ListByProperty(ctx, "p-1")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestReservationSaveChecksVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewReservationRepository()
	require.NoError(t, repo.InsertIfAvailable(ctx, newReservation(t, "r-1", "2024-02-01", "2024-02-04")))

	a, err := repo.ByID(ctx, "r-1")
	require.NoError(t, err)
	b, err := repo.ByID(ctx, "r-1")
	require.NoError(t, err)

	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, a.Confirm(now))
	require.NoError(t, repo.Save(ctx, a))
	assert.Equal(t, int64(2), a.Version)

	require.NoError(t, b.Reject("late", now))
	assert.ErrorIs(t, repo.Save(ctx, b), booking.ErrConcurrentUpdate)

	ghost := newReservation(t, "r-404", "2024-02-01", "2024-02-04")
	assert.ErrorIs(t, repo.Save(ctx, ghost), booking.ErrReservationNotFound)

	// Callers get copies; mutating one does not touch the store.
	c, err := repo.ByID(ctx, "r-1")
	require.NoError(t, err)
	c.Status = booking.StatusCancelled
	again, err := repo.ByID(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, again.Status)
}

type flakyRelay struct {
	fail map[string]bool
	seen []string
}

func (r *flakyRelay) Relay(_ context.Context, rec appoutbox.EventRecord) error {
	r.seen = append(r.seen, rec.ID)
	if r.fail[rec.ID] {
		return errors.New("broker down")
	}
	return nil
}

func TestUnitBuffersOutboxUntilCommit(t *testing.T) {
	ctx := context.Background()
	relay := &flakyRelay{fail: map[string]bool{"e-2": true}}
	box := NewOutbox(relay)
	factory := Factory{PropertiesRepo: NewPropertyRepository(), ReservationsRepo: NewReservationRepository(), Outbox: box}

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Outbox().Add(ctx, appoutbox.EventRecord{ID: "e-1"}))
	require.NoError(t, unit.Outbox().Add(ctx, appoutbox.EventRecord{ID: "e-2"}))
	assert.Empty(t, box.Pending())
	require.NoError(t, unit.Commit(ctx))
	assert.Len(t, box.Pending(), 2)

	rolledBack, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, rolledBack.Outbox().Add(ctx, appoutbox.EventRecord{ID: "e-3"}))
	require.NoError(t, rolledBack.Rollback(ctx))

	err = box.Flush(ctx)
	require.Error(t, err)
	assert.Len(t, box.Sent(), 1)
	require.Len(t, box.Pending(), 1)
	assert.Equal(t, "e-2", box.Pending()[0].ID)

	relay.fail = nil
	require.NoError(t, box.Flush(ctx))
	assert.Len(t, box.Sent(), 2)
	assert.Empty(t, box.Pending())

	readOnly, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	assert.Error(t, readOnly.Outbox().Add(ctx, appoutbox.EventRecord{ID: "e-4"}))

	_, err = Factory{}.Begin(ctx, uow.TxOptions{})
	assert.ErrorIs(t, err, ErrFactoryMisconfigured)
}

func TestRollbackUndoesReservationWrites(t *testing.T) {
	ctx := context.Background()
	repo := NewReservationRepository()
	factory := Factory{PropertiesRepo: NewPropertyRepository(), ReservationsRepo: repo}
	require.NoError(t, repo.InsertIfAvailable(ctx, newReservation(t, "r-1", "2024-02-01", "2024-02-04")))

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Reservations().InsertIfAvailable(ctx, newReservation(t, "r-2", "2024-03-01", "2024-03-03")))
	existing, err := unit.Reservations().ByID(ctx, "r-1")
	require.NoError(t, err)
	require.NoError(t, existing.Confirm(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, unit.Reservations().Save(ctx, existing))
	require.NoError(t, unit.Rollback(ctx))

	_, err = repo.ByID(ctx, "r-2")
	assert.ErrorIs(t, err, booking.ErrReservationNotFound)
	restored, err := repo.ByID(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusPending, restored.Status)
	assert.Equal(t, int64(1), restored.Version)
	all, err := repo.ListByProperty(ctx, "p-1")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// The same stay can be booked again once the failed attempt is undone.
	retry, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, retry.Reservations().InsertIfAvailable(ctx, newReservation(t, "r-2", "2024-03-01", "2024-03-03")))
	require.NoError(t, retry.Commit(ctx))
	require.NoError(t, retry.Rollback(ctx))
	_, err = repo.ByID(ctx, "r-2")
	assert.NoError(t, err)
}

func TestIdempotencyStoreDropsExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewIdempotencyStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "live", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "stale", ExpiresAt: now}))
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "forever"}))

	_, ok, err := store.Get(ctx, "live")
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, _ = store.Get(ctx, "stale")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "forever")
	assert.True(t, ok)
	_, ok, _ = store.Get(ctx, "missing")
	assert.False(t, ok)
}
