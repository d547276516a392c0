package memory

import (
	"context"
	"errors"
	"sync"

	"estatehub/internal/app/outbox"
	"estatehub/internal/app/uow"
	"estatehub/internal/domain/booking"
	"estatehub/internal/domain/property"
)

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory hands out units over shared in-memory repositories. Reservation
// writes apply immediately and are undone on Rollback; outbox records wait
// for Commit. Property writes are not tracked since no command makes them.
type Factory struct {
	PropertiesRepo   *PropertyRepository
	ReservationsRepo *ReservationRepository
	Outbox           *Outbox
}

func (f Factory) Begin(_ context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.PropertiesRepo == nil || f.ReservationsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{factory: f, readOnly: opts.ReadOnly}, nil
}

type Unit struct {
	factory  Factory
	readOnly bool

	mu      sync.Mutex
	pending []outbox.EventRecord
	undo    []func()
	done    bool
}

func (u *Unit) Properties() property.Repository  { return u.factory.PropertiesRepo }
func (u *Unit) Reservations() booking.Repository { return unitReservations{u} }
func (u *Unit) Outbox() outbox.Outbox            { return unitOutbox{u} }

func (u *Unit) Commit(context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return nil
	}
	u.done = true
	if u.factory.Outbox != nil && len(u.pending) > 0 {
		u.factory.Outbox.enqueue(u.pending...)
	}
	u.pending = nil
	u.undo = nil
	return nil
}

func (u *Unit) Rollback(context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return nil
	}
	u.done = true
	u.pending = nil
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.undo = nil
	return nil
}

func (u *Unit) onRollback(fn func()) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.undo = append(u.undo, fn)
}

// unitReservations records an undo step for every write it passes through.
type unitReservations struct{ u *Unit }

func (r unitReservations) repo() *ReservationRepository { return r.u.factory.ReservationsRepo }

func (r unitReservations) ByID(ctx context.Context, id booking.ReservationID) (*booking.Reservation, error) {
	return r.repo().ByID(ctx, id)
}

func (r unitReservations) ListByProperty(ctx context.Context, propertyID property.ID) ([]*booking.Reservation, error) {
	return r.repo().ListByProperty(ctx, propertyID)
}

func (r unitReservations) InsertIfAvailable(ctx context.Context, res *booking.Reservation) error {
	if err := r.repo().InsertIfAvailable(ctx, res); err != nil {
		return err
	}
	id, version := res.ID, res.Version
	r.u.onRollback(func() { r.repo().revert(id, version, nil) })
	return nil
}

func (r unitReservations) Save(_ context.Context, res *booking.Reservation) error {
	prev, err := r.repo().save(res)
	if err != nil {
		return err
	}
	id, version := res.ID, res.Version
	r.u.onRollback(func() { r.repo().revert(id, version, prev) })
	return nil
}

var errReadOnlyUnit = errors.New("memory: read-only unit of work cannot record events")

// unitOutbox buffers records until the unit commits.
type unitOutbox struct{ u *Unit }

func (o unitOutbox) Add(_ context.Context, rec outbox.EventRecord) error {
	if o.u.readOnly {
		return errReadOnlyUnit
	}
	o.u.mu.Lock()
	defer o.u.mu.Unlock()
	o.u.pending = append(o.u.pending, rec)
	return nil
}

func (o unitOutbox) Flush(context.Context) error { return nil }

var _ uow.UoWFactory = Factory{}
