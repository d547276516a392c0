package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"estatehub/internal/domain/booking"
	"estatehub/internal/domain/property"
)

// PropertyRepository keeps properties in a map guarded by a RWMutex.
type PropertyRepository struct {
	mu    sync.RWMutex
	items map[property.ID]property.Property
}

func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{items: make(map[property.ID]property.Property)}
}

func (r *PropertyRepository) ByID(_ context.Context, id property.ID) (*property.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", property.ErrPropertyNotFound, id)
	}
	return &p, nil
}

func (r *PropertyRepository) Save(_ context.Context, p *property.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.Version++
	r.items[p.ID] = *p
	return nil
}

// Len reports how many properties are stored.
func (r *PropertyRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// ReservationRepository stores reservations per property. One mutex covers
// the availability check and the insert, which makes InsertIfAvailable
// atomic for every caller in the process.
type ReservationRepository struct {
	mu         sync.Mutex
	byID       map[booking.ReservationID]*booking.Reservation
	byProperty map[property.ID][]booking.ReservationID
}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{
		byID:       make(map[booking.ReservationID]*booking.Reservation),
		byProperty: make(map[property.ID][]booking.ReservationID),
	}
}

func (r *ReservationRepository) ByID(_ context.Context, id booking.ReservationID) (*booking.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", booking.ErrReservationNotFound, id)
	}
	return res.Clone(), nil
}

func (r *ReservationRepository) ListByProperty(_ context.Context, propertyID property.ID) ([]*booking.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listLocked(propertyID), nil
}

func (r *ReservationRepository) listLocked(propertyID property.ID) []*booking.Reservation {
	ids := r.byProperty[propertyID]
	out := make([]*booking.Reservation, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *ReservationRepository) InsertIfAvailable(_ context.Context, res *booking.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byID[res.ID]; dup {
		return fmt.Errorf("%w: reservation %s already exists", booking.ErrConcurrentUpdate, res.ID)
	}
	free, err := booking.IsRangeAvailable(res.Range, booking.ExistingBookings(r.listLocked(res.PropertyID)))
	if err != nil {
		return err
	}
	if !free {
		return fmt.Errorf("%w: %s", booking.ErrDatesUnavailable, res.Range)
	}
	res.Version = 1
	r.byID[res.ID] = res.Clone()
	r.byProperty[res.PropertyID] = append(r.byProperty[res.PropertyID], res.ID)
	return nil
}

func (r *ReservationRepository) Save(_ context.Context, res *booking.Reservation) error {
	_, err := r.save(res)
	return err
}

// save stores res and returns the copy it replaced.
func (r *ReservationRepository) save(res *booking.Reservation) (*booking.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[res.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", booking.ErrReservationNotFound, res.ID)
	}
	if stored.Version != res.Version {
		return nil, fmt.Errorf("%w: %s at version %d, have %d", booking.ErrConcurrentUpdate, res.ID, stored.Version, res.Version)
	}
	res.Version++
	r.byID[res.ID] = res.Clone()
	return stored, nil
}

// revert puts prev back unless another writer moved past version. A nil
// prev removes the reservation entirely.
func (r *ReservationRepository) revert(id booking.ReservationID, version int64, prev *booking.Reservation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byID[id]
	if !ok || current.Version != version {
		return
	}
	if prev != nil {
		r.byID[id] = prev
		return
	}
	delete(r.byID, id)
	ids := r.byProperty[current.PropertyID]
	for i, other := range ids {
		if other == id {
			r.byProperty[current.PropertyID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
}

var (
	_ property.Repository = (*PropertyRepository)(nil)
	_ booking.Repository  = (*ReservationRepository)(nil)
)
