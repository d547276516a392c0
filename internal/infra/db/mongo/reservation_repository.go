package mongo

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"estatehub/internal/domain/booking"
	"estatehub/internal/domain/property"
	"estatehub/internal/domain/shared/daterange"
)

const (
	reservationsCollection = "agg_reservation"
	guardsCollection       = "reservation_guards"

	codeWriteConflict = 112
	labelTransientTxn = "TransientTransactionError"
)

type ReservationRepository struct {
	db     *mongo.Database
	col    *mongo.Collection
	guards *mongo.Collection
}

func NewReservationRepository(ctx context.Context, db *mongo.Database) (*ReservationRepository, error) {
	col := db.Collection(reservationsCollection)
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "status", Value: 1}, {Key: "check_in", Value: 1}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "mongo: create reservation indexes")
	}
	return &ReservationRepository{db: db, col: col, guards: db.Collection(guardsCollection)}, nil
}

func (r *ReservationRepository) ByID(ctx context.Context, id booking.ReservationID) (*booking.Reservation, error) {
	var doc reservationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.Wrapf(booking.ErrReservationNotFound, "id %s", id)
		}
		return nil, errors.Wrapf(err, "mongo: load reservation %s", id)
	}
	return doc.toAggregate()
}

func (r *ReservationRepository) ListByProperty(ctx context.Context, propertyID property.ID) ([]*booking.Reservation, error) {
	cur, err := r.col.Find(ctx, bson.M{"property_id": string(propertyID)},
		options.Find().SetSort(bson.D{{Key: "check_in", Value: 1}}))
	if err != nil {
		return nil, errors.Wrapf(err, "mongo: list reservations of %s", propertyID)
	}
	var docs []reservationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrapf(err, "mongo: decode reservations of %s", propertyID)
	}
	out := make([]*booking.Reservation, 0, len(docs))
	for _, doc := range docs {
		res, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// InsertIfAvailable serialises inserts per property through a guard
// document: every insert bumps it inside the transaction, so two
// overlapping requests cannot both commit. It joins the session carried
// by ctx or opens its own transaction.
func (r *ReservationRepository) InsertIfAvailable(ctx context.Context, res *booking.Reservation) error {
	doc, err := newReservationDocument(res)
	if err != nil {
		return err
	}
	doc.Version = 1

	if mongo.SessionFromContext(ctx) != nil {
		err = r.insertGuarded(ctx, doc, res.Range)
	} else {
		err = r.withTransaction(ctx, func(sc context.Context) error {
			return r.insertGuarded(sc, doc, res.Range)
		})
	}
	if err != nil {
		return err
	}
	res.Version = doc.Version
	return nil
}

func (r *ReservationRepository) insertGuarded(ctx context.Context, doc reservationDocument, dr daterange.DateRange) error {
	_, err := r.guards.UpdateOne(ctx,
		bson.M{"_id": doc.PropertyID},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.Update().SetUpsert(true))
	if err != nil {
		return mapInsertError(err, doc)
	}
	n, err := r.col.CountDocuments(ctx, overlapFilter(doc.PropertyID, dr), options.Count().SetLimit(1))
	if err != nil {
		return mapInsertError(err, doc)
	}
	if n > 0 {
		return errors.Wrapf(booking.ErrDatesUnavailable, "%s %s", doc.PropertyID, dr)
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return mapInsertError(err, doc)
	}
	return nil
}

func (r *ReservationRepository) withTransaction(ctx context.Context, fn func(context.Context) error) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return errors.Wrap(err, "mongo: start session")
	}
	defer session.EndSession(ctx)
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}

// Save persists a status change guarded by the optimistic Version.
func (r *ReservationRepository) Save(ctx context.Context, res *booking.Reservation) error {
	doc, err := newReservationDocument(res)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": doc.ID, "version": res.Version}
	doc.Version = res.Version + 1
	out, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc})
	if err != nil {
		if isWriteConflict(err) {
			return errors.Wrapf(booking.ErrConcurrentUpdate, "id %s", res.ID)
		}
		return errors.Wrapf(err, "mongo: save reservation %s", res.ID)
	}
	if out.MatchedCount == 0 {
		n, err := r.col.CountDocuments(ctx, bson.M{"_id": doc.ID})
		if err != nil {
			return errors.Wrapf(err, "mongo: save reservation %s", res.ID)
		}
		if n == 0 {
			return errors.Wrapf(booking.ErrReservationNotFound, "id %s", res.ID)
		}
		return errors.Wrapf(booking.ErrConcurrentUpdate, "id %s version %d", res.ID, res.Version)
	}
	res.Version = doc.Version
	return nil
}

// overlapFilter matches blocking reservations intersecting the half-open
// range. Lexical comparison of YYYY-MM-DD strings is chronological.
func overlapFilter(propertyID string, dr daterange.DateRange) bson.M {
	return bson.M{
		"property_id": propertyID,
		"status":      bson.M{"$in": bson.A{string(booking.StatusPending), string(booking.StatusConfirmed)}},
		"check_in":    bson.M{"$lt": dr.CheckOut.String()},
		"check_out":   bson.M{"$gt": dr.CheckIn.String()},
	}
}

func mapInsertError(err error, doc reservationDocument) error {
	switch {
	case isWriteConflict(err):
		return errors.Wrapf(booking.ErrDatesUnavailable, "%s: concurrent booking", doc.PropertyID)
	case mongo.IsDuplicateKeyError(err):
		return errors.Wrapf(booking.ErrConcurrentUpdate, "id %s already exists", doc.ID)
	default:
		return errors.Wrapf(err, "mongo: insert reservation %s", doc.ID)
	}
}

func isWriteConflict(err error) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	return se.HasErrorCode(codeWriteConflict) || se.HasErrorLabel(labelTransientTxn)
}

var _ booking.Repository = (*ReservationRepository)(nil)
