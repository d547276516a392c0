package mongo

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"estatehub/internal/domain/property"
)

var ErrStaleProperty = errors.New("mongo: property version is stale")

type PropertyRepository struct {
	col *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{col: db.Collection("agg_property")}
}

func (r *PropertyRepository) ByID(ctx context.Context, id property.ID) (*property.Property, error) {
	var doc propertyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.Wrapf(property.ErrPropertyNotFound, "id %s", id)
		}
		return nil, errors.Wrapf(err, "mongo: load property %s", id)
	}
	return doc.toAggregate()
}

// Save upserts p when its Version still matches the stored one.
func (r *PropertyRepository) Save(ctx context.Context, p *property.Property) error {
	doc, err := newPropertyDocument(p)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	doc.Version = p.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Wrapf(ErrStaleProperty, "id %s", p.ID)
		}
		return errors.Wrapf(err, "mongo: save property %s", p.ID)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return errors.Wrapf(ErrStaleProperty, "id %s", p.ID)
	}
	p.Version = doc.Version
	return nil
}

var _ property.Repository = (*PropertyRepository)(nil)
