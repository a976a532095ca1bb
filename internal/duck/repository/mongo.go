package repository

import (
	"context"
	"errors"

	"github.com/pikecape/duck-service/internal/duck"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Repository on a MongoDB collection. Identifiers are
// strings generated by the repository, so documents are addressed by their
// string _id rather than an ObjectID.
type MongoRepo struct {
	col   *mongo.Collection
	newID IDGenerator
}

// NewMongoRepo wraps an already connected collection.
func NewMongoRepo(col *mongo.Collection, opts ...Option) *MongoRepo {
	o := buildOptions(opts)
	return &MongoRepo{col: col, newID: o.newID}
}

func byID(uid string) bson.D {
	return bson.D{{Key: duck.IDField, Value: uid}}
}

func (m *MongoRepo) FindAll(ctx context.Context) ([]duck.Duck, error) {
	opts := options.Find().SetSort(bson.D{{Key: duck.IDField, Value: 1}})
	cur, err := m.col.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, duck.StoreError(duck.ActionFetchAll, err)
	}
	out := []duck.Duck{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, duck.StoreError(duck.ActionFetchAll, err)
	}
	return out, nil
}

func (m *MongoRepo) FindByUID(ctx context.Context, uid string) (duck.Duck, error) {
	if err := duck.CheckID(uid); err != nil {
		return nil, duck.StoreError(duck.ActionFetch, err)
	}
	d, err := m.findOne(ctx, uid)
	if err != nil {
		return nil, duck.StoreError(duck.ActionFetch, err)
	}
	return d, nil
}

// findOne returns (nil, nil) when no document matches.
func (m *MongoRepo) findOne(ctx context.Context, uid string) (duck.Duck, error) {
	var d duck.Duck
	if err := m.col.FindOne(ctx, byID(uid)).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

func (m *MongoRepo) Create(ctx context.Context, fields duck.Fields) (duck.Duck, error) {
	doc := newDocument(m.newID(), fields)
	if _, err := m.col.InsertOne(ctx, doc); err != nil {
		if errors.Is(err, mongo.ErrUnacknowledgedWrite) {
			return nil, duck.StoreError(duck.ActionCreate, duck.ErrNotAcknowledged)
		}
		return nil, duck.StoreError(duck.ActionCreate, err)
	}
	created, err := m.findOne(ctx, doc.ID())
	if err != nil {
		return nil, duck.StoreError(duck.ActionCreate, err)
	}
	if created == nil {
		return nil, duck.StoreError(duck.ActionCreate, errors.New("created document could not be read back"))
	}
	return created, nil
}

func (m *MongoRepo) Update(ctx context.Context, uid string, fields duck.Fields) (*duck.UpdateResult, error) {
	if err := duck.CheckID(uid); err != nil {
		return nil, duck.StoreError(duck.ActionUpdate, err)
	}
	set := fields.WithoutID()
	if len(set) == 0 {
		return nil, duck.StoreError(duck.ActionUpdate, duck.ErrNoFields)
	}
	res, err := m.col.UpdateOne(ctx, byID(uid), bson.D{{Key: "$set", Value: set}})
	if err != nil {
		if errors.Is(err, mongo.ErrUnacknowledgedWrite) {
			return &duck.UpdateResult{Acknowledged: false}, nil
		}
		return nil, duck.StoreError(duck.ActionUpdate, err)
	}
	return &duck.UpdateResult{Acknowledged: true, MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

func (m *MongoRepo) DeleteByUID(ctx context.Context, uid string) (*duck.DeleteResult, error) {
	if err := duck.CheckID(uid); err != nil {
		return nil, duck.StoreError(duck.ActionDelete, err)
	}
	res, err := m.col.DeleteOne(ctx, byID(uid))
	if err != nil {
		if errors.Is(err, mongo.ErrUnacknowledgedWrite) {
			return &duck.DeleteResult{Acknowledged: false}, nil
		}
		return nil, duck.StoreError(duck.ActionDelete, err)
	}
	return &duck.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}
