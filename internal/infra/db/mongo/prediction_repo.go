package mongo

import (
	"context"

	"github.com/rotisserie/eris"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domain "github.com/bryanwahyu/heart-risk/internal/domain/predictions"
)

// PredictionRepository stores prediction records as documents.
type PredictionRepository struct {
	coll *mongo.Collection
}

func NewPredictionRepository(coll *mongo.Collection) *PredictionRepository {
	return &PredictionRepository{coll: coll}
}

// EnsureIndexes creates the {user_id: 1, timestamp: -1} index history
// lookups rely on. Creating an existing index is a no-op.
func (r *PredictionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("user_id_timestamp"),
	})
	return eris.Wrap(err, "mongo: create index")
}

func (r *PredictionRepository) Save(ctx context.Context, rec *domain.Record) error {
	doc := *rec
	doc.Timestamp = rec.Timestamp.UTC()
	if doc.TopFeatures == nil {
		doc.TopFeatures = []domain.FeatureImportance{}
	}
	_, err := r.coll.InsertOne(ctx, doc)
	return eris.Wrap(err, "mongo: insert prediction")
}

// Recent returns up to limit records for userID, newest first, without
// the store-assigned _id.
func (r *PredictionRepository) Recent(ctx context.Context, userID string, limit int) ([]*domain.Record, error) {
	if limit <= 0 {
		limit = domain.HistoryLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.D{{Key: "_id", Value: 0}})

	cur, err := r.coll.Find(ctx, bson.D{{Key: "user_id", Value: userID}}, opts)
	if err != nil {
		return nil, eris.Wrap(err, "mongo: find predictions")
	}
	defer cur.Close(ctx) //nolint:errcheck

	out := []*domain.Record{}
	for cur.Next(ctx) {
		var rec domain.Record
		if err := cur.Decode(&rec); err != nil {
			return nil, eris.Wrap(err, "mongo: decode prediction")
		}
		rec.Timestamp = rec.Timestamp.UTC()
		if rec.TopFeatures == nil {
			rec.TopFeatures = []domain.FeatureImportance{}
		}
		out = append(out, &rec)
	}
	return out, eris.Wrap(cur.Err(), "mongo: iterate predictions")
}
