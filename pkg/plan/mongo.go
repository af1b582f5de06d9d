package plan

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists usage in a MongoDB collection, one document per
// user keyed by _id.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore connects a store to the given MongoDB deployment.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	return &MongoStore{coll: client.Database(database).Collection(collection)}, nil
}

// mongoUpdateRetries bounds the optimistic revision loop under write
// contention on one user's document.
const mongoUpdateRetries = 8

type usageDoc struct {
	ID string `bson:"_id"`
	Usage `bson:",inline"`
	// Revision guards read-modify-write cycles: a replace only matches
	// the revision it read, so concurrent updates retry instead of
	// overwriting each other.
	Revision int64 `bson:"revision"`
}

// Read returns the stored usage, zero for unknown users.
func (s *MongoStore) Read(ctx context.Context, userID string) (Usage, error) {
	var doc usageDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Usage{}, nil
	}
	if err != nil {
		return Usage{}, fmt.Errorf("mongodb find: %w", err)
	}
	return doc.Usage, nil
}

// Write upserts the stored usage.
func (s *MongoStore) Write(ctx context.Context, userID string, u Usage) error {
	doc := usageDoc{ID: userID, Usage: u}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": userID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongodb replace: %w", err)
	}
	return nil
}

// Update applies fn under an optimistic revision check: the replacement
// only matches the document revision that was read, and the cycle
// retries when another writer got there first.
func (s *MongoStore) Update(ctx context.Context, userID string, fn func(*Usage) error) error {
	for i := 0; i < mongoUpdateRetries; i++ {
		var doc usageDoc
		err := s.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
		fresh := errors.Is(err, mongo.ErrNoDocuments)
		if err != nil && !fresh {
			return fmt.Errorf("mongodb find: %w", err)
		}

		u := doc.Usage
		if err := fn(&u); err != nil {
			return err
		}
		next := usageDoc{ID: userID, Usage: u, Revision: doc.Revision + 1}

		if fresh {
			if _, err := s.coll.InsertOne(ctx, next); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					continue // another writer created the document first
				}
				return fmt.Errorf("mongodb insert: %w", err)
			}
			return nil
		}

		res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": userID, "revision": doc.Revision}, next)
		if err != nil {
			return fmt.Errorf("mongodb replace: %w", err)
		}
		if res.MatchedCount == 1 {
			return nil
		}
		// revision moved underneath us, re-read and retry
	}
	return fmt.Errorf("mongodb update for %s: document kept changing under the update", userID)
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.coll.Database().Client().Disconnect(ctx)
}
