package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"livepoll/internal/model"
)

// EnsureIndexes creates the unique indexes the coordinator's invariants
// depend on: one vote per (pollId, studentName), one participant per
// (pollId, name), and at most one poll with status "active". The partial
// index on polls is the store-level sentinel that closes the
// check-then-insert race in CreatePoll.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("votes").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "pollId", Value: 1}, {Key: "studentName", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create votes index: %w", err)
	}

	_, err = db.Collection("participants").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "pollId", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create participants index: %w", err)
	}

	_, err = db.Collection("polls").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"status": model.PollActive}),
	})
	if err != nil {
		return fmt.Errorf("failed to create polls index: %w", err)
	}

	return nil
}
