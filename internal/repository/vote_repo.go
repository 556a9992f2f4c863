package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"livepoll/internal/model"
)

type VoteRepo interface {
	// Create persists a vote. The compound unique index on
	// (pollId, studentName) rejects a second vote by the same identity;
	// that rejection surfaces as ErrDuplicate.
	Create(ctx context.Context, vote *model.Vote) error
	// CountByOption groups the poll's votes by selected option and also
	// returns the total vote count.
	CountByOption(ctx context.Context, pollID string) (map[string]int, int, error)
}

type voteRepo struct {
	collection *mongo.Collection
}

func NewVoteRepo(db *mongo.Database) VoteRepo {
	return &voteRepo{
		collection: db.Collection("votes"),
	}
}

func (r *voteRepo) Create(ctx context.Context, vote *model.Vote) error {
	if vote.ID == "" {
		vote.ID = primitive.NewObjectID().Hex()
	}
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, vote)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}

	return nil
}

func (r *voteRepo) CountByOption(ctx context.Context, pollID string) (map[string]int, int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"pollId": pollID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$selectedOption",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var groups []struct {
		OptionID string `bson:"_id"`
		Count    int    `bson:"count"`
	}
	if err = cursor.All(ctx, &groups); err != nil {
		return nil, 0, err
	}

	counts := make(map[string]int, len(groups))
	total := 0
	for _, g := range groups {
		counts[g.OptionID] = g.Count
		total += g.Count
	}

	return counts, total, nil
}
