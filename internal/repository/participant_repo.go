package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"livepoll/internal/model"
)

type ParticipantRepo interface {
	// Upsert inserts the participant row keyed by (pollId, name) or
	// returns the existing one unchanged. A repeat join is a no-op, not a
	// uniqueness error.
	Upsert(ctx context.Context, pollID, name string) (*model.Participant, error)
	// ListByPoll returns active and kicked participants ordered by joinedAt.
	ListByPoll(ctx context.Context, pollID string) ([]*model.Participant, error)
	SetStatus(ctx context.Context, pollID, name string, status model.ParticipantStatus) error
}

type participantRepo struct {
	collection *mongo.Collection
}

func NewParticipantRepo(db *mongo.Database) ParticipantRepo {
	return &participantRepo{
		collection: db.Collection("participants"),
	}
}

func (r *participantRepo) Upsert(ctx context.Context, pollID, name string) (*model.Participant, error) {
	filter := bson.M{"pollId": pollID, "name": name}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":      primitive.NewObjectID().Hex(),
		"pollId":   pollID,
		"name":     name,
		"status":   model.ParticipantActive,
		"joinedAt": time.Now(),
	}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var participant model.Participant
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&participant)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Two concurrent first joins raced on the unique index.
			return nil, ErrDuplicate
		}
		return nil, err
	}

	return &participant, nil
}

func (r *participantRepo) ListByPoll(ctx context.Context, pollID string) ([]*model.Participant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joinedAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"pollId": pollID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var participants []*model.Participant
	if err = cursor.All(ctx, &participants); err != nil {
		return nil, err
	}

	return participants, nil
}

func (r *participantRepo) SetStatus(ctx context.Context, pollID, name string, status model.ParticipantStatus) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"pollId": pollID, "name": name},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}
