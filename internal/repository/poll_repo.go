package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"livepoll/internal/model"
)

type PollRepo interface {
	Create(ctx context.Context, poll *model.Poll) error
	GetByID(ctx context.Context, id string) (*model.Poll, error)
	FindActive(ctx context.Context) (*model.Poll, error)
	// Complete transitions the poll to completed and reports whether this
	// call performed the transition. A poll that is already completed
	// matches nothing and returns false, which makes the operation
	// idempotent for callers.
	Complete(ctx context.Context, id string) (bool, error)
	// ListAll returns every poll ordered by createdAt descending.
	ListAll(ctx context.Context) ([]*model.Poll, error)
}

type pollRepo struct {
	collection *mongo.Collection
}

func NewPollRepo(db *mongo.Database) PollRepo {
	return &pollRepo{
		collection: db.Collection("polls"),
	}
}

func (r *pollRepo) Create(ctx context.Context, poll *model.Poll) error {
	if poll.ID == "" {
		poll.ID = primitive.NewObjectID().Hex()
	}

	_, err := r.collection.InsertOne(ctx, poll)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Partial unique index: another active poll already exists.
			return ErrDuplicate
		}
		return err
	}

	return nil
}

func (r *pollRepo) GetByID(ctx context.Context, id string) (*model.Poll, error) {
	var poll model.Poll
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&poll)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &poll, nil
}

func (r *pollRepo) FindActive(ctx context.Context) (*model.Poll, error) {
	var poll model.Poll
	err := r.collection.FindOne(ctx, bson.M{"status": model.PollActive}).Decode(&poll)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &poll, nil
}

func (r *pollRepo) Complete(ctx context.Context, id string) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": model.PollActive},
		bson.M{"$set": bson.M{"status": model.PollCompleted}},
	)
	if err != nil {
		return false, err
	}

	return result.ModifiedCount == 1, nil
}

func (r *pollRepo) ListAll(ctx context.Context) ([]*model.Poll, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var polls []*model.Poll
	if err = cursor.All(ctx, &polls); err != nil {
		return nil, err
	}

	return polls, nil
}
