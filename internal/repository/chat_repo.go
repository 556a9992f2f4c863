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

type ChatRepo interface {
	Create(ctx context.Context, message *model.ChatMessage) error
	// ListByPoll returns the poll's chat log ordered by createdAt.
	ListByPoll(ctx context.Context, pollID string) ([]*model.ChatMessage, error)
}

type chatRepo struct {
	collection *mongo.Collection
}

func NewChatRepo(db *mongo.Database) ChatRepo {
	return &chatRepo{
		collection: db.Collection("chat_messages"),
	}
}

func (r *chatRepo) Create(ctx context.Context, message *model.ChatMessage) error {
	if message.ID == "" {
		message.ID = primitive.NewObjectID().Hex()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, message)
	return err
}

func (r *chatRepo) ListByPoll(ctx context.Context, pollID string) ([]*model.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"pollId": pollID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []*model.ChatMessage
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	return messages, nil
}
