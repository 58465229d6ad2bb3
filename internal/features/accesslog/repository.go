package accesslog

import (
	"context"
	"time"

	"go-classhub/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
	ListByFile(ctx context.Context, fileID primitive.ObjectID, limit, offset int64) ([]Entry, error)
}

type RepositoryImpl struct {
	Collection *mongo.Collection
}

func NewRepository(mongodb *database.MongodbDB) Repository {
	return &RepositoryImpl{
		Collection: mongodb.DB.Collection("access_logs"),
	}
}

func (r *RepositoryImpl) Insert(ctx context.Context, entry *Entry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	_, err := r.Collection.InsertOne(ctx, entry)
	return err
}

func (r *RepositoryImpl) ListByFile(ctx context.Context, fileID primitive.ObjectID, limit, offset int64) ([]Entry, error) {
	opts := options.Find().
		SetSort(bson.M{"timestamp": -1}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := r.Collection.Find(ctx, bson.M{"file_id": fileID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
