package audit

import (
	"context"

	"go-classhub/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Create(ctx context.Context, record Record) error
	List(ctx context.Context, filters map[string]interface{}, limit, offset int64) ([]Record, error)
}

type RepositoryImpl struct {
	Collection *mongo.Collection
}

func NewRepository(mongodb *database.MongodbDB) Repository {
	return &RepositoryImpl{
		Collection: mongodb.DB.Collection("audit_logs"),
	}
}

func (r *RepositoryImpl) Create(ctx context.Context, record Record) error {
	_, err := r.Collection.InsertOne(ctx, record)
	return err
}

func (r *RepositoryImpl) List(ctx context.Context, filters map[string]interface{}, limit, offset int64) ([]Record, error) {
	opts := options.Find().SetLimit(limit).SetSkip(offset).SetSort(bson.M{"timestamp": -1})

	query := bson.M{}
	for k, v := range filters {
		if v == nil {
			continue
		}
		if str, ok := v.(string); ok && str == "" {
			continue
		}
		query[k] = v
	}

	cursor, err := r.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	var records []Record
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
