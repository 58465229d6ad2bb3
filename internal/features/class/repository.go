package class

import (
	"context"

	"go-classhub/internal/common/apperr"
	"go-classhub/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Registry is the narrow contract intake consumes. The rest of the class
// entity belongs to the surrounding portal.
type Registry interface {
	Lookup(ctx context.Context, classID primitive.ObjectID) (*Info, error)
}

type RegistryImpl struct {
	Collection *mongo.Collection
}

func NewRegistry(mongodb *database.MongodbDB) Registry {
	return &RegistryImpl{
		Collection: mongodb.DB.Collection("classes"),
	}
}

func (r *RegistryImpl) Lookup(ctx context.Context, classID primitive.ObjectID) (*Info, error) {
	var cls Class
	err := r.Collection.FindOne(ctx, bson.M{"_id": classID}).Decode(&cls)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("class not found")
		}
		return nil, err
	}
	return &Info{
		Name:             cls.Name,
		IsActive:         cls.IsActive,
		AllowedFileTypes: cls.AllowedFileTypes,
	}, nil
}
