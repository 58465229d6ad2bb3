package file

import (
	"context"

	"go-classhub/internal/common/apperr"
	"go-classhub/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Insert(ctx context.Context, f *PublishedFile) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*PublishedFile, error)
	Demote(ctx context.Context, id primitive.ObjectID) error
	Chain(ctx context.Context, id primitive.ObjectID) ([]PublishedFile, error)
	ExistsByObjectKey(ctx context.Context, classID, objectKey string) (bool, error)
}

type RepositoryImpl struct {
	Collection *mongo.Collection
}

func NewRepository(mongodb *database.MongodbDB) Repository {
	return &RepositoryImpl{
		Collection: mongodb.DB.Collection("files"),
	}
}

func (r *RepositoryImpl) Insert(ctx context.Context, f *PublishedFile) error {
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	// Version 1 roots its own chain.
	if f.RootFileID.IsZero() {
		f.RootFileID = f.ID
	}
	_, err := r.Collection.InsertOne(ctx, f)
	return err
}

func (r *RepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*PublishedFile, error) {
	var f PublishedFile
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&f)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("file not found")
		}
		return nil, err
	}
	return &f, nil
}

// Demote flips is_current off on the immediate predecessor when a successor
// is promoted. The conditional filter guards against a double-demote: only
// one call can observe is_current=true.
func (r *RepositoryImpl) Demote(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "is_current": true},
		bson.M{"$set": bson.M{"is_current": false}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.InvalidState("file is not the current version")
	}
	return nil
}

// Chain returns every version sharing the given file's root, ordered by
// version number ascending.
func (r *RepositoryImpl) Chain(ctx context.Context, id primitive.ObjectID) ([]PublishedFile, error) {
	f, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.M{"version": 1})
	cursor, err := r.Collection.Find(ctx, bson.M{"root_file_id": f.RootFileID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var chain []PublishedFile
	if err := cursor.All(ctx, &chain); err != nil {
		return nil, err
	}
	return chain, nil
}

func (r *RepositoryImpl) ExistsByObjectKey(ctx context.Context, classID, objectKey string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(classID)
	filter := bson.M{"object_key": objectKey}
	if err == nil {
		filter["class_id"] = oid
	}
	count, err := r.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
