package request

import (
	"context"
	"time"

	"go-classhub/internal/common/apperr"
	"go-classhub/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Create(ctx context.Context, req *UploadRequest) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*UploadRequest, error)
	FindPending(ctx context.Context, id primitive.ObjectID) (*UploadRequest, error)
	PendingExists(ctx context.Context, req *UploadRequest) (bool, error)
	MarkApproved(ctx context.Context, id, publishedFileID, adminID primitive.ObjectID) error
	MarkRejected(ctx context.Context, id primitive.ObjectID, reason string, adminID primitive.ObjectID) error
	DeletePendingOwned(ctx context.Context, id, userID primitive.ObjectID) (*UploadRequest, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]UploadRequest, error)
	ListPending(ctx context.Context) ([]UploadRequest, error)
	List(ctx context.Context, limit, offset int64) ([]UploadRequest, error)
	FindByQuarantineKey(ctx context.Context, key string) (*UploadRequest, error)
	EnsureIndexes(ctx context.Context) error
}

type RepositoryImpl struct {
	Collection *mongo.Collection
}

func NewRepository(mongodb *database.MongodbDB) Repository {
	return &RepositoryImpl{
		Collection: mongodb.DB.Collection("upload_requests"),
	}
}

// EnsureIndexes creates the duplicate-pending backstops: at most one pending
// request per (user, class, file name) for new uploads and per
// (user, based_on_file_id) for updates. The application-level check in
// PendingExists is not atomic with the insert, so these indexes are what
// actually decides concurrent submissions.
func (r *RepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "class_id", Value: 1},
				{Key: "file_name", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"status":    StatusPending,
					"is_update": false,
				}),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "based_on_file_id", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"status":           StatusPending,
					"based_on_file_id": bson.M{"$exists": true},
				}),
		},
	})
	return err
}

func (r *RepositoryImpl) Create(ctx context.Context, req *UploadRequest) error {
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	req.Status = StatusPending
	req.SubmittedAt = time.Now()

	_, err := r.Collection.InsertOne(ctx, req)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("a pending request already exists for this target")
		}
		return err
	}
	return nil
}

// PendingExists performs the application-level duplicate check before intake
// writes any bytes. The unique indexes remain the authoritative backstop.
func (r *RepositoryImpl) PendingExists(ctx context.Context, req *UploadRequest) (bool, error) {
	filter := bson.M{
		"user_id": req.UserID,
		"status":  StatusPending,
	}
	if req.BasedOnFileID != nil {
		filter["based_on_file_id"] = *req.BasedOnFileID
	} else {
		filter["class_id"] = req.ClassID
		filter["file_name"] = req.FileName
		filter["is_update"] = false
	}

	count, err := r.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *RepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*UploadRequest, error) {
	var req UploadRequest
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("upload request not found")
		}
		return nil, err
	}
	return &req, nil
}

// FindPending loads the request only while it is still pending; a resolved
// request yields InvalidState so double-processing fails loudly.
func (r *RepositoryImpl) FindPending(ctx context.Context, id primitive.ObjectID) (*UploadRequest, error) {
	req, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, apperr.InvalidState("request is no longer pending")
	}
	return req, nil
}

// MarkApproved flips the request to approved. The filter includes the
// pending status, so of two racing admins exactly one sees a match; the
// loser gets InvalidState.
func (r *RepositoryImpl) MarkApproved(ctx context.Context, id, publishedFileID, adminID primitive.ObjectID) error {
	now := time.Now()
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": StatusPending},
		bson.M{
			"$set": bson.M{
				"status":            StatusApproved,
				"published_file_id": publishedFileID,
				"responded_at":      now,
				"responded_by":      adminID,
			},
			"$unset": bson.M{"quarantine_key": ""},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.InvalidState("request is no longer pending")
	}
	return nil
}

func (r *RepositoryImpl) MarkRejected(ctx context.Context, id primitive.ObjectID, reason string, adminID primitive.ObjectID) error {
	now := time.Now()
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": StatusPending},
		bson.M{
			"$set": bson.M{
				"status":        StatusRejected,
				"reject_reason": reason,
				"responded_at":  now,
				"responded_by":  adminID,
			},
			"$unset": bson.M{"quarantine_key": ""},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.InvalidState("request is no longer pending")
	}
	return nil
}

// DeletePendingOwned removes the row for an owner-initiated cancellation and
// returns the deleted document so the caller can clean up the quarantine
// bytes. Zero matches means the request was resolved (or taken over) first.
func (r *RepositoryImpl) DeletePendingOwned(ctx context.Context, id, userID primitive.ObjectID) (*UploadRequest, error) {
	var req UploadRequest
	err := r.Collection.FindOneAndDelete(ctx, bson.M{
		"_id":     id,
		"user_id": userID,
		"status":  StatusPending,
	}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.InvalidState("request is no longer pending")
		}
		return nil, err
	}
	return &req, nil
}

func (r *RepositoryImpl) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]UploadRequest, error) {
	return r.find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.M{"submitted_at": -1}))
}

func (r *RepositoryImpl) ListPending(ctx context.Context) ([]UploadRequest, error) {
	return r.find(ctx, bson.M{"status": StatusPending}, options.Find().SetSort(bson.M{"submitted_at": 1}))
}

func (r *RepositoryImpl) List(ctx context.Context, limit, offset int64) ([]UploadRequest, error) {
	opts := options.Find().
		SetSort(bson.M{"submitted_at": -1}).
		SetLimit(limit).
		SetSkip(offset)
	return r.find(ctx, bson.M{}, opts)
}

func (r *RepositoryImpl) FindByQuarantineKey(ctx context.Context, key string) (*UploadRequest, error) {
	var req UploadRequest
	err := r.Collection.FindOne(ctx, bson.M{"quarantine_key": key}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("no request references this object")
		}
		return nil, err
	}
	return &req, nil
}

func (r *RepositoryImpl) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]UploadRequest, error) {
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []UploadRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}
