package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Sink wraps every approve/reject/cancel decision. A failed audit write is
// logged but never fails the decision it describes.
type Sink interface {
	Record(ctx context.Context, actorID primitive.ObjectID, action Action, entityType, entityID, description string, metadata map[string]any)
	ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]Record, error)
}

type SinkImpl struct {
	Repo   Repository
	Logger *zap.Logger
}

func NewSink(repo Repository, logger *zap.Logger) Sink {
	return &SinkImpl{
		Repo:   repo,
		Logger: logger,
	}
}

func (s *SinkImpl) Record(ctx context.Context, actorID primitive.ObjectID, action Action, entityType, entityID, description string, metadata map[string]any) {
	record := Record{
		ID:          primitive.NewObjectID(),
		ActorID:     actorID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
		Metadata:    metadata,
		Timestamp:   time.Now(),
	}

	if err := s.Repo.Create(ctx, record); err != nil {
		s.Logger.Error("writing audit record",
			zap.String("action", string(action)),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

func (s *SinkImpl) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]Record, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit
	return s.Repo.List(ctx, filters, limit, offset)
}
