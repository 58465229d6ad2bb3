package file

import (
	"context"
	"io"

	"go-classhub/internal/common/apperr"
	"go-classhub/internal/features/accesslog"
	"go-classhub/internal/features/storage"
	"go-classhub/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AccessContext carries the request metadata the access log records.
type AccessContext struct {
	Claims    *utils.UserClaims
	IP        string
	UserAgent string
}

type Service interface {
	DownloadPublished(ctx context.Context, fileID primitive.ObjectID, access AccessContext) (io.ReadSeekCloser, *PublishedFile, error)
	Versions(ctx context.Context, fileID primitive.ObjectID) ([]PublishedFile, error)
}

type ServiceImpl struct {
	Repo     Repository
	Storage  storage.AreaManager
	Recorder accesslog.Recorder
	Logger   *zap.Logger
}

func NewService(repo Repository, areas storage.AreaManager, recorder accesslog.Recorder, logger *zap.Logger) Service {
	return &ServiceImpl{
		Repo:     repo,
		Storage:  areas,
		Recorder: recorder,
		Logger:   logger,
	}
}

// DownloadPublished serves a published file. Non-privileged callers only see
// rows that are not deleted and are the current version of their chain;
// older versions stay reachable by id for privileged callers reviewing
// history. Every successful download is recorded asynchronously; a failed
// log entry never fails the download.
func (s *ServiceImpl) DownloadPublished(ctx context.Context, fileID primitive.ObjectID, access AccessContext) (io.ReadSeekCloser, *PublishedFile, error) {
	f, err := s.Repo.FindByID(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}

	privileged := access.Claims != nil && access.Claims.IsAdmin()
	if !privileged && !f.Servable() {
		return nil, nil, apperr.Forbidden("file is not available")
	}

	reader, err := s.Storage.PublishedOpen(f.ClassID.Hex(), f.ObjectKey)
	if err != nil {
		return nil, nil, err
	}

	entry := accesslog.Entry{FileID: f.ID, IP: access.IP, UserAgent: access.UserAgent}
	if access.Claims != nil {
		if uid, err := primitive.ObjectIDFromHex(access.Claims.UserID); err == nil {
			entry.UserID = &uid
		}
	}
	s.Recorder.Record(entry)

	return reader, f, nil
}

// Versions returns the full chain of the document the file belongs to,
// oldest first. Route-level guards restrict it to privileged callers.
func (s *ServiceImpl) Versions(ctx context.Context, fileID primitive.ObjectID) ([]PublishedFile, error) {
	return s.Repo.Chain(ctx, fileID)
}
