package request

import (
	"context"
	"io"

	"go-classhub/internal/common/apperr"
	"go-classhub/internal/config"
	"go-classhub/internal/features/class"
	"go-classhub/internal/features/file"
	"go-classhub/internal/features/storage"
	"go-classhub/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// FileFinder is the slice of the published-file repository intake needs to
// validate an update request's predecessor.
type FileFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*file.PublishedFile, error)
}

type SubmitInput struct {
	UserID        primitive.ObjectID
	ClassID       primitive.ObjectID
	FileName      string
	MimeType      string
	Size          int64
	Description   string
	BasedOnFileID *primitive.ObjectID
	Payload       io.Reader
}

type Service interface {
	Submit(ctx context.Context, in SubmitInput) (*UploadRequest, error)
	Cancel(ctx context.Context, requestID, userID primitive.ObjectID) error
	DownloadQuarantined(ctx context.Context, requestID primitive.ObjectID, claims *utils.UserClaims) (io.ReadSeekCloser, *UploadRequest, error)
	ListMine(ctx context.Context, userID primitive.ObjectID) ([]UploadRequest, error)
}

type ServiceImpl struct {
	Repo     Repository
	Registry class.Registry
	Files    FileFinder
	Storage  storage.AreaManager
	Logger   *zap.Logger
	MaxBytes int64
}

func NewService(repo Repository, registry class.Registry, files FileFinder, areas storage.AreaManager, logger *zap.Logger, cfg *config.Config) Service {
	return &ServiceImpl{
		Repo:     repo,
		Registry: registry,
		Files:    files,
		Storage:  areas,
		Logger:   logger,
		MaxBytes: cfg.MaxUploadBytes(),
	}
}

// Submit runs intake: validation, duplicate pre-check, quarantine write,
// then the row insert. The bytes are written before the row so a failed
// write can never leave a request pointing at nothing; if the insert fails
// the just-written bytes are removed best-effort.
func (s *ServiceImpl) Submit(ctx context.Context, in SubmitInput) (*UploadRequest, error) {
	if in.FileName == "" {
		return nil, apperr.Validation("file name is required")
	}
	if in.Size <= 0 {
		return nil, apperr.Validation("empty payload")
	}
	if in.Size > s.MaxBytes {
		return nil, apperr.PayloadTooLarge("payload exceeds the upload limit")
	}

	classID := in.ClassID
	if in.BasedOnFileID != nil {
		prev, err := s.Files.FindByID(ctx, *in.BasedOnFileID)
		if err != nil {
			return nil, err
		}
		if prev.IsDeleted {
			return nil, apperr.InvalidState("file has been deleted")
		}
		if !prev.IsCurrent {
			return nil, apperr.InvalidState("file is not the current version")
		}
		// Updates always target the predecessor's class.
		classID = prev.ClassID
	}

	info, err := s.Registry.Lookup(ctx, classID)
	if err != nil {
		return nil, err
	}
	if !info.IsActive {
		return nil, apperr.Validation("class is not active")
	}
	if !info.Allows(in.MimeType) {
		return nil, apperr.Validation("file type not allowed for this class: " + in.MimeType)
	}

	req := &UploadRequest{
		ClassID:       classID,
		UserID:        in.UserID,
		FileName:      in.FileName,
		MimeType:      in.MimeType,
		Description:   in.Description,
		IsUpdate:      in.BasedOnFileID != nil,
		BasedOnFileID: in.BasedOnFileID,
	}

	// Pre-check before any bytes hit the disk. The unique indexes still
	// decide the race between two concurrent submissions.
	exists, err := s.Repo.PendingExists(ctx, req)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("you already have a pending request for this target")
	}

	objectKey, written, err := s.Storage.QuarantinePut(in.Payload, in.FileName)
	if err != nil {
		return nil, err
	}
	if written == 0 {
		s.cleanupQuarantine(objectKey)
		return nil, apperr.Validation("empty payload")
	}
	if written > s.MaxBytes {
		s.cleanupQuarantine(objectKey)
		return nil, apperr.PayloadTooLarge("payload exceeds the upload limit")
	}

	req.Size = written
	req.QuarantineKey = objectKey

	if err := s.Repo.Create(ctx, req); err != nil {
		s.cleanupQuarantine(objectKey)
		return nil, err
	}

	s.Logger.Info("upload request submitted",
		zap.String("request_id", req.ID.Hex()),
		zap.String("user_id", in.UserID.Hex()),
		zap.String("class_id", classID.Hex()),
		zap.Bool("is_update", req.IsUpdate))

	return req, nil
}

// Cancel deletes the row while the request is still pending. Only the
// requester may cancel. Disk cleanup is best-effort: the cancellation
// stands even when the quarantine delete fails.
func (s *ServiceImpl) Cancel(ctx context.Context, requestID, userID primitive.ObjectID) error {
	req, err := s.Repo.FindByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.UserID != userID {
		return apperr.Forbidden("only the requester may cancel an upload request")
	}
	if req.Status != StatusPending {
		return apperr.InvalidState("request is no longer pending")
	}

	deleted, err := s.Repo.DeletePendingOwned(ctx, requestID, userID)
	if err != nil {
		return err
	}

	if deleted.QuarantineKey != "" {
		if err := s.Storage.QuarantineDelete(deleted.QuarantineKey); err != nil {
			s.Logger.Warn("removing quarantine bytes after cancel",
				zap.String("request_id", requestID.Hex()),
				zap.Error(err))
		}
	}

	s.Logger.Info("upload request cancelled",
		zap.String("request_id", requestID.Hex()),
		zap.String("user_id", userID.Hex()))

	return nil
}

// DownloadQuarantined serves the candidate bytes while the request is still
// pending, to the owner or a privileged caller. Once resolved the object may
// already be moved or deleted, so the pending check runs first and a stale
// read is never attempted.
func (s *ServiceImpl) DownloadQuarantined(ctx context.Context, requestID primitive.ObjectID, claims *utils.UserClaims) (io.ReadSeekCloser, *UploadRequest, error) {
	if claims == nil {
		return nil, nil, apperr.Forbidden("authentication required")
	}

	req, err := s.Repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if req.Status != StatusPending {
		return nil, nil, apperr.InvalidState("request is no longer pending")
	}
	if req.UserID.Hex() != claims.UserID && !claims.IsAdmin() {
		return nil, nil, apperr.Forbidden("not permitted to view this upload")
	}
	if req.QuarantineKey == "" {
		return nil, nil, apperr.NotFound("quarantine object not found")
	}

	f, err := s.Storage.QuarantineOpen(req.QuarantineKey)
	if err != nil {
		return nil, nil, err
	}
	return f, req, nil
}

func (s *ServiceImpl) ListMine(ctx context.Context, userID primitive.ObjectID) ([]UploadRequest, error) {
	return s.Repo.ListByUser(ctx, userID)
}

func (s *ServiceImpl) cleanupQuarantine(objectKey string) {
	if err := s.Storage.QuarantineDelete(objectKey); err != nil {
		s.Logger.Warn("removing quarantine bytes after failed intake",
			zap.String("object_key", objectKey),
			zap.Error(err))
	}
}
