package approval

import (
	"context"
	"strings"
	"time"

	"go-classhub/internal/common/apperr"
	"go-classhub/internal/database"
	"go-classhub/internal/features/file"
	"go-classhub/internal/features/notification"
	"go-classhub/internal/features/request"
	"go-classhub/internal/features/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// notificationTTL bounds how long a decision notice stays around.
const notificationTTL = 30 * 24 * time.Hour

// Service is the state machine over upload requests:
// pending -> approved | rejected (terminal). Cancellation lives with the
// request feature because it is requester-initiated; everything here is an
// admin decision.
type Service interface {
	Approve(ctx context.Context, requestID, adminID primitive.ObjectID) (primitive.ObjectID, error)
	Reject(ctx context.Context, requestID, adminID primitive.ObjectID, reason string) error
}

type ServiceImpl struct {
	Requests      request.Repository
	Files         file.Repository
	Notifications notification.Repository
	Storage       storage.AreaManager
	Tx            database.TxRunner
	Logger        *zap.Logger
}

func NewService(
	requests request.Repository,
	files file.Repository,
	notifications notification.Repository,
	areas storage.AreaManager,
	tx database.TxRunner,
	logger *zap.Logger,
) Service {
	return &ServiceImpl{
		Requests:      requests,
		Files:         files,
		Notifications: notifications,
		Storage:       areas,
		Tx:            tx,
		Logger:        logger,
	}
}

// Approve promotes a pending request into a new published file version.
//
// The filesystem move runs before the transaction opens so the transaction
// never waits on disk. The move targets a deterministic key, so if the
// commit fails the request stays pending and a retried approval finds the
// already-promoted object and proceeds. Inside one transaction: insert the
// version row, demote the predecessor, flip the request to approved, insert
// the notification. The request update is conditional on pending status, so
// of two racing admins exactly one commits; the loser gets InvalidState and
// no duplicate version or notification is ever produced.
func (s *ServiceImpl) Approve(ctx context.Context, requestID, adminID primitive.ObjectID) (primitive.ObjectID, error) {
	req, err := s.Requests.FindPending(ctx, requestID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if req.QuarantineKey == "" {
		// Unreachable while the pending invariant holds.
		return primitive.NilObjectID, apperr.InvalidState("request has no quarantined payload")
	}

	version := 1
	var prev *file.PublishedFile
	if req.BasedOnFileID != nil {
		prev, err = s.Files.FindByID(ctx, *req.BasedOnFileID)
		if err != nil {
			return primitive.NilObjectID, err
		}
		if !prev.IsCurrent {
			return primitive.NilObjectID, apperr.InvalidState("predecessor is no longer the current version")
		}
		version = prev.Version + 1
	}

	publishedKey, err := s.Storage.Promote(req.QuarantineKey, req.ClassID.Hex())
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			// The candidate bytes vanished from disk. Nothing is mutated:
			// the request stays pending for a retry or a manual reject.
			return primitive.NilObjectID, apperr.StorageInconsistency("quarantine object missing for pending request", err)
		}
		return primitive.NilObjectID, err
	}

	now := time.Now()
	newFile := &file.PublishedFile{
		ID:          primitive.NewObjectID(),
		ClassID:     req.ClassID,
		Name:        req.FileName,
		MimeType:    req.MimeType,
		Size:        req.Size,
		Description: req.Description,
		ObjectKey:   publishedKey,
		UploadedBy:  req.UserID,
		ApprovedBy:  adminID,
		ApprovedAt:  now,
		Version:     version,
		IsCurrent:   true,
	}
	if prev != nil {
		prevID := prev.ID
		newFile.PrevVersionID = &prevID
		newFile.RootFileID = prev.RootFileID
	}

	err = s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.Files.Insert(txCtx, newFile); err != nil {
			return err
		}
		if prev != nil {
			if err := s.Files.Demote(txCtx, prev.ID); err != nil {
				return err
			}
		}
		if err := s.Requests.MarkApproved(txCtx, req.ID, newFile.ID, adminID); err != nil {
			return err
		}
		return s.Notifications.Create(txCtx, approvedNotification(req, newFile))
	})
	if err != nil {
		// The bytes already moved but the database did not commit. The
		// request is still pending and retryable; the promoted object is
		// reported for operator reconciliation.
		s.Logger.Error("approval transaction failed after promote",
			zap.String("request_id", req.ID.Hex()),
			zap.String("object_key", publishedKey),
			zap.String("class_id", req.ClassID.Hex()),
			zap.Error(apperr.StorageInconsistency("promoted object without database record", err)))
		return primitive.NilObjectID, err
	}

	s.Logger.Info("upload request approved",
		zap.String("request_id", req.ID.Hex()),
		zap.String("file_id", newFile.ID.Hex()),
		zap.Int("version", version),
		zap.String("admin_id", adminID.Hex()))

	return newFile.ID, nil
}

// Reject discards a pending request. The quarantine delete is best-effort:
// a failed disk cleanup is logged and the rejection still commits.
func (s *ServiceImpl) Reject(ctx context.Context, requestID, adminID primitive.ObjectID, reason string) error {
	req, err := s.Requests.FindPending(ctx, requestID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(reason) == "" {
		return apperr.Validation("a rejection reason is required")
	}

	if req.QuarantineKey != "" {
		if err := s.Storage.QuarantineDelete(req.QuarantineKey); err != nil {
			s.Logger.Warn("removing quarantine bytes after reject",
				zap.String("request_id", req.ID.Hex()),
				zap.Error(err))
		}
	}

	err = s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.Requests.MarkRejected(txCtx, req.ID, reason, adminID); err != nil {
			return err
		}
		return s.Notifications.Create(txCtx, rejectedNotification(req, reason))
	})
	if err != nil {
		return err
	}

	s.Logger.Info("upload request rejected",
		zap.String("request_id", req.ID.Hex()),
		zap.String("admin_id", adminID.Hex()))

	return nil
}

func approvedNotification(req *request.UploadRequest, f *file.PublishedFile) *notification.Notification {
	expires := f.ApprovedAt.Add(notificationTTL)
	fileID := f.ID
	return &notification.Notification{
		UserID:      req.UserID,
		Title:       "Upload approved",
		Message:     "Your file \"" + req.FileName + "\" has been approved and published.",
		Type:        notification.NotificationTypeFileApproved,
		ActionURL:   "/files/" + f.ID.Hex(),
		ActionLabel: "View file",
		ExpiresAt:   &expires,
		RelatedType: "file",
		RelatedID:   &fileID,
	}
}

func rejectedNotification(req *request.UploadRequest, reason string) *notification.Notification {
	expires := time.Now().Add(notificationTTL)
	reqID := req.ID
	return &notification.Notification{
		UserID:      req.UserID,
		Title:       "Upload rejected",
		Message:     "Your file \"" + req.FileName + "\" was rejected: " + reason,
		Type:        notification.NotificationTypeFileRejected,
		ExpiresAt:   &expires,
		RelatedType: "upload_request",
		RelatedID:   &reqID,
	}
}
