package request

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// UploadRequest is a candidate file awaiting review. Bytes live in the
// quarantine area under QuarantineKey while the request is pending; the key
// is cleared when the request leaves the pending state.
type UploadRequest struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ClassID     primitive.ObjectID `json:"class_id" bson:"class_id"`
	UserID      primitive.ObjectID `json:"user_id" bson:"user_id"`
	FileName    string             `json:"file_name" bson:"file_name"`
	MimeType    string             `json:"mime_type" bson:"mime_type"`
	Size        int64              `json:"size" bson:"size"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Status      Status             `json:"status" bson:"status"`

	// IsUpdate mirrors the presence of BasedOnFileID. It exists as a real
	// field because the duplicate-pending backstop index needs a partial
	// filter it can match on.
	IsUpdate      bool                `json:"is_update" bson:"is_update"`
	BasedOnFileID *primitive.ObjectID `json:"based_on_file_id,omitempty" bson:"based_on_file_id,omitempty"`

	QuarantineKey   string              `json:"-" bson:"quarantine_key,omitempty"`
	PublishedFileID *primitive.ObjectID `json:"published_file_id,omitempty" bson:"published_file_id,omitempty"`

	SubmittedAt  time.Time           `json:"submitted_at" bson:"submitted_at"`
	RespondedAt  *time.Time          `json:"responded_at,omitempty" bson:"responded_at,omitempty"`
	RespondedBy  *primitive.ObjectID `json:"responded_by,omitempty" bson:"responded_by,omitempty"`
	RejectReason string              `json:"reject_reason,omitempty" bson:"reject_reason,omitempty"`
}

// ReviewItem is the projection the admin review screen consumes. Joined
// fields are optional by contract; absence means the join did not resolve,
// not an error.
type ReviewItem struct {
	UploadRequest
	ClassName string `json:"class_name,omitempty"`
}
