package notification

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationTypeFileApproved NotificationType = "file_approved"
	NotificationTypeFileRejected NotificationType = "file_rejected"
	NotificationTypeFileUploaded NotificationType = "file_uploaded"
)

type Notification struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	Title       string             `bson:"title" json:"title"`
	Message     string             `bson:"message" json:"message"`
	Type        NotificationType   `bson:"type" json:"type"`
	ActionURL   string             `bson:"action_url,omitempty" json:"action_url,omitempty"`
	ActionLabel string             `bson:"action_label,omitempty" json:"action_label,omitempty"`
	IsRead      bool               `bson:"is_read" json:"is_read"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	ExpiresAt   *time.Time         `bson:"expires_at,omitempty" json:"expires_at,omitempty"`

	// RelatedType/RelatedID point at the entity the notification announces.
	RelatedType string              `bson:"related_type,omitempty" json:"related_type,omitempty"`
	RelatedID   *primitive.ObjectID `bson:"related_id,omitempty" json:"related_id,omitempty"`
}
