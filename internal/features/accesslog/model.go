package accesslog

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Entry is one download of a published file. Anonymous access is permitted,
// so the user id is optional. Entries are append-only.
type Entry struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FileID    primitive.ObjectID  `bson:"file_id" json:"file_id"`
	UserID    *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	IP        string              `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent string              `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	Timestamp time.Time           `bson:"timestamp" json:"timestamp"`
}
