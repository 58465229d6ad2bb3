package audit

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Action string

const (
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
	ActionCancel  Action = "CANCEL"
)

// Record is one immutable admin-trail entry. Records are only ever appended.
type Record struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ActorID     primitive.ObjectID `bson:"actor_id" json:"actor_id"`
	Action      Action             `bson:"action" json:"action"`
	EntityType  string             `bson:"entity_type" json:"entity_type"`
	EntityID    string             `bson:"entity_id" json:"entity_id"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Metadata    map[string]any     `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
}
