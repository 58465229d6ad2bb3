package class

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Class is the slice of the portal's class entity this subsystem reads.
// The CRUD surface for classes lives outside this core.
type Class struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name             string             `json:"name" bson:"name"`
	IsActive         bool               `json:"is_active" bson:"is_active"`
	AllowedFileTypes []string           `json:"allowed_file_types" bson:"allowed_file_types"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
}

// Info is the projection intake validates against.
type Info struct {
	Name             string
	IsActive         bool
	AllowedFileTypes []string
}

// Allows reports whether the declared type is acceptable for this class.
// An empty allow-list means every type is accepted.
func (i *Info) Allows(declaredType string) bool {
	if len(i.AllowedFileTypes) == 0 {
		return true
	}
	for _, t := range i.AllowedFileTypes {
		if t == declaredType {
			return true
		}
	}
	return false
}
