package file

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PublishedFile is one version of a logical document. Rows are created only
// by the approval workflow's promote step. All versions of the same document
// share RootFileID (version 1 points at itself); exactly one member of a
// chain has IsCurrent set.
type PublishedFile struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ClassID     primitive.ObjectID `json:"class_id" bson:"class_id"`
	Name        string             `json:"name" bson:"name"`
	MimeType    string             `json:"mime_type" bson:"mime_type"`
	Size        int64              `json:"size" bson:"size"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	ObjectKey   string             `json:"-" bson:"object_key"`

	UploadedBy primitive.ObjectID `json:"uploaded_by" bson:"uploaded_by"`
	ApprovedBy primitive.ObjectID `json:"approved_by" bson:"approved_by"`
	ApprovedAt time.Time          `json:"approved_at" bson:"approved_at"`

	Version       int                 `json:"version" bson:"version"`
	PrevVersionID *primitive.ObjectID `json:"prev_version_id,omitempty" bson:"prev_version_id,omitempty"`
	RootFileID    primitive.ObjectID  `json:"root_file_id" bson:"root_file_id"`
	IsCurrent     bool                `json:"is_current" bson:"is_current"`

	IsDeleted bool                `json:"is_deleted" bson:"is_deleted"`
	DeletedBy *primitive.ObjectID `json:"deleted_by,omitempty" bson:"deleted_by,omitempty"`
	DeletedAt *time.Time          `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
}

// Servable reports whether a non-privileged caller may download this row.
func (f *PublishedFile) Servable() bool {
	return !f.IsDeleted && f.IsCurrent
}
