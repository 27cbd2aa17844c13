package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompoundActivityDefinition is the stored definition a compound activity
// reference resolves against, keyed by task identifier within a study.
type CompoundActivityDefinition struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	TaskID           string             `bson:"taskId" json:"taskId"`
	CompoundActivity CompoundActivity   `bson:"compoundActivity" json:"compoundActivity"`
	ModifiedAt       int64              `bson:"modifiedAt,omitempty" json:"modifiedAt,omitempty"`
}

// UploadSchema is one revision of an upload schema. Min/MaxAppVersion limit
// which client versions a revision is visible to.
type UploadSchema struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SchemaID      string             `bson:"schemaId" json:"schemaId"`
	Revision      int64              `bson:"revision" json:"revision"`
	Name          string             `bson:"name,omitempty" json:"name,omitempty"`
	MinAppVersion *int               `bson:"minAppVersion,omitempty" json:"minAppVersion,omitempty"`
	MaxAppVersion *int               `bson:"maxAppVersion,omitempty" json:"maxAppVersion,omitempty"`
	CreatedAt     int64              `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// Survey is one published version of a survey; the GUID stays constant
// across versions, CreatedOn identifies the exact version.
type Survey struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	GUID       string             `bson:"guid" json:"guid"`
	Identifier string             `bson:"identifier,omitempty" json:"identifier,omitempty"`
	CreatedOn  time.Time          `bson:"createdOn" json:"createdOn"`
	Published  bool               `bson:"published" json:"published"`
}
