package types

import "time"

// SchemaReference points at an upload schema. While Revision is unset the
// reference is unresolved and the latest revision visible to the client
// has to be looked up.
type SchemaReference struct {
	ID       string `bson:"id" json:"id"`
	Revision *int64 `bson:"revision,omitempty" json:"revision,omitempty"`
}

func (r SchemaReference) IsResolved() bool {
	return r.Revision != nil
}

func (r SchemaReference) Equal(other SchemaReference) bool {
	if r.ID != other.ID {
		return false
	}
	if (r.Revision == nil) != (other.Revision == nil) {
		return false
	}
	return r.Revision == nil || *r.Revision == *other.Revision
}

// SurveyReference points at a survey version. While CreatedOn is unset the
// reference is unresolved and the most recently published version has to
// be looked up.
type SurveyReference struct {
	Identifier string     `bson:"identifier,omitempty" json:"identifier,omitempty"`
	GUID       string     `bson:"guid" json:"guid"`
	CreatedOn  *time.Time `bson:"createdOn,omitempty" json:"createdOn,omitempty"`
}

func (r SurveyReference) IsResolved() bool {
	return r.CreatedOn != nil
}

func (r SurveyReference) Equal(other SurveyReference) bool {
	if r.Identifier != other.Identifier || r.GUID != other.GUID {
		return false
	}
	if (r.CreatedOn == nil) != (other.CreatedOn == nil) {
		return false
	}
	return r.CreatedOn == nil || r.CreatedOn.Equal(*other.CreatedOn)
}

type TaskReference struct {
	Identifier string           `bson:"identifier" json:"identifier"`
	Schema     *SchemaReference `bson:"schema,omitempty" json:"schema,omitempty"`
}

func (r TaskReference) Equal(other TaskReference) bool {
	if r.Identifier != other.Identifier {
		return false
	}
	if (r.Schema == nil) != (other.Schema == nil) {
		return false
	}
	return r.Schema == nil || r.Schema.Equal(*other.Schema)
}

// CompoundActivity groups several schemas and surveys under one task
// identifier. With both lists empty it is a reference that has to be
// resolved against its stored definition.
type CompoundActivity struct {
	TaskIdentifier string            `bson:"taskIdentifier" json:"taskIdentifier"`
	SchemaList     []SchemaReference `bson:"schemaList" json:"schemaList"`
	SurveyList     []SurveyReference `bson:"surveyList" json:"surveyList"`
}

func (ca CompoundActivity) IsReference() bool {
	return len(ca.SchemaList) == 0 && len(ca.SurveyList) == 0
}

func (ca CompoundActivity) Equal(other CompoundActivity) bool {
	if ca.TaskIdentifier != other.TaskIdentifier {
		return false
	}
	if len(ca.SchemaList) != len(other.SchemaList) || len(ca.SurveyList) != len(other.SurveyList) {
		return false
	}
	for i := range ca.SchemaList {
		if !ca.SchemaList[i].Equal(other.SchemaList[i]) {
			return false
		}
	}
	for i := range ca.SurveyList {
		if !ca.SurveyList[i].Equal(other.SurveyList[i]) {
			return false
		}
	}
	return true
}
