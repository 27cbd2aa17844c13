package types

const (
	ACTIVITY_TYPE_COMPOUND = "compound"
	ACTIVITY_TYPE_SURVEY   = "survey"
	ACTIVITY_TYPE_TASK     = "task"
)

// Activity describes one unit of work a participant can be asked to perform.
// Exactly one of CompoundActivity, Survey or Task is set; ActivityType
// reports which one.
type Activity struct {
	GUID             string            `bson:"guid" json:"guid"`
	Label            string            `bson:"label,omitempty" json:"label,omitempty"`
	LabelDetail      string            `bson:"labelDetail,omitempty" json:"labelDetail,omitempty"`
	CompoundActivity *CompoundActivity `bson:"compoundActivity,omitempty" json:"compoundActivity,omitempty"`
	Survey           *SurveyReference  `bson:"survey,omitempty" json:"survey,omitempty"`
	Task             *TaskReference    `bson:"task,omitempty" json:"task,omitempty"`
}

func (a Activity) ActivityType() string {
	switch {
	case a.CompoundActivity != nil:
		return ACTIVITY_TYPE_COMPOUND
	case a.Survey != nil:
		return ACTIVITY_TYPE_SURVEY
	case a.Task != nil:
		return ACTIVITY_TYPE_TASK
	default:
		return ""
	}
}

// WithCompoundActivity returns a copy of the activity carrying the given
// compound activity as its payload. The original is not modified.
func (a Activity) WithCompoundActivity(ca CompoundActivity) Activity {
	a.CompoundActivity = &ca
	a.Survey = nil
	a.Task = nil
	return a
}

func (a Activity) WithSurvey(ref SurveyReference) Activity {
	a.CompoundActivity = nil
	a.Survey = &ref
	a.Task = nil
	return a
}

func (a Activity) WithTask(ref TaskReference) Activity {
	a.CompoundActivity = nil
	a.Survey = nil
	a.Task = &ref
	return a
}

func (a Activity) Equal(other Activity) bool {
	if a.GUID != other.GUID || a.Label != other.Label || a.LabelDetail != other.LabelDetail {
		return false
	}
	if (a.CompoundActivity == nil) != (other.CompoundActivity == nil) ||
		(a.Survey == nil) != (other.Survey == nil) ||
		(a.Task == nil) != (other.Task == nil) {
		return false
	}
	if a.CompoundActivity != nil && !a.CompoundActivity.Equal(*other.CompoundActivity) {
		return false
	}
	if a.Survey != nil && !a.Survey.Equal(*other.Survey) {
		return false
	}
	if a.Task != nil && !a.Task.Equal(*other.Task) {
		return false
	}
	return true
}
