package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	SCHEDULE_TYPE_ONCE      = "once"
	SCHEDULE_TYPE_RECURRING = "recurring"
	SCHEDULE_TYPE_CRON      = "cron"

	STRATEGY_TYPE_SIMPLE   = "simple"
	STRATEGY_TYPE_CRITERIA = "criteria"
)

// Schedule describes how the activities of a plan recur. Occurrences are
// anchored on a named event from the participant's event map ("enrollment"
// when EventID is empty).
type Schedule struct {
	Label        string        `bson:"label,omitempty" json:"label,omitempty"`
	ScheduleType string        `bson:"scheduleType" json:"scheduleType"`
	EventID      string        `bson:"eventId,omitempty" json:"eventId,omitempty"`
	Delay        time.Duration `bson:"delay,omitempty" json:"delay,omitempty"`
	Interval     time.Duration `bson:"interval,omitempty" json:"interval,omitempty"`
	CronTrigger  string        `bson:"cronTrigger,omitempty" json:"cronTrigger,omitempty"`
	Expires      time.Duration `bson:"expires,omitempty" json:"expires,omitempty"`
	Times        []string      `bson:"times,omitempty" json:"times,omitempty"` // times of day as "15:04"
	Activities   []Activity    `bson:"activities" json:"activities"`
}

// ScheduleCriteria pairs a schedule with the conditions under which it
// applies to a participant. The first matching entry of a criteria strategy
// wins.
type ScheduleCriteria struct {
	Schedule      Schedule `bson:"schedule" json:"schedule"`
	AllOfGroups   []string `bson:"allOfGroups,omitempty" json:"allOfGroups,omitempty"`
	NoneOfGroups  []string `bson:"noneOfGroups,omitempty" json:"noneOfGroups,omitempty"`
	MinAppVersion *int     `bson:"minAppVersion,omitempty" json:"minAppVersion,omitempty"`
	MaxAppVersion *int     `bson:"maxAppVersion,omitempty" json:"maxAppVersion,omitempty"`
}

type SchedulePlan struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	GUID             string             `bson:"guid" json:"guid"`
	Label            string             `bson:"label,omitempty" json:"label,omitempty"`
	StrategyType     string             `bson:"strategyType" json:"strategyType"`
	Schedule         *Schedule          `bson:"schedule,omitempty" json:"schedule,omitempty"`
	ScheduleCriteria []ScheduleCriteria `bson:"scheduleCriteria,omitempty" json:"scheduleCriteria,omitempty"`
	MinAppVersion    *int               `bson:"minAppVersion,omitempty" json:"minAppVersion,omitempty"`
	MaxAppVersion    *int               `bson:"maxAppVersion,omitempty" json:"maxAppVersion,omitempty"`
	Deleted          bool               `bson:"deleted,omitempty" json:"deleted,omitempty"`
	ModifiedAt       int64              `bson:"modifiedAt,omitempty" json:"modifiedAt,omitempty"`
}
