package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	SCHEDULED_ACTIVITY_STATUS_SCHEDULED = "scheduled"
	SCHEDULED_ACTIVITY_STATUS_STARTED   = "started"
	SCHEDULED_ACTIVITY_STATUS_FINISHED  = "finished"
	SCHEDULED_ACTIVITY_STATUS_EXPIRED   = "expired"
)

var (
	// UpdatableStatuses lists the statuses in which a persisted activity may
	// still be replaced by a freshly generated occurrence without losing
	// participant-entered state.
	UpdatableStatuses = map[string]bool{
		SCHEDULED_ACTIVITY_STATUS_SCHEDULED: true,
		SCHEDULED_ACTIVITY_STATUS_STARTED:   true,
	}

	// VisibleStatuses lists the statuses returned to API callers.
	VisibleStatuses = map[string]bool{
		SCHEDULED_ACTIVITY_STATUS_SCHEDULED: true,
		SCHEDULED_ACTIVITY_STATUS_STARTED:   true,
		SCHEDULED_ACTIVITY_STATUS_FINISHED:  true,
	}
)

// activityGUIDTimeLayout is the timestamp serialization used inside
// scheduled activity GUIDs. Changing it breaks GUID determinism and with
// it the matching of regenerated occurrences against persisted records.
const activityGUIDTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// ScheduledActivityGUID derives the identity of one occurrence from the
// owning plan activity GUID and the occurrence's scheduled time. The
// scheduler always regenerates the same GUID for the same occurrence.
func ScheduledActivityGUID(activityGUID string, scheduledOn time.Time) string {
	return activityGUID + "_" + scheduledOn.Format(activityGUIDTimeLayout)
}

// ScheduledActivity is one concrete occurrence of a plan activity for one
// participant. Persisted rows are created once and afterwards only receive
// StartedOn/FinishedOn updates.
type ScheduledActivity struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	GUID             string             `bson:"guid" json:"guid"`
	HealthCode       string             `bson:"healthCode" json:"-"`
	SchedulePlanGUID string             `bson:"schedulePlanGuid,omitempty" json:"schedulePlanGuid,omitempty"`
	Activity         Activity           `bson:"activity" json:"activity"`
	ScheduledOn      time.Time          `bson:"scheduledOn" json:"scheduledOn"`
	ExpiresOn        *time.Time         `bson:"expiresOn,omitempty" json:"expiresOn,omitempty"`
	StartedOn        *time.Time         `bson:"startedOn,omitempty" json:"startedOn,omitempty"`
	FinishedOn       *time.Time         `bson:"finishedOn,omitempty" json:"finishedOn,omitempty"`
	TimeZone         string             `bson:"timezone,omitempty" json:"timezone,omitempty"`
}

// Status derives the lifecycle state from the participant timestamps and
// the expiry window. It is never stored. An activity that has been started
// does not expire.
func (sa ScheduledActivity) Status(now time.Time) string {
	if sa.FinishedOn != nil {
		return SCHEDULED_ACTIVITY_STATUS_FINISHED
	}
	if sa.StartedOn != nil {
		return SCHEDULED_ACTIVITY_STATUS_STARTED
	}
	if sa.ExpiresOn != nil && !now.Before(*sa.ExpiresOn) {
		return SCHEDULED_ACTIVITY_STATUS_EXPIRED
	}
	return SCHEDULED_ACTIVITY_STATUS_SCHEDULED
}
