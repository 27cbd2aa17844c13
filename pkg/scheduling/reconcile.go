package scheduling

import (
	"sort"
	"time"

	schedulingTypes "github.com/bridge-framework/bridge-backend/pkg/scheduling/types"
)

// updateActivitiesAndCollectSaves merges freshly computed occurrences with
// their persisted counterparts and returns the ones that need saving.
//
// A persisted record in a non-updatable state replaces the fresh occurrence
// in place: once a participant has finished an activity, the recorded
// progress must never be overwritten by a re-derived occurrence. This match
// relies on the scheduled activity GUID being the plan activity GUID
// concatenated with the scheduled time, so regeneration always reproduces
// the same GUID. Fresh occurrences that are already expired are not worth
// persisting; everything else is either new or still freely regenerable.
func updateActivitiesAndCollectSaves(scheduledActivities []schedulingTypes.ScheduledActivity, dbActivities []schedulingTypes.ScheduledActivity, now time.Time) []schedulingTypes.ScheduledActivity {
	dbMap := make(map[string]schedulingTypes.ScheduledActivity, len(dbActivities))
	for _, dbActivity := range dbActivities {
		dbMap[dbActivity.GUID] = dbActivity
	}

	saves := []schedulingTypes.ScheduledActivity{}
	for i, activity := range scheduledActivities {
		dbActivity, ok := dbMap[activity.GUID]
		if ok && !schedulingTypes.UpdatableStatuses[dbActivity.Status(now)] {
			scheduledActivities[i] = dbActivity
		} else if activity.Status(now) != schedulingTypes.SCHEDULED_ACTIVITY_STATUS_EXPIRED {
			saves = append(saves, activity)
		}
	}
	return saves
}

// orderActivities filters the computed list down to the statuses visible to
// API callers and sorts it ascending by scheduled time. The sort is stable,
// no secondary key is imposed.
func orderActivities(activities []schedulingTypes.ScheduledActivity, now time.Time) []schedulingTypes.ScheduledActivity {
	visible := []schedulingTypes.ScheduledActivity{}
	for _, activity := range activities {
		if schedulingTypes.VisibleStatuses[activity.Status(now)] {
			visible = append(visible, activity)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].ScheduledOn.Before(visible[j].ScheduledOn)
	})
	return visible
}
