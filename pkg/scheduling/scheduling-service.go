package scheduling

import (
	"log/slog"

	schedulingTypes "github.com/bridge-framework/bridge-backend/pkg/scheduling/types"
)

// GetScheduledActivities computes the activities the participant of the
// context is currently scheduled for, reconciles them with previously
// persisted state, persists what changed and returns the visible list
// ordered by scheduled time.
func (s *SchedulingService) GetScheduledActivities(sctx schedulingTypes.ScheduleContext) ([]schedulingTypes.ScheduledActivity, error) {
	if err := validateScheduleContext(sctx); err != nil {
		return nil, err
	}

	events, err := s.buildEventMap(sctx)
	if err != nil {
		return nil, err
	}
	newCtx := schedulingTypes.NewScheduleContextBuilder().WithContext(sctx).WithEvents(events).Build()

	scheduledActivities, err := s.scheduleActivitiesForPlans(newCtx)
	if err != nil {
		return nil, err
	}

	guids := make([]string, len(scheduledActivities))
	for i, activity := range scheduledActivities {
		guids[i] = activity.GUID
	}
	dbActivities, err := s.activityStore.GetScheduledActivities(
		newCtx.Criteria.InstanceID, newCtx.Criteria.StudyKey, newCtx.Criteria.HealthCode, newCtx.EndsOn.Location(), guids)
	if err != nil {
		return nil, err
	}

	saves := updateActivitiesAndCollectSaves(scheduledActivities, dbActivities, s.now())
	if err := s.activityStore.SaveScheduledActivities(newCtx.Criteria.InstanceID, newCtx.Criteria.StudyKey, saves); err != nil {
		return nil, err
	}
	slog.Debug("scheduled activities computed",
		slog.String("instanceID", newCtx.Criteria.InstanceID),
		slog.String("studyKey", newCtx.Criteria.StudyKey),
		slog.Int("computed", len(scheduledActivities)),
		slog.Int("saved", len(saves)))

	return orderActivities(scheduledActivities, s.now()), nil
}

// scheduleActivitiesForPlans expands every applicable schedule plan into
// occurrences within the context window and resolves their references. The
// resolver caches are shared across all plans of the call, so repeated
// references cost one lookup each.
func (s *SchedulingService) scheduleActivitiesForPlans(sctx schedulingTypes.ScheduleContext) ([]schedulingTypes.ScheduledActivity, error) {
	resolver := s.newReferenceResolver(sctx.Criteria)
	scheduledActivities := []schedulingTypes.ScheduledActivity{}

	plans, err := s.planService.GetSchedulePlans(sctx.Criteria.InstanceID, sctx.Criteria.StudyKey, sctx.Criteria.ClientInfo)
	if err != nil {
		return nil, err
	}

	for _, plan := range plans {
		schedule := scheduleForUser(plan, sctx)
		if schedule == nil {
			continue
		}
		activities, err := expandSchedule(plan, *schedule, sctx)
		if err != nil {
			return nil, err
		}
		for _, activity := range activities {
			resolved, err := resolver.resolveActivity(activity)
			if err != nil {
				return nil, err
			}
			scheduledActivities = append(scheduledActivities, resolved)
		}
	}
	return scheduledActivities, nil
}

// UpdateScheduledActivities applies client-submitted start/finish
// timestamps to persisted activities. Entries without either timestamp are
// ignored. Mutations are written as one batch at the end, so a validation
// or lookup failure leaves the store untouched.
func (s *SchedulingService) UpdateScheduledActivities(instanceID string, studyKey string, healthCode string, activities []*schedulingTypes.ScheduledActivity) error {
	if healthCode == "" {
		return newValidationError("health code is required")
	}

	activitiesToSave := make([]schedulingTypes.ScheduledActivity, 0, len(activities))
	for i, activity := range activities {
		if activity == nil {
			return newValidationError("activity #%d in the array is missing", i)
		}
		if activity.GUID == "" {
			return newValidationError("activity #%d has no guid", i)
		}
		if activity.StartedOn == nil && activity.FinishedOn == nil {
			continue
		}

		// Time zones are not attached here, these values are never
		// returned to the caller.
		dbActivity, err := s.activityStore.GetScheduledActivity(instanceID, studyKey, healthCode, activity.GUID)
		if err != nil {
			return err
		}
		if activity.StartedOn != nil {
			dbActivity.StartedOn = activity.StartedOn
		}
		if activity.FinishedOn != nil {
			dbActivity.FinishedOn = activity.FinishedOn
			if err := s.eventService.PublishActivityFinishedEvent(instanceID, studyKey, dbActivity); err != nil {
				return err
			}
		}
		activitiesToSave = append(activitiesToSave, dbActivity)
	}
	return s.activityStore.UpdateScheduledActivities(instanceID, studyKey, healthCode, activitiesToSave)
}

// DeleteScheduledActivitiesForParticipant removes every persisted activity
// of a participant, regardless of lifecycle state. Used for account
// teardown.
func (s *SchedulingService) DeleteScheduledActivitiesForParticipant(instanceID string, studyKey string, healthCode string) error {
	if healthCode == "" {
		return newValidationError("health code is required")
	}
	count, err := s.activityStore.DeleteScheduledActivitiesForParticipant(instanceID, studyKey, healthCode)
	if err != nil {
		return err
	}
	slog.Info("deleted scheduled activities for participant",
		slog.String("instanceID", instanceID),
		slog.String("studyKey", studyKey),
		slog.Int64("count", count))
	return nil
}
