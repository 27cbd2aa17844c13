package scheduling

import (
	"time"

	schedulingTypes "github.com/bridge-framework/bridge-backend/pkg/scheduling/types"
)

const ENROLLMENT_EVENT_KEY = "enrollment"

// buildEventMap assembles the named events used as recurrence anchors,
// normalized into the context's initial time zone. When the store has no
// enrollment event, one is synthesized from the account creation time.
func (s *SchedulingService) buildEventMap(sctx schedulingTypes.ScheduleContext) (map[string]time.Time, error) {
	events, err := s.eventService.GetActivityEventMap(sctx.Criteria.InstanceID, sctx.Criteria.StudyKey, sctx.Criteria.HealthCode)
	if err != nil {
		return nil, err
	}

	eventMap := make(map[string]time.Time, len(events)+1)
	if _, ok := events[ENROLLMENT_EVENT_KEY]; !ok {
		eventMap[ENROLLMENT_EVENT_KEY] = sctx.AccountCreatedOn.In(sctx.InitialTimeZone)
	}
	for key, timestamp := range events {
		eventMap[key] = timestamp.In(sctx.InitialTimeZone)
	}
	return eventMap, nil
}
