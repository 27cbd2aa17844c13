package scheduling

import (
	"time"

	schedulingTypes "github.com/bridge-framework/bridge-backend/pkg/scheduling/types"
)

// Longest window a single computation may cover. Wider requests indicate a
// client bug and would expand needlessly many occurrences.
const maxScheduleWindow = 15 * 24 * time.Hour

func validateScheduleContext(sctx schedulingTypes.ScheduleContext) error {
	if sctx.Criteria.InstanceID == "" {
		return newValidationError("instance ID is required")
	}
	if sctx.Criteria.StudyKey == "" {
		return newValidationError("study key is required")
	}
	if sctx.Criteria.HealthCode == "" {
		return newValidationError("health code is required")
	}
	if sctx.TimeZone == nil {
		return newValidationError("time zone is required")
	}
	if sctx.InitialTimeZone == nil {
		return newValidationError("initial time zone is required")
	}
	if sctx.StartsOn.IsZero() || sctx.EndsOn.IsZero() {
		return newValidationError("scheduling window is required")
	}
	if sctx.EndsOn.Before(sctx.StartsOn) {
		return newValidationError("scheduling window ends before it starts")
	}
	if sctx.EndsOn.Sub(sctx.StartsOn) > maxScheduleWindow {
		return newValidationError("scheduling window must not exceed %d days", int(maxScheduleWindow.Hours()/24))
	}
	return nil
}
