package scheduling

import (
	"log/slog"

	schedulingTypes "github.com/bridge-framework/bridge-backend/pkg/scheduling/types"
)

// scheduleForUser selects the schedule a plan yields for the participant of
// the context, or nil when the plan does not apply.
func scheduleForUser(plan schedulingTypes.SchedulePlan, sctx schedulingTypes.ScheduleContext) *schedulingTypes.Schedule {
	switch plan.StrategyType {
	case schedulingTypes.STRATEGY_TYPE_SIMPLE:
		return plan.Schedule
	case schedulingTypes.STRATEGY_TYPE_CRITERIA:
		for i := range plan.ScheduleCriteria {
			if criteriaMatch(plan.ScheduleCriteria[i], sctx.Criteria) {
				return &plan.ScheduleCriteria[i].Schedule
			}
		}
		return nil
	default:
		slog.Warn("schedule plan has unknown strategy type",
			slog.String("planGuid", plan.GUID),
			slog.String("strategyType", plan.StrategyType))
		return nil
	}
}

func criteriaMatch(criteria schedulingTypes.ScheduleCriteria, cctx schedulingTypes.CriteriaContext) bool {
	groups := make(map[string]bool, len(cctx.UserGroups))
	for _, group := range cctx.UserGroups {
		groups[group] = true
	}
	for _, group := range criteria.AllOfGroups {
		if !groups[group] {
			return false
		}
	}
	for _, group := range criteria.NoneOfGroups {
		if groups[group] {
			return false
		}
	}
	if criteria.MinAppVersion != nil && cctx.ClientInfo.AppVersion < *criteria.MinAppVersion {
		return false
	}
	if criteria.MaxAppVersion != nil && cctx.ClientInfo.AppVersion > *criteria.MaxAppVersion {
		return false
	}
	return true
}
