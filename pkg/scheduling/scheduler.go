package scheduling

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	schedulingTypes "github.com/bridge-framework/bridge-backend/pkg/scheduling/types"
)

// Upper bound on occurrences generated per schedule and call. Protects
// against schedules whose anchor event lies far before the requested
// window combined with a short interval.
const maxOccurrencesPerSchedule = 500

const timeOfDayLayout = "15:04"

// expandSchedule turns one schedule into concrete occurrences within the
// context window. Occurrences are anchored on the schedule's event; a
// participant without the anchor event gets no occurrences from this
// schedule.
func expandSchedule(plan schedulingTypes.SchedulePlan, schedule schedulingTypes.Schedule, sctx schedulingTypes.ScheduleContext) ([]schedulingTypes.ScheduledActivity, error) {
	eventID := schedule.EventID
	if eventID == "" {
		eventID = ENROLLMENT_EVENT_KEY
	}
	anchor, ok := sctx.Events[eventID]
	if !ok {
		return nil, nil
	}

	var times []time.Time
	var err error
	switch schedule.ScheduleType {
	case schedulingTypes.SCHEDULE_TYPE_ONCE:
		times = expandOnce(schedule, anchor, sctx)
	case schedulingTypes.SCHEDULE_TYPE_RECURRING:
		times, err = expandRecurring(schedule, anchor, sctx)
	case schedulingTypes.SCHEDULE_TYPE_CRON:
		times, err = expandCron(schedule, anchor, sctx)
	default:
		err = fmt.Errorf("schedule of plan %s has unknown type %q", plan.GUID, schedule.ScheduleType)
	}
	if err != nil {
		return nil, err
	}

	scheduledActivities := make([]schedulingTypes.ScheduledActivity, 0, len(times)*len(schedule.Activities))
	for _, t := range times {
		scheduledOn := t.In(sctx.TimeZone)
		for _, activity := range schedule.Activities {
			schActivity := schedulingTypes.ScheduledActivity{
				GUID:             schedulingTypes.ScheduledActivityGUID(activity.GUID, scheduledOn),
				HealthCode:       sctx.Criteria.HealthCode,
				SchedulePlanGUID: plan.GUID,
				Activity:         activity,
				ScheduledOn:      scheduledOn,
				TimeZone:         sctx.TimeZone.String(),
			}
			if schedule.Expires > 0 {
				expiresOn := scheduledOn.Add(schedule.Expires)
				schActivity.ExpiresOn = &expiresOn
			}
			scheduledActivities = append(scheduledActivities, schActivity)
		}
	}
	return scheduledActivities, nil
}

func expandOnce(schedule schedulingTypes.Schedule, anchor time.Time, sctx schedulingTypes.ScheduleContext) []time.Time {
	t := anchor.Add(schedule.Delay)
	if inWindow(t, sctx) {
		return []time.Time{t}
	}
	return nil
}

func expandRecurring(schedule schedulingTypes.Schedule, anchor time.Time, sctx schedulingTypes.ScheduleContext) ([]time.Time, error) {
	if schedule.Interval <= 0 {
		return nil, fmt.Errorf("recurring schedule %q has no interval", schedule.Label)
	}

	timesOfDay, err := parseTimesOfDay(schedule.Times)
	if err != nil {
		return nil, err
	}
	// A sub-day interval combined with fixed times of day would land on the
	// same calendar day more than once and emit occurrences with colliding
	// GUIDs.
	if len(timesOfDay) > 0 && schedule.Interval < 24*time.Hour {
		return nil, fmt.Errorf("recurring schedule %q: times of day require an interval of at least one day", schedule.Label)
	}

	times := []time.Time{}
	start := anchor.Add(schedule.Delay)
	for t, n := start, 0; t.Before(sctx.EndsOn); t, n = t.Add(schedule.Interval), n+1 {
		if n >= maxOccurrencesPerSchedule {
			slog.Warn("recurring schedule expansion truncated",
				slog.String("schedule", schedule.Label),
				slog.Int("maxOccurrences", maxOccurrencesPerSchedule))
			break
		}
		if len(timesOfDay) == 0 {
			if inWindow(t, sctx) {
				times = append(times, t)
			}
			continue
		}
		local := t.In(sctx.TimeZone)
		for _, tod := range timesOfDay {
			occurrence := time.Date(local.Year(), local.Month(), local.Day(), tod.Hour(), tod.Minute(), 0, 0, sctx.TimeZone)
			if inWindow(occurrence, sctx) {
				times = append(times, occurrence)
			}
		}
	}
	return times, nil
}

func expandCron(schedule schedulingTypes.Schedule, anchor time.Time, sctx schedulingTypes.ScheduleContext) ([]time.Time, error) {
	cronSchedule, err := cron.ParseStandard(schedule.CronTrigger)
	if err != nil {
		return nil, fmt.Errorf("cron schedule %q has invalid trigger: %w", schedule.Label, err)
	}

	from := anchor.Add(schedule.Delay)
	if sctx.StartsOn.After(from) {
		from = sctx.StartsOn
	}
	times := []time.Time{}
	for t, n := cronSchedule.Next(from.In(sctx.TimeZone)), 0; !t.IsZero() && t.Before(sctx.EndsOn); t, n = cronSchedule.Next(t), n+1 {
		if n >= maxOccurrencesPerSchedule {
			slog.Warn("cron schedule expansion truncated",
				slog.String("schedule", schedule.Label),
				slog.Int("maxOccurrences", maxOccurrencesPerSchedule))
			break
		}
		times = append(times, t)
	}
	return times, nil
}

func parseTimesOfDay(values []string) ([]time.Time, error) {
	timesOfDay := make([]time.Time, 0, len(values))
	for _, value := range values {
		tod, err := time.Parse(timeOfDayLayout, value)
		if err != nil {
			return nil, fmt.Errorf("invalid time of day %q: %w", value, err)
		}
		timesOfDay = append(timesOfDay, tod)
	}
	return timesOfDay, nil
}

func inWindow(t time.Time, sctx schedulingTypes.ScheduleContext) bool {
	return !t.Before(sctx.StartsOn) && t.Before(sctx.EndsOn)
}
