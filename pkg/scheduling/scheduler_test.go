package scheduling

import (
	"testing"
	"time"

	schedulingTypes "github.com/bridge-framework/bridge-backend/pkg/scheduling/types"
)

func windowContext(startsOn, endsOn time.Time, events map[string]time.Time) schedulingTypes.ScheduleContext {
	return schedulingTypes.NewScheduleContextBuilder().
		WithStartsOn(startsOn).
		WithEndsOn(endsOn).
		WithEvents(events).
		WithCriteriaContext(schedulingTypes.CriteriaContext{
			InstanceID: "instance1",
			StudyKey:   "study1",
			HealthCode: "hc1",
		}).
		Build()
}

func TestExpandSchedule(t *testing.T) {
	enrollment := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	startsOn := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	endsOn := time.Date(2023, 1, 4, 0, 0, 0, 0, time.UTC)
	events := map[string]time.Time{ENROLLMENT_EVENT_KEY: enrollment}

	plan := schedulingTypes.SchedulePlan{GUID: "plan1"}
	activity := schedulingTypes.Activity{GUID: "act1", Task: &schedulingTypes.TaskReference{Identifier: "tapping"}}

	t.Run("once inside window", func(t *testing.T) {
		schedule := schedulingTypes.Schedule{
			ScheduleType: schedulingTypes.SCHEDULE_TYPE_ONCE,
			Activities:   []schedulingTypes.Activity{activity},
		}
		sctx := windowContext(startsOn, endsOn, events)

		got, err := expandSchedule(plan, schedule, sctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("unexpected number of occurrences: %d", len(got))
		}
		if got[0].GUID != "act1_2023-01-01T00:00:00.000Z" {
			t.Errorf("unexpected guid: %s", got[0].GUID)
		}
		if got[0].SchedulePlanGUID != "plan1" {
			t.Errorf("unexpected plan guid: %s", got[0].SchedulePlanGUID)
		}
		if got[0].HealthCode != "hc1" {
			t.Errorf("unexpected health code: %s", got[0].HealthCode)
		}
	})

	t.Run("once with delay and expiry", func(t *testing.T) {
		schedule := schedulingTypes.Schedule{
			ScheduleType: schedulingTypes.SCHEDULE_TYPE_ONCE,
			Delay:        24 * time.Hour,
			Expires:      12 * time.Hour,
			Activities:   []schedulingTypes.Activity{activity},
		}
		sctx := windowContext(startsOn, endsOn, events)

		got, err := expandSchedule(plan, schedule, sctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("unexpected number of occurrences: %d", len(got))
		}
		if !got[0].ScheduledOn.Equal(enrollment.Add(24 * time.Hour)) {
			t.Errorf("unexpected scheduled on: %v", got[0].ScheduledOn)
		}
		if got[0].ExpiresOn == nil || !got[0].ExpiresOn.Equal(got[0].ScheduledOn.Add(12*time.Hour)) {
			t.Errorf("unexpected expires on: %v", got[0].ExpiresOn)
		}
	})

	t.Run("once outside window", func(t *testing.T) {
		schedule := schedulingTypes.Schedule{
			ScheduleType: schedulingTypes.SCHEDULE_TYPE_ONCE,
			Delay:        10 * 24 * time.Hour,
			Activities:   []schedulingTypes.Activity{activity},
		}
		sctx := windowContext(startsOn, endsOn, events)

		got, err := expandSchedule(plan, schedule, sctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("unexpected occurrences: %+v", got)
		}
	})

	t.Run("missing anchor event yields nothing", func(t *testing.T) {
		schedule := schedulingTypes.Schedule{
			ScheduleType: schedulingTypes.SCHEDULE_TYPE_ONCE,
			EventID:      "surgery",
			Activities:   []schedulingTypes.Activity{activity},
		}
		sctx := windowContext(startsOn, endsOn, events)

		got, err := expandSchedule(plan, schedule, sctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("unexpected occurrences: %+v", got)
		}
	})

	t.Run("recurring daily", func(t *testing.T) {
		schedule := schedulingTypes.Schedule{
			ScheduleType: schedulingTypes.SCHEDULE_TYPE_RECURRING,
			Interval:     24 * time.Hour,
			Activities:   []schedulingTypes.Activity{activity},
		}
		sctx := windowContext(startsOn, endsOn, events)

		got, err := expandSchedule(plan, schedule, sctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("unexpected number of occurrences: %d", len(got))
		}
		for i, occurrence := range got {
			want := enrollment.Add(time.Duration(i) * 24 * time.Hour)
			if !occurrence.ScheduledOn.Equal(want) {
				t.Errorf("unexpected scheduled on at %d: %v, want %v", i, occurrence.ScheduledOn, want)
			}
		}
	})

	t.Run("recurring with times of day", func(t *testing.T) {
		schedule := schedulingTypes.Schedule{
			ScheduleType: schedulingTypes.SCHEDULE_TYPE_RECURRING,
			Interval:     24 * time.Hour,
			Times:        []string{"08:00", "20:00"},
			Activities:   []schedulingTypes.Activity{activity},
		}
		sctx := windowContext(startsOn, endsOn, events)

		got, err := expandSchedule(plan, schedule, sctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 6 {
			t.Fatalf("unexpected number of occurrences: %d", len(got))
		}
		first := got[0].ScheduledOn
		if first.Hour() != 8 || first.Minute() != 0 {
			t.Errorf("unexpected first occurrence: %v", first)
		}
	})

	t.Run("recurring with times yields distinct identities", func(t *testing.T) {
		schedule := schedulingTypes.Schedule{
			ScheduleType: schedulingTypes.SCHEDULE_TYPE_RECURRING,
			Interval:     24 * time.Hour,
			Times:        []string{"09:00"},
			Activities:   []schedulingTypes.Activity{activity},
		}
		sctx := windowContext(startsOn, endsOn, events)

		got, err := expandSchedule(plan, schedule, sctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seen := map[string]bool{}
		for _, occurrence := range got {
			if seen[occurrence.GUID] {
				t.Errorf("duplicate occurrence guid: %s", occurrence.GUID)
			}
			seen[occurrence.GUID] = true
		}
	})

	t.Run("recurring with times rejects sub-day interval", func(t *testing.T) {
		schedule := schedulingTypes.Schedule{
			ScheduleType: schedulingTypes.SCHEDULE_TYPE_RECURRING,
			Interval:     12 * time.Hour,
			Times:        []string{"09:00"},
			Activities:   []schedulingTypes.Activity{activity},
		}
		sctx := windowContext(startsOn, startsOn.Add(2*24*time.Hour), events)

		if _, err := expandSchedule(plan, schedule, sctx); err == nil {
			t.Error("expected error for sub-day interval with times of day")
		}
	})

	t.Run("recurring sub-day interval without times is allowed", func(t *testing.T) {
		schedule := schedulingTypes.Schedule{
			ScheduleType: schedulingTypes.SCHEDULE_TYPE_RECURRING,
			Interval:     12 * time.Hour,
			Activities:   []schedulingTypes.Activity{activity},
		}
		sctx := windowContext(startsOn, startsOn.Add(2*24*time.Hour), events)

		got, err := expandSchedule(plan, schedule, sctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 4 {
			t.Errorf("unexpected number of occurrences: %d", len(got))
		}
		seen := map[string]bool{}
		for _, occurrence := range got {
			if seen[occurrence.GUID] {
				t.Errorf("duplicate occurrence guid: %s", occurrence.GUID)
			}
			seen[occurrence.GUID] = true
		}
	})

	t.Run("recurring rejects invalid time of day", func(t *testing.T) {
		schedule := schedulingTypes.Schedule{
			ScheduleType: schedulingTypes.SCHEDULE_TYPE_RECURRING,
			Interval:     24 * time.Hour,
			Times:        []string{"8 o'clock"},
			Activities:   []schedulingTypes.Activity{activity},
		}
		sctx := windowContext(startsOn, endsOn, events)

		if _, err := expandSchedule(plan, schedule, sctx); err == nil {
			t.Error("expected error for invalid time of day")
		}
	})

	t.Run("recurring without interval fails", func(t *testing.T) {
		schedule := schedulingTypes.Schedule{
			ScheduleType: schedulingTypes.SCHEDULE_TYPE_RECURRING,
			Activities:   []schedulingTypes.Activity{activity},
		}
		sctx := windowContext(startsOn, endsOn, events)

		if _, err := expandSchedule(plan, schedule, sctx); err == nil {
			t.Error("expected error for missing interval")
		}
	})

	t.Run("cron daily at nine", func(t *testing.T) {
		schedule := schedulingTypes.Schedule{
			ScheduleType: schedulingTypes.SCHEDULE_TYPE_CRON,
			CronTrigger:  "0 9 * * *",
			Activities:   []schedulingTypes.Activity{activity},
		}
		sctx := windowContext(startsOn, endsOn, events)

		got, err := expandSchedule(plan, schedule, sctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("unexpected number of occurrences: %d", len(got))
		}
		for _, occurrence := range got {
			if occurrence.ScheduledOn.Hour() != 9 {
				t.Errorf("unexpected hour: %v", occurrence.ScheduledOn)
			}
		}
	})

	t.Run("cron with invalid trigger fails", func(t *testing.T) {
		schedule := schedulingTypes.Schedule{
			ScheduleType: schedulingTypes.SCHEDULE_TYPE_CRON,
			CronTrigger:  "not a cron line",
			Activities:   []schedulingTypes.Activity{activity},
		}
		sctx := windowContext(startsOn, endsOn, events)

		if _, err := expandSchedule(plan, schedule, sctx); err == nil {
			t.Error("expected error for invalid cron trigger")
		}
	})

	t.Run("unknown schedule type fails", func(t *testing.T) {
		schedule := schedulingTypes.Schedule{
			ScheduleType: "sometimes",
			Activities:   []schedulingTypes.Activity{activity},
		}
		sctx := windowContext(startsOn, endsOn, events)

		if _, err := expandSchedule(plan, schedule, sctx); err == nil {
			t.Error("expected error for unknown schedule type")
		}
	})

	t.Run("multiple activities per occurrence", func(t *testing.T) {
		second := schedulingTypes.Activity{GUID: "act2", Survey: &schedulingTypes.SurveyReference{GUID: "survey1"}}
		schedule := schedulingTypes.Schedule{
			ScheduleType: schedulingTypes.SCHEDULE_TYPE_ONCE,
			Activities:   []schedulingTypes.Activity{activity, second},
		}
		sctx := windowContext(startsOn, endsOn, events)

		got, err := expandSchedule(plan, schedule, sctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("unexpected number of occurrences: %d", len(got))
		}
		if got[0].Activity.GUID == got[1].Activity.GUID {
			t.Errorf("activities not distinct: %+v", got)
		}
	})
}
