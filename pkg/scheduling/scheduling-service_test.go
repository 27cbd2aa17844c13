package scheduling

import (
	"errors"
	"testing"
	"time"

	schedulingTypes "github.com/bridge-framework/bridge-backend/pkg/scheduling/types"
)

func onceTaskPlan() schedulingTypes.SchedulePlan {
	return schedulingTypes.SchedulePlan{
		GUID:         "plan1",
		StrategyType: schedulingTypes.STRATEGY_TYPE_SIMPLE,
		Schedule: &schedulingTypes.Schedule{
			ScheduleType: schedulingTypes.SCHEDULE_TYPE_ONCE,
			Activities: []schedulingTypes.Activity{
				{
					GUID:  "act1",
					Label: "Tapping",
					Task: &schedulingTypes.TaskReference{
						Identifier: "tapping",
						Schema:     &schedulingTypes.SchemaReference{ID: "schema1"},
					},
				},
			},
		},
	}
}

func participantContext() schedulingTypes.ScheduleContext {
	startsOn := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	return schedulingTypes.NewScheduleContextBuilder().
		WithStartsOn(startsOn).
		WithEndsOn(startsOn.Add(4 * 24 * time.Hour)).
		WithAccountCreatedOn(startsOn).
		WithCriteriaContext(schedulingTypes.CriteriaContext{
			InstanceID: "instance1",
			StudyKey:   "study1",
			HealthCode: "hc1",
			ClientInfo: schedulingTypes.ClientInfo{AppName: "bridge-app", AppVersion: 12},
		}).
		Build()
}

const wantGUID = "act1_2023-01-01T00:00:00.000Z"

func TestGetScheduledActivities(t *testing.T) {
	now := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("computes resolves and persists fresh activities", func(t *testing.T) {
		env := newTestEnv(now)
		env.plans.plans = []schedulingTypes.SchedulePlan{onceTaskPlan()}
		env.schemas.schemas["schema1"] = schedulingTypes.UploadSchema{SchemaID: "schema1", Revision: 3}

		got, err := env.service.GetScheduledActivities(participantContext())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("unexpected number of activities: %d", len(got))
		}
		if got[0].GUID != wantGUID {
			t.Errorf("unexpected guid: %s", got[0].GUID)
		}
		schema := got[0].Activity.Task.Schema
		if schema.Revision == nil || *schema.Revision != 3 {
			t.Errorf("unexpected schema: %+v", schema)
		}
		if len(env.store.saveBatches) != 1 || len(env.store.saveBatches[0]) != 1 {
			t.Errorf("unexpected save batches: %+v", env.store.saveBatches)
		}
	})

	t.Run("recomputation is idempotent", func(t *testing.T) {
		env := newTestEnv(now)
		env.plans.plans = []schedulingTypes.SchedulePlan{onceTaskPlan()}
		env.schemas.schemas["schema1"] = schedulingTypes.UploadSchema{SchemaID: "schema1", Revision: 3}

		first, err := env.service.GetScheduledActivities(participantContext())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := env.service.GetScheduledActivities(participantContext())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(first) != 1 || len(second) != 1 || first[0].GUID != second[0].GUID {
			t.Errorf("recomputation changed the result: %+v vs %+v", first, second)
		}
		if len(env.store.activities) != 1 {
			t.Errorf("unexpected number of persisted activities: %d", len(env.store.activities))
		}
	})

	t.Run("persisted finished record survives recomputation", func(t *testing.T) {
		env := newTestEnv(now)
		env.plans.plans = []schedulingTypes.SchedulePlan{onceTaskPlan()}
		env.schemas.schemas["schema1"] = schedulingTypes.UploadSchema{SchemaID: "schema1", Revision: 3}

		finishedOn := now.Add(-time.Hour)
		scheduledOn := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		env.store.activities[wantGUID] = schedulingTypes.ScheduledActivity{
			GUID:        wantGUID,
			HealthCode:  "hc1",
			Activity:    schedulingTypes.Activity{GUID: "act1"},
			ScheduledOn: scheduledOn,
			FinishedOn:  &finishedOn,
		}

		got, err := env.service.GetScheduledActivities(participantContext())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("unexpected number of activities: %d", len(got))
		}
		if got[0].FinishedOn == nil || !got[0].FinishedOn.Equal(finishedOn) {
			t.Errorf("finished timestamp lost: %+v", got[0])
		}
		if len(env.store.saveBatches) != 1 || len(env.store.saveBatches[0]) != 0 {
			t.Errorf("finished activity must not be saved again: %+v", env.store.saveBatches)
		}
	})

	t.Run("expired activities are neither saved nor returned", func(t *testing.T) {
		env := newTestEnv(now)
		plan := onceTaskPlan()
		plan.Schedule.Expires = time.Hour
		env.plans.plans = []schedulingTypes.SchedulePlan{plan}
		env.schemas.schemas["schema1"] = schedulingTypes.UploadSchema{SchemaID: "schema1", Revision: 3}

		got, err := env.service.GetScheduledActivities(participantContext())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expired activity returned: %+v", got)
		}
		if len(env.store.saveBatches) != 1 || len(env.store.saveBatches[0]) != 0 {
			t.Errorf("expired activity saved: %+v", env.store.saveBatches)
		}
	})

	t.Run("plans without matching criteria contribute nothing", func(t *testing.T) {
		env := newTestEnv(now)
		minV := 20
		plan := onceTaskPlan()
		plan.StrategyType = schedulingTypes.STRATEGY_TYPE_CRITERIA
		plan.ScheduleCriteria = []schedulingTypes.ScheduleCriteria{
			{Schedule: *plan.Schedule, MinAppVersion: &minV},
		}
		plan.Schedule = nil
		env.plans.plans = []schedulingTypes.SchedulePlan{plan}

		got, err := env.service.GetScheduledActivities(participantContext())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("unexpected activities: %+v", got)
		}
	})

	t.Run("invalid context is rejected before any work", func(t *testing.T) {
		env := newTestEnv(now)
		sctx := participantContext()
		sctx.Criteria.HealthCode = ""

		_, err := env.service.GetScheduledActivities(sctx)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("unexpected error: %v", err)
		}
		if len(env.store.saveBatches) != 0 {
			t.Errorf("store touched despite invalid context: %+v", env.store.saveBatches)
		}
	})

	t.Run("dangling schema reference fails the computation", func(t *testing.T) {
		env := newTestEnv(now)
		env.plans.plans = []schedulingTypes.SchedulePlan{onceTaskPlan()}

		_, err := env.service.GetScheduledActivities(participantContext())
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestUpdateScheduledActivities(t *testing.T) {
	now := time.Date(2023, 1, 2, 12, 0, 0, 0, time.UTC)
	scheduledOn := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	seed := func(env *testEnv) {
		env.store.activities[wantGUID] = schedulingTypes.ScheduledActivity{
			GUID:        wantGUID,
			HealthCode:  "hc1",
			Activity:    schedulingTypes.Activity{GUID: "act1"},
			ScheduledOn: scheduledOn,
		}
	}

	t.Run("applies started timestamp", func(t *testing.T) {
		env := newTestEnv(now)
		seed(env)

		startedOn := now.Add(-time.Hour)
		err := env.service.UpdateScheduledActivities("instance1", "study1", "hc1", []*schedulingTypes.ScheduledActivity{
			{GUID: wantGUID, StartedOn: &startedOn},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		saved := env.store.activities[wantGUID]
		if saved.StartedOn == nil || !saved.StartedOn.Equal(startedOn) {
			t.Errorf("started timestamp not applied: %+v", saved)
		}
		if len(env.events.finishedActivityGUIDs) != 0 {
			t.Errorf("unexpected finished events: %v", env.events.finishedActivityGUIDs)
		}
	})

	t.Run("finishing publishes the finished event once", func(t *testing.T) {
		env := newTestEnv(now)
		seed(env)

		finishedOn := now.Add(-time.Hour)
		err := env.service.UpdateScheduledActivities("instance1", "study1", "hc1", []*schedulingTypes.ScheduledActivity{
			{GUID: wantGUID, FinishedOn: &finishedOn},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		saved := env.store.activities[wantGUID]
		if saved.FinishedOn == nil || !saved.FinishedOn.Equal(finishedOn) {
			t.Errorf("finished timestamp not applied: %+v", saved)
		}
		if len(env.events.finishedActivityGUIDs) != 1 || env.events.finishedActivityGUIDs[0] != "act1" {
			t.Errorf("unexpected finished events: %v", env.events.finishedActivityGUIDs)
		}
	})

	t.Run("entries without timestamps are skipped", func(t *testing.T) {
		env := newTestEnv(now)
		seed(env)

		err := env.service.UpdateScheduledActivities("instance1", "study1", "hc1", []*schedulingTypes.ScheduledActivity{
			{GUID: wantGUID},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(env.store.updateBatches) != 1 || len(env.store.updateBatches[0]) != 0 {
			t.Errorf("unexpected update batches: %+v", env.store.updateBatches)
		}
	})

	t.Run("missing entry is reported with its index", func(t *testing.T) {
		env := newTestEnv(now)
		seed(env)

		startedOn := now.Add(-time.Hour)
		err := env.service.UpdateScheduledActivities("instance1", "study1", "hc1", []*schedulingTypes.ScheduledActivity{
			{GUID: wantGUID, StartedOn: &startedOn},
			{GUID: wantGUID, StartedOn: &startedOn},
			nil,
		})
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("unexpected error: %v", err)
		}
		if validationErr.Message != "activity #2 in the array is missing" {
			t.Errorf("unexpected message: %s", validationErr.Message)
		}
		if len(env.store.updateBatches) != 0 {
			t.Errorf("store mutated despite validation failure: %+v", env.store.updateBatches)
		}
	})

	t.Run("entry without guid is rejected", func(t *testing.T) {
		env := newTestEnv(now)
		startedOn := now.Add(-time.Hour)

		err := env.service.UpdateScheduledActivities("instance1", "study1", "hc1", []*schedulingTypes.ScheduledActivity{
			{StartedOn: &startedOn},
		})
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("unknown activity surfaces not found without mutation", func(t *testing.T) {
		env := newTestEnv(now)
		startedOn := now.Add(-time.Hour)

		err := env.service.UpdateScheduledActivities("instance1", "study1", "hc1", []*schedulingTypes.ScheduledActivity{
			{GUID: "does-not-exist", StartedOn: &startedOn},
		})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("unexpected error: %v", err)
		}
		if len(env.store.updateBatches) != 0 {
			t.Errorf("store mutated despite lookup failure: %+v", env.store.updateBatches)
		}
	})

	t.Run("missing health code is rejected", func(t *testing.T) {
		env := newTestEnv(now)
		err := env.service.UpdateScheduledActivities("instance1", "study1", "", nil)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestDeleteScheduledActivitiesForParticipant(t *testing.T) {
	now := time.Date(2023, 1, 2, 12, 0, 0, 0, time.UTC)

	t.Run("removes all activities of the participant", func(t *testing.T) {
		env := newTestEnv(now)
		env.store.activities["a"] = schedulingTypes.ScheduledActivity{GUID: "a", HealthCode: "hc1"}
		env.store.activities["b"] = schedulingTypes.ScheduledActivity{GUID: "b", HealthCode: "hc2"}

		if err := env.service.DeleteScheduledActivitiesForParticipant("instance1", "study1", "hc1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := env.store.activities["a"]; ok {
			t.Error("participant activity not deleted")
		}
		if _, ok := env.store.activities["b"]; !ok {
			t.Error("other participant's activity deleted")
		}
	})

	t.Run("missing health code is rejected", func(t *testing.T) {
		env := newTestEnv(now)
		err := env.service.DeleteScheduledActivitiesForParticipant("instance1", "study1", "")
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
