package scheduling

import (
	"fmt"
	"time"

	schedulingTypes "github.com/bridge-framework/bridge-backend/pkg/scheduling/types"
)

type mockActivityStore struct {
	activities map[string]schedulingTypes.ScheduledActivity

	saveBatches   [][]schedulingTypes.ScheduledActivity
	updateBatches [][]schedulingTypes.ScheduledActivity
	deleteCalls   int
}

func newMockActivityStore() *mockActivityStore {
	return &mockActivityStore{activities: map[string]schedulingTypes.ScheduledActivity{}}
}

func (m *mockActivityStore) GetScheduledActivities(instanceID string, studyKey string, healthCode string, tz *time.Location, guids []string) ([]schedulingTypes.ScheduledActivity, error) {
	found := []schedulingTypes.ScheduledActivity{}
	for _, guid := range guids {
		if activity, ok := m.activities[guid]; ok && activity.HealthCode == healthCode {
			found = append(found, activity)
		}
	}
	return found, nil
}

func (m *mockActivityStore) GetScheduledActivity(instanceID string, studyKey string, healthCode string, guid string) (schedulingTypes.ScheduledActivity, error) {
	activity, ok := m.activities[guid]
	if !ok || activity.HealthCode != healthCode {
		return schedulingTypes.ScheduledActivity{}, fmt.Errorf("scheduled activity %s: %w", guid, ErrNotFound)
	}
	return activity, nil
}

func (m *mockActivityStore) SaveScheduledActivities(instanceID string, studyKey string, activities []schedulingTypes.ScheduledActivity) error {
	m.saveBatches = append(m.saveBatches, activities)
	for _, activity := range activities {
		if existing, ok := m.activities[activity.GUID]; ok {
			activity.StartedOn = existing.StartedOn
			activity.FinishedOn = existing.FinishedOn
		}
		m.activities[activity.GUID] = activity
	}
	return nil
}

func (m *mockActivityStore) UpdateScheduledActivities(instanceID string, studyKey string, healthCode string, activities []schedulingTypes.ScheduledActivity) error {
	m.updateBatches = append(m.updateBatches, activities)
	for _, activity := range activities {
		existing, ok := m.activities[activity.GUID]
		if !ok {
			continue
		}
		existing.StartedOn = activity.StartedOn
		existing.FinishedOn = activity.FinishedOn
		m.activities[activity.GUID] = existing
	}
	return nil
}

func (m *mockActivityStore) DeleteScheduledActivitiesForParticipant(instanceID string, studyKey string, healthCode string) (int64, error) {
	m.deleteCalls++
	count := int64(0)
	for guid, activity := range m.activities {
		if activity.HealthCode == healthCode {
			delete(m.activities, guid)
			count++
		}
	}
	return count, nil
}

type mockEventService struct {
	events map[string]time.Time

	finishedActivityGUIDs []string
}

func (m *mockEventService) GetActivityEventMap(instanceID string, studyKey string, healthCode string) (map[string]time.Time, error) {
	if m.events == nil {
		return map[string]time.Time{}, nil
	}
	return m.events, nil
}

func (m *mockEventService) PublishActivityFinishedEvent(instanceID string, studyKey string, activity schedulingTypes.ScheduledActivity) error {
	if activity.FinishedOn == nil {
		return nil
	}
	m.finishedActivityGUIDs = append(m.finishedActivityGUIDs, activity.Activity.GUID)
	return nil
}

type mockPlanService struct {
	plans []schedulingTypes.SchedulePlan
}

func (m *mockPlanService) GetSchedulePlans(instanceID string, studyKey string, clientInfo schedulingTypes.ClientInfo) ([]schedulingTypes.SchedulePlan, error) {
	return m.plans, nil
}

type mockCompoundDefService struct {
	defs  map[string]schedulingTypes.CompoundActivityDefinition
	calls int
}

func (m *mockCompoundDefService) GetCompoundActivityDefinition(instanceID string, studyKey string, taskID string) (schedulingTypes.CompoundActivityDefinition, error) {
	m.calls++
	def, ok := m.defs[taskID]
	if !ok {
		return schedulingTypes.CompoundActivityDefinition{}, fmt.Errorf("compound activity definition %s: %w", taskID, ErrNotFound)
	}
	return def, nil
}

type mockSchemaService struct {
	schemas map[string]schedulingTypes.UploadSchema
	calls   int
}

func (m *mockSchemaService) GetLatestSchemaRevision(instanceID string, studyKey string, schemaID string, clientInfo schedulingTypes.ClientInfo) (schedulingTypes.UploadSchema, error) {
	m.calls++
	schema, ok := m.schemas[schemaID]
	if !ok {
		return schedulingTypes.UploadSchema{}, fmt.Errorf("upload schema %s: %w", schemaID, ErrNotFound)
	}
	return schema, nil
}

type mockSurveyService struct {
	surveys map[string]schedulingTypes.Survey
	calls   int
}

func (m *mockSurveyService) GetMostRecentlyPublishedSurvey(instanceID string, studyKey string, surveyGUID string) (schedulingTypes.Survey, error) {
	m.calls++
	survey, ok := m.surveys[surveyGUID]
	if !ok {
		return schedulingTypes.Survey{}, fmt.Errorf("survey %s: %w", surveyGUID, ErrNotFound)
	}
	return survey, nil
}

type testEnv struct {
	service   *SchedulingService
	store     *mockActivityStore
	events    *mockEventService
	plans     *mockPlanService
	compounds *mockCompoundDefService
	schemas   *mockSchemaService
	surveys   *mockSurveyService
}

func newTestEnv(now time.Time) *testEnv {
	env := &testEnv{
		store:     newMockActivityStore(),
		events:    &mockEventService{},
		plans:     &mockPlanService{},
		compounds: &mockCompoundDefService{defs: map[string]schedulingTypes.CompoundActivityDefinition{}},
		schemas:   &mockSchemaService{schemas: map[string]schedulingTypes.UploadSchema{}},
		surveys:   &mockSurveyService{surveys: map[string]schedulingTypes.Survey{}},
	}
	env.service = NewSchedulingService(env.store, env.events, env.plans, env.compounds, env.schemas, env.surveys)
	env.service.now = func() time.Time { return now }
	return env
}
