package scheduling

import (
	"time"

	schedulingTypes "github.com/bridge-framework/bridge-backend/pkg/scheduling/types"
)

// ActivityStore persists scheduled activity occurrences. Implementations
// must upsert by GUID on save so concurrent recomputations stay idempotent.
type ActivityStore interface {
	GetScheduledActivities(instanceID string, studyKey string, healthCode string, tz *time.Location, guids []string) ([]schedulingTypes.ScheduledActivity, error)
	GetScheduledActivity(instanceID string, studyKey string, healthCode string, guid string) (schedulingTypes.ScheduledActivity, error)
	SaveScheduledActivities(instanceID string, studyKey string, activities []schedulingTypes.ScheduledActivity) error
	UpdateScheduledActivities(instanceID string, studyKey string, healthCode string, activities []schedulingTypes.ScheduledActivity) error
	DeleteScheduledActivitiesForParticipant(instanceID string, studyKey string, healthCode string) (int64, error)
}

// ActivityEventService provides the named events used as recurrence anchors
// and records activity lifecycle events.
type ActivityEventService interface {
	GetActivityEventMap(instanceID string, studyKey string, healthCode string) (map[string]time.Time, error)
	PublishActivityFinishedEvent(instanceID string, studyKey string, activity schedulingTypes.ScheduledActivity) error
}

type SchedulePlanService interface {
	GetSchedulePlans(instanceID string, studyKey string, clientInfo schedulingTypes.ClientInfo) ([]schedulingTypes.SchedulePlan, error)
}

type CompoundActivityDefinitionService interface {
	GetCompoundActivityDefinition(instanceID string, studyKey string, taskID string) (schedulingTypes.CompoundActivityDefinition, error)
}

type SchemaService interface {
	GetLatestSchemaRevision(instanceID string, studyKey string, schemaID string, clientInfo schedulingTypes.ClientInfo) (schedulingTypes.UploadSchema, error)
}

type SurveyService interface {
	GetMostRecentlyPublishedSurvey(instanceID string, studyKey string, surveyGUID string) (schedulingTypes.Survey, error)
}

// SchedulingService computes, reconciles and persists the scheduled
// activities of participants. All collaborators are injected; one instance
// serves concurrent requests since per-request state lives in the call.
type SchedulingService struct {
	activityStore      ActivityStore
	eventService       ActivityEventService
	planService        SchedulePlanService
	compoundDefService CompoundActivityDefinitionService
	schemaService      SchemaService
	surveyService      SurveyService

	now func() time.Time
}

func NewSchedulingService(
	activityStore ActivityStore,
	eventService ActivityEventService,
	planService SchedulePlanService,
	compoundDefService CompoundActivityDefinitionService,
	schemaService SchemaService,
	surveyService SurveyService,
) *SchedulingService {
	return &SchedulingService{
		activityStore:      activityStore,
		eventService:       eventService,
		planService:        planService,
		compoundDefService: compoundDefService,
		schemaService:      schemaService,
		surveyService:      surveyService,
		now:                time.Now,
	}
}
