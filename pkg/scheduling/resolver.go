package scheduling

import (
	"fmt"

	schedulingTypes "github.com/bridge-framework/bridge-backend/pkg/scheduling/types"
)

// referenceResolver resolves activity references to concrete immutable
// versions. Its caches live for exactly one scheduling call and are never
// shared between requests, so no locking is needed.
type referenceResolver struct {
	compoundDefService CompoundActivityDefinitionService
	schemaService      SchemaService
	surveyService      SurveyService

	criteria schedulingTypes.CriteriaContext

	compoundActivityCache map[string]schedulingTypes.CompoundActivity
	schemaCache           map[string]schedulingTypes.SchemaReference
	surveyCache           map[string]schedulingTypes.SurveyReference
}

func (s *SchedulingService) newReferenceResolver(criteria schedulingTypes.CriteriaContext) *referenceResolver {
	return &referenceResolver{
		compoundDefService:    s.compoundDefService,
		schemaService:         s.schemaService,
		surveyService:         s.surveyService,
		criteria:              criteria,
		compoundActivityCache: map[string]schedulingTypes.CompoundActivity{},
		schemaCache:           map[string]schedulingTypes.SchemaReference{},
		surveyCache:           map[string]schedulingTypes.SurveyReference{},
	}
}

// resolveActivity multiplexes on the activity type and resolves the payload
// as needed. When resolution changed nothing the scheduled activity is
// returned untouched, which keeps equality checks during reconciliation
// cheap.
func (r *referenceResolver) resolveActivity(schActivity schedulingTypes.ScheduledActivity) (schedulingTypes.ScheduledActivity, error) {
	activity := schActivity.Activity

	switch activity.ActivityType() {
	case schedulingTypes.ACTIVITY_TYPE_COMPOUND:
		compoundActivity := *activity.CompoundActivity
		resolved, err := r.resolveCompoundActivity(compoundActivity)
		if err != nil {
			return schActivity, err
		}
		if !resolved.Equal(compoundActivity) {
			schActivity.Activity = activity.WithCompoundActivity(resolved)
		}
	case schedulingTypes.ACTIVITY_TYPE_SURVEY:
		surveyRef := *activity.Survey
		resolved, err := r.resolveSurvey(surveyRef)
		if err != nil {
			return schActivity, err
		}
		if !resolved.Equal(surveyRef) {
			schActivity.Activity = activity.WithSurvey(resolved)
		}
	case schedulingTypes.ACTIVITY_TYPE_TASK:
		taskRef := *activity.Task
		if taskRef.Schema != nil {
			resolved, err := r.resolveSchema(*taskRef.Schema)
			if err != nil {
				return schActivity, err
			}
			if !resolved.Equal(*taskRef.Schema) {
				schActivity.Activity = activity.WithTask(schedulingTypes.TaskReference{
					Identifier: taskRef.Identifier,
					Schema:     &resolved,
				})
			}
		}
	default:
		return schActivity, newValidationError("activity %s has no recognizable payload", activity.GUID)
	}
	return schActivity, nil
}

// resolveCompoundActivity resolves a compound activity reference from its
// stored definition, then resolves the schema and survey references inside
// its lists. Results are cached by task identifier.
func (r *referenceResolver) resolveCompoundActivity(compoundActivity schedulingTypes.CompoundActivity) (schedulingTypes.CompoundActivity, error) {
	taskID := compoundActivity.TaskIdentifier
	if resolved, ok := r.compoundActivityCache[taskID]; ok {
		return resolved, nil
	}

	resolved := compoundActivity
	if compoundActivity.IsReference() {
		def, err := r.compoundDefService.GetCompoundActivityDefinition(r.criteria.InstanceID, r.criteria.StudyKey, taskID)
		if err != nil {
			return compoundActivity, fmt.Errorf("resolving compound activity %s: %w", taskID, err)
		}
		resolved = def.CompoundActivity
	}

	resolved, err := r.resolveListsInCompoundActivity(resolved)
	if err != nil {
		return compoundActivity, err
	}

	r.compoundActivityCache[taskID] = resolved
	return resolved, nil
}

func (r *referenceResolver) resolveListsInCompoundActivity(compoundActivity schedulingTypes.CompoundActivity) (schedulingTypes.CompoundActivity, error) {
	isModified := false

	schemaList := make([]schedulingTypes.SchemaReference, 0, len(compoundActivity.SchemaList))
	for _, schemaRef := range compoundActivity.SchemaList {
		resolved, err := r.resolveSchema(schemaRef)
		if err != nil {
			return compoundActivity, err
		}
		schemaList = append(schemaList, resolved)
		if !resolved.Equal(schemaRef) {
			isModified = true
		}
	}

	surveyList := make([]schedulingTypes.SurveyReference, 0, len(compoundActivity.SurveyList))
	for _, surveyRef := range compoundActivity.SurveyList {
		resolved, err := r.resolveSurvey(surveyRef)
		if err != nil {
			return compoundActivity, err
		}
		surveyList = append(surveyList, resolved)
		if !resolved.Equal(surveyRef) {
			isModified = true
		}
	}

	if !isModified {
		return compoundActivity, nil
	}
	compoundActivity.SchemaList = schemaList
	compoundActivity.SurveyList = surveyList
	return compoundActivity, nil
}

// resolveSchema resolves a schema reference to the latest revision visible
// to the calling client. Already resolved references pass through without
// I/O.
func (r *referenceResolver) resolveSchema(schemaRef schedulingTypes.SchemaReference) (schedulingTypes.SchemaReference, error) {
	if schemaRef.IsResolved() {
		return schemaRef, nil
	}

	if resolved, ok := r.schemaCache[schemaRef.ID]; ok {
		return resolved, nil
	}
	schema, err := r.schemaService.GetLatestSchemaRevision(r.criteria.InstanceID, r.criteria.StudyKey, schemaRef.ID, r.criteria.ClientInfo)
	if err != nil {
		return schemaRef, fmt.Errorf("resolving schema %s: %w", schemaRef.ID, err)
	}
	resolved := schedulingTypes.SchemaReference{ID: schemaRef.ID, Revision: &schema.Revision}
	r.schemaCache[schemaRef.ID] = resolved
	return resolved, nil
}

// resolveSurvey resolves a survey reference to the most recently published
// version.
func (r *referenceResolver) resolveSurvey(surveyRef schedulingTypes.SurveyReference) (schedulingTypes.SurveyReference, error) {
	if surveyRef.IsResolved() {
		return surveyRef, nil
	}

	if resolved, ok := r.surveyCache[surveyRef.GUID]; ok {
		return resolved, nil
	}
	survey, err := r.surveyService.GetMostRecentlyPublishedSurvey(r.criteria.InstanceID, r.criteria.StudyKey, surveyRef.GUID)
	if err != nil {
		return surveyRef, fmt.Errorf("resolving survey %s: %w", surveyRef.GUID, err)
	}
	createdOn := survey.CreatedOn
	resolved := schedulingTypes.SurveyReference{
		Identifier: survey.Identifier,
		GUID:       surveyRef.GUID,
		CreatedOn:  &createdOn,
	}
	r.surveyCache[surveyRef.GUID] = resolved
	return resolved, nil
}
