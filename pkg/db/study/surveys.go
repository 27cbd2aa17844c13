package study

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bridge-framework/bridge-backend/pkg/scheduling"
	schedulingTypes "github.com/bridge-framework/bridge-backend/pkg/scheduling/types"
)

var sortByCreatedOnDesc = bson.D{
	{Key: "createdOn", Value: -1},
}

// SaveSurveyVersion stores a new version of a survey. The GUID stays the
// same across versions of one survey; CreatedOn identifies the version.
func (dbService *StudyDBService) SaveSurveyVersion(instanceID string, studyKey string, survey schedulingTypes.Survey) (schedulingTypes.Survey, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	if survey.GUID == "" {
		survey.GUID = uuid.NewString()
	}
	if survey.CreatedOn.IsZero() {
		survey.CreatedOn = time.Now()
	}

	if _, err := dbService.collectionSurveys(instanceID, studyKey).InsertOne(ctx, survey); err != nil {
		return survey, err
	}
	return survey, nil
}

// GetMostRecentlyPublishedSurvey returns the newest published version of
// the survey with the given GUID.
func (dbService *StudyDBService) GetMostRecentlyPublishedSurvey(instanceID string, studyKey string, surveyGUID string) (survey schedulingTypes.Survey, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"guid":      surveyGUID,
		"published": true,
	}

	opts := &options.FindOneOptions{}
	opts.SetSort(sortByCreatedOnDesc)

	err = dbService.collectionSurveys(instanceID, studyKey).FindOne(ctx, filter, opts).Decode(&survey)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return survey, fmt.Errorf("published survey %s: %w", surveyGUID, scheduling.ErrNotFound)
		}
		return survey, err
	}
	return survey, nil
}
