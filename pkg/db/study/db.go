package study

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bridge-framework/bridge-backend/pkg/db"
)

// collection names
const (
	COLLECTION_NAME_SUFFIX_SCHEDULE_PLANS       = "schedulePlans"
	COLLECTION_NAME_SUFFIX_SCHEDULED_ACTIVITIES = "scheduledActivities"
	COLLECTION_NAME_SUFFIX_COMPOUND_ACTIVITIES  = "compoundActivityDefinitions"
	COLLECTION_NAME_SUFFIX_UPLOAD_SCHEMAS       = "uploadSchemas"
	COLLECTION_NAME_SUFFIX_SURVEYS              = "surveys"
	COLLECTION_NAME_SUFFIX_ACTIVITY_EVENTS      = "activityEvents"
)

type StudyDBService struct {
	DBClient        *mongo.Client
	timeout         int
	noCursorTimeout bool
	DBNamePrefix    string
	InstanceIDs     []string
	StudyKeys       []string
}

func NewStudyDBService(configs db.DBConfig) (*StudyDBService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	defer cancel()

	dbClient, err := mongo.Connect(ctx,
		options.Client().ApplyURI(configs.URI),
		options.Client().SetMaxConnIdleTime(time.Duration(configs.IdleConnTimeout)*time.Second),
		options.Client().SetMaxPoolSize(configs.MaxPoolSize),
	)
	if err != nil {
		return nil, err
	}

	ctx, conCancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	err = dbClient.Ping(ctx, nil)
	defer conCancel()

	if err != nil {
		return nil, err
	}

	studyDBSc := &StudyDBService{
		DBClient:        dbClient,
		timeout:         configs.Timeout,
		noCursorTimeout: configs.NoCursorTimeout,
		DBNamePrefix:    configs.DBNamePrefix,
		InstanceIDs:     configs.InstanceIDs,
		StudyKeys:       configs.StudyKeys,
	}

	if configs.RunIndexCreation {
		if err := studyDBSc.ensureIndexes(); err != nil {
			slog.Error("Error ensuring indexes for study DB", slog.String("error", err.Error()))
		}
	}

	return studyDBSc, nil
}

func (dbService *StudyDBService) getDBName(instanceID string) string {
	return dbService.DBNamePrefix + instanceID + "_studyDB"
}

func (dbService *StudyDBService) collectionSchedulePlans(instanceID string, studyKey string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(studyKey + "_" + COLLECTION_NAME_SUFFIX_SCHEDULE_PLANS)
}

func (dbService *StudyDBService) collectionScheduledActivities(instanceID string, studyKey string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(studyKey + "_" + COLLECTION_NAME_SUFFIX_SCHEDULED_ACTIVITIES)
}

func (dbService *StudyDBService) collectionCompoundActivityDefinitions(instanceID string, studyKey string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(studyKey + "_" + COLLECTION_NAME_SUFFIX_COMPOUND_ACTIVITIES)
}

func (dbService *StudyDBService) collectionUploadSchemas(instanceID string, studyKey string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(studyKey + "_" + COLLECTION_NAME_SUFFIX_UPLOAD_SCHEMAS)
}

func (dbService *StudyDBService) collectionSurveys(instanceID string, studyKey string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(studyKey + "_" + COLLECTION_NAME_SUFFIX_SURVEYS)
}

func (dbService *StudyDBService) collectionActivityEvents(instanceID string, studyKey string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(studyKey + "_" + COLLECTION_NAME_SUFFIX_ACTIVITY_EVENTS)
}

func (dbService *StudyDBService) getContext() (ctx context.Context, cancel context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(dbService.timeout)*time.Second)
}

func (dbService *StudyDBService) ensureIndexes() error {
	slog.Debug("Ensuring indexes for study DB")
	for _, instanceID := range dbService.InstanceIDs {
		for _, studyKey := range dbService.StudyKeys {
			err := dbService.CreateIndexForScheduledActivitiesCollection(instanceID, studyKey)
			if err != nil {
				slog.Error("Error creating index for scheduled activities", slog.String("error", err.Error()), slog.String("instanceID", instanceID), slog.String("studyKey", studyKey))
			}

			err = dbService.CreateIndexForSchedulePlansCollection(instanceID, studyKey)
			if err != nil {
				slog.Error("Error creating index for schedule plans", slog.String("error", err.Error()), slog.String("instanceID", instanceID), slog.String("studyKey", studyKey))
			}

			err = dbService.CreateIndexForActivityEventsCollection(instanceID, studyKey)
			if err != nil {
				slog.Error("Error creating index for activity events", slog.String("error", err.Error()), slog.String("instanceID", instanceID), slog.String("studyKey", studyKey))
			}

			err = dbService.CreateIndexForUploadSchemasCollection(instanceID, studyKey)
			if err != nil {
				slog.Error("Error creating index for upload schemas", slog.String("error", err.Error()), slog.String("instanceID", instanceID), slog.String("studyKey", studyKey))
			}

			err = dbService.CreateIndexForSurveysCollection(instanceID, studyKey)
			if err != nil {
				slog.Error("Error creating index for surveys", slog.String("error", err.Error()), slog.String("instanceID", instanceID), slog.String("studyKey", studyKey))
			}
		}
	}
	return nil
}

func (dbService *StudyDBService) CreateIndexForSurveysCollection(instanceID string, studyKey string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	collection := dbService.collectionSurveys(instanceID, studyKey)
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "guid", Value: 1},
				{Key: "published", Value: 1},
				{Key: "createdOn", Value: -1},
			},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (dbService *StudyDBService) CreateIndexForUploadSchemasCollection(instanceID string, studyKey string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	collection := dbService.collectionUploadSchemas(instanceID, studyKey)
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "schemaId", Value: 1},
				{Key: "revision", Value: -1},
			},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
