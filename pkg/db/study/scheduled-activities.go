package study

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/net/context"

	"github.com/bridge-framework/bridge-backend/pkg/scheduling"
	schedulingTypes "github.com/bridge-framework/bridge-backend/pkg/scheduling/types"
)

func (dbService *StudyDBService) CreateIndexForScheduledActivitiesCollection(instanceID string, studyKey string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	collection := dbService.collectionScheduledActivities(instanceID, studyKey)
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "healthCode", Value: 1},
				{Key: "guid", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "healthCode", Value: 1},
				{Key: "scheduledOn", Value: 1},
			},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetScheduledActivities returns the persisted activities of a participant
// matching the given GUIDs. Timestamps are localized into tz before they
// are returned.
func (dbService *StudyDBService) GetScheduledActivities(instanceID string, studyKey string, healthCode string, tz *time.Location, guids []string) (activities []schedulingTypes.ScheduledActivity, err error) {
	if len(guids) == 0 {
		return []schedulingTypes.ScheduledActivity{}, nil
	}

	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"healthCode": healthCode,
		"guid":       bson.M{"$in": guids},
	}

	cursor, err := dbService.collectionScheduledActivities(instanceID, studyKey).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	activities = []schedulingTypes.ScheduledActivity{}
	if err = cursor.All(ctx, &activities); err != nil {
		return nil, err
	}
	if tz != nil {
		for i := range activities {
			activities[i].ScheduledOn = activities[i].ScheduledOn.In(tz)
			if activities[i].ExpiresOn != nil {
				expiresOn := activities[i].ExpiresOn.In(tz)
				activities[i].ExpiresOn = &expiresOn
			}
		}
	}
	return activities, nil
}

func (dbService *StudyDBService) GetScheduledActivity(instanceID string, studyKey string, healthCode string, guid string) (activity schedulingTypes.ScheduledActivity, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"healthCode": healthCode,
		"guid":       guid,
	}

	err = dbService.collectionScheduledActivities(instanceID, studyKey).FindOne(ctx, filter).Decode(&activity)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return activity, fmt.Errorf("scheduled activity %s: %w", guid, scheduling.ErrNotFound)
		}
		return activity, err
	}
	return activity, nil
}

// SaveScheduledActivities upserts freshly generated occurrences by
// (healthCode, guid). Participant-entered startedOn/finishedOn values are
// deliberately left alone so a concurrent recomputation cannot clobber
// them.
func (dbService *StudyDBService) SaveScheduledActivities(instanceID string, studyKey string, activities []schedulingTypes.ScheduledActivity) error {
	if len(activities) == 0 {
		return nil
	}

	ctx, cancel := dbService.getContext()
	defer cancel()

	writes := make([]mongo.WriteModel, 0, len(activities))
	for _, activity := range activities {
		update := bson.M{
			"$set": bson.M{
				"activity":         activity.Activity,
				"schedulePlanGuid": activity.SchedulePlanGUID,
				"scheduledOn":      activity.ScheduledOn,
				"expiresOn":        activity.ExpiresOn,
				"timezone":         activity.TimeZone,
			},
			"$setOnInsert": bson.M{
				"healthCode": activity.HealthCode,
				"guid":       activity.GUID,
			},
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"healthCode": activity.HealthCode, "guid": activity.GUID}).
			SetUpdate(update).
			SetUpsert(true))
	}

	_, err := dbService.collectionScheduledActivities(instanceID, studyKey).BulkWrite(ctx, writes)
	return err
}

// UpdateScheduledActivities writes the participant-entered timestamps of
// the given batch.
func (dbService *StudyDBService) UpdateScheduledActivities(instanceID string, studyKey string, healthCode string, activities []schedulingTypes.ScheduledActivity) error {
	if len(activities) == 0 {
		return nil
	}

	ctx, cancel := dbService.getContext()
	defer cancel()

	writes := make([]mongo.WriteModel, 0, len(activities))
	for _, activity := range activities {
		set := bson.M{}
		if activity.StartedOn != nil {
			set["startedOn"] = activity.StartedOn
		}
		if activity.FinishedOn != nil {
			set["finishedOn"] = activity.FinishedOn
		}
		if len(set) == 0 {
			continue
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"healthCode": healthCode, "guid": activity.GUID}).
			SetUpdate(bson.M{"$set": set}))
	}
	if len(writes) == 0 {
		return nil
	}

	_, err := dbService.collectionScheduledActivities(instanceID, studyKey).BulkWrite(ctx, writes)
	return err
}

func (dbService *StudyDBService) DeleteScheduledActivitiesForParticipant(instanceID string, studyKey string, healthCode string) (count int64, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	res, err := dbService.collectionScheduledActivities(instanceID, studyKey).DeleteMany(ctx, bson.M{"healthCode": healthCode})
	if err != nil {
		return 0, err
	}
	slog.Debug("deleted scheduled activities", slog.String("instanceID", instanceID), slog.String("studyKey", studyKey), slog.Int64("count", res.DeletedCount))
	return res.DeletedCount, nil
}

func (dbService *StudyDBService) DeleteScheduledActivity(instanceID string, studyKey string, healthCode string, guid string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_, err := dbService.collectionScheduledActivities(instanceID, studyKey).DeleteOne(ctx, bson.M{
		"healthCode": healthCode,
		"guid":       guid,
	})
	return err
}

// execute function on scheduled activities
func (dbService *StudyDBService) FindAndExecuteOnScheduledActivities(
	ctx context.Context,
	instanceID string,
	studyKey string,
	filter bson.M,
	returnOnErr bool,
	fn func(dbService *StudyDBService, activity schedulingTypes.ScheduledActivity, instanceID string, studyKey string, args ...interface{}) error,
	args ...interface{},
) error {
	cursor, err := dbService.collectionScheduledActivities(instanceID, studyKey).Find(ctx, filter)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var activity schedulingTypes.ScheduledActivity
		if err = cursor.Decode(&activity); err != nil {
			return err
		}
		if err = fn(
			dbService,
			activity,
			instanceID,
			studyKey,
			args...,
		); err != nil {
			slog.Error("Error executing function on scheduled activity", slog.String("guid", activity.GUID), slog.String("error", err.Error()))
			if returnOnErr {
				return err
			}
			continue
		}
	}
	return nil
}
