package study

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	schedulingTypes "github.com/bridge-framework/bridge-backend/pkg/scheduling/types"
)

// activityEvent is one named anchor point on a participant's timeline.
// Events are write-once: publishing the same event key again keeps the
// originally recorded timestamp.
type activityEvent struct {
	HealthCode string    `bson:"healthCode"`
	EventKey   string    `bson:"eventKey"`
	Timestamp  time.Time `bson:"timestamp"`
}

func (dbService *StudyDBService) CreateIndexForActivityEventsCollection(instanceID string, studyKey string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	collection := dbService.collectionActivityEvents(instanceID, studyKey)
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "healthCode", Value: 1},
				{Key: "eventKey", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetActivityEventMap returns the participant's events keyed by event name.
func (dbService *StudyDBService) GetActivityEventMap(instanceID string, studyKey string, healthCode string) (map[string]time.Time, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	cursor, err := dbService.collectionActivityEvents(instanceID, studyKey).Find(ctx, bson.M{"healthCode": healthCode})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	eventMap := map[string]time.Time{}
	for cursor.Next(ctx) {
		var event activityEvent
		if err := cursor.Decode(&event); err != nil {
			return nil, err
		}
		eventMap[event.EventKey] = event.Timestamp
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return eventMap, nil
}

// PublishActivityEvent records a named event for a participant. Existing
// events with the same key are left untouched.
func (dbService *StudyDBService) PublishActivityEvent(instanceID string, studyKey string, healthCode string, eventKey string, timestamp time.Time) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	update := bson.M{
		"$setOnInsert": activityEvent{
			HealthCode: healthCode,
			EventKey:   eventKey,
			Timestamp:  timestamp,
		},
	}
	_, err := dbService.collectionActivityEvents(instanceID, studyKey).UpdateOne(
		ctx,
		bson.M{"healthCode": healthCode, "eventKey": eventKey},
		update,
		options.Update().SetUpsert(true),
	)
	return err
}

// PublishActivityFinishedEvent records the completion of one scheduled
// activity so other schedules can anchor on it.
func (dbService *StudyDBService) PublishActivityFinishedEvent(instanceID string, studyKey string, activity schedulingTypes.ScheduledActivity) error {
	if activity.FinishedOn == nil {
		return nil
	}
	eventKey := fmt.Sprintf("activity:%s:finished", activity.Activity.GUID)
	return dbService.PublishActivityEvent(instanceID, studyKey, activity.HealthCode, eventKey, *activity.FinishedOn)
}
