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

func (dbService *StudyDBService) CreateIndexForSchedulePlansCollection(instanceID string, studyKey string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	collection := dbService.collectionSchedulePlans(instanceID, studyKey)
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "guid", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "deleted", Value: 1},
			},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// SaveSchedulePlan upserts a schedule plan by GUID. Plans and plan
// activities without a GUID get one minted here; the activity GUID is the
// stable half of every scheduled activity identity, so it must never change
// once assigned.
func (dbService *StudyDBService) SaveSchedulePlan(instanceID string, studyKey string, plan schedulingTypes.SchedulePlan) (schedulingTypes.SchedulePlan, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	if plan.GUID == "" {
		plan.GUID = uuid.NewString()
	}
	if plan.Schedule != nil {
		ensureActivityGUIDs(plan.Schedule.Activities)
	}
	for i := range plan.ScheduleCriteria {
		ensureActivityGUIDs(plan.ScheduleCriteria[i].Schedule.Activities)
	}
	plan.ModifiedAt = time.Now().Unix()

	upsert := true
	rd := options.After
	opts := options.FindOneAndReplaceOptions{
		Upsert:         &upsert,
		ReturnDocument: &rd,
	}
	elem := schedulingTypes.SchedulePlan{}
	err := dbService.collectionSchedulePlans(instanceID, studyKey).FindOneAndReplace(
		ctx, bson.M{"guid": plan.GUID}, plan, &opts,
	).Decode(&elem)
	return elem, err
}

func ensureActivityGUIDs(activities []schedulingTypes.Activity) {
	for i := range activities {
		if activities[i].GUID == "" {
			activities[i].GUID = uuid.NewString()
		}
	}
}

func (dbService *StudyDBService) GetSchedulePlanByGUID(instanceID string, studyKey string, guid string) (plan schedulingTypes.SchedulePlan, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	err = dbService.collectionSchedulePlans(instanceID, studyKey).FindOne(ctx, bson.M{"guid": guid}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return plan, fmt.Errorf("schedule plan %s: %w", guid, scheduling.ErrNotFound)
		}
		return plan, err
	}
	return plan, nil
}

// GetSchedulePlans returns the plans of a study visible to the given client
// version.
func (dbService *StudyDBService) GetSchedulePlans(instanceID string, studyKey string, clientInfo schedulingTypes.ClientInfo) (plans []schedulingTypes.SchedulePlan, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"deleted": bson.M{"$ne": true},
		"$and": []bson.M{
			{"$or": []bson.M{
				{"minAppVersion": bson.M{"$exists": false}},
				{"minAppVersion": bson.M{"$lte": clientInfo.AppVersion}},
			}},
			{"$or": []bson.M{
				{"maxAppVersion": bson.M{"$exists": false}},
				{"maxAppVersion": bson.M{"$gte": clientInfo.AppVersion}},
			}},
		},
	}

	cursor, err := dbService.collectionSchedulePlans(instanceID, studyKey).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans = []schedulingTypes.SchedulePlan{}
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (dbService *StudyDBService) DeleteSchedulePlan(instanceID string, studyKey string, guid string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	res, err := dbService.collectionSchedulePlans(instanceID, studyKey).UpdateOne(
		ctx,
		bson.M{"guid": guid},
		bson.M{"$set": bson.M{"deleted": true, "modifiedAt": time.Now().Unix()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount < 1 {
		return fmt.Errorf("schedule plan %s: %w", guid, scheduling.ErrNotFound)
	}
	return nil
}
