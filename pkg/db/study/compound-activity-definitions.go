package study

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bridge-framework/bridge-backend/pkg/scheduling"
	schedulingTypes "github.com/bridge-framework/bridge-backend/pkg/scheduling/types"
)

func (dbService *StudyDBService) SaveCompoundActivityDefinition(instanceID string, studyKey string, def schedulingTypes.CompoundActivityDefinition) (schedulingTypes.CompoundActivityDefinition, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	def.ModifiedAt = time.Now().Unix()

	upsert := true
	rd := options.After
	opts := options.FindOneAndReplaceOptions{
		Upsert:         &upsert,
		ReturnDocument: &rd,
	}
	elem := schedulingTypes.CompoundActivityDefinition{}
	err := dbService.collectionCompoundActivityDefinitions(instanceID, studyKey).FindOneAndReplace(
		ctx, bson.M{"taskId": def.TaskID}, def, &opts,
	).Decode(&elem)
	return elem, err
}

func (dbService *StudyDBService) GetCompoundActivityDefinition(instanceID string, studyKey string, taskID string) (def schedulingTypes.CompoundActivityDefinition, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	err = dbService.collectionCompoundActivityDefinitions(instanceID, studyKey).FindOne(ctx, bson.M{"taskId": taskID}).Decode(&def)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return def, fmt.Errorf("compound activity definition %s: %w", taskID, scheduling.ErrNotFound)
		}
		return def, err
	}
	return def, nil
}

func (dbService *StudyDBService) DeleteCompoundActivityDefinition(instanceID string, studyKey string, taskID string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	res, err := dbService.collectionCompoundActivityDefinitions(instanceID, studyKey).DeleteOne(ctx, bson.M{"taskId": taskID})
	if err != nil {
		return err
	}
	if res.DeletedCount < 1 {
		return fmt.Errorf("compound activity definition %s: %w", taskID, scheduling.ErrNotFound)
	}
	return nil
}
