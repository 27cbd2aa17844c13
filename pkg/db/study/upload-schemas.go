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

// CreateUploadSchemaRevision stores a new revision of an upload schema,
// numbered one above the currently highest revision.
func (dbService *StudyDBService) CreateUploadSchemaRevision(instanceID string, studyKey string, schema schedulingTypes.UploadSchema) (schedulingTypes.UploadSchema, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	var latest schedulingTypes.UploadSchema
	opts := options.FindOne().SetSort(bson.D{{Key: "revision", Value: -1}})
	err := dbService.collectionUploadSchemas(instanceID, studyKey).FindOne(ctx, bson.M{"schemaId": schema.SchemaID}, opts).Decode(&latest)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return schema, err
	}
	schema.Revision = latest.Revision + 1
	schema.CreatedAt = time.Now().Unix()

	if _, err := dbService.collectionUploadSchemas(instanceID, studyKey).InsertOne(ctx, schema); err != nil {
		return schema, err
	}
	return schema, nil
}

// GetLatestSchemaRevision returns the highest schema revision visible to
// the calling client version.
func (dbService *StudyDBService) GetLatestSchemaRevision(instanceID string, studyKey string, schemaID string, clientInfo schedulingTypes.ClientInfo) (schema schedulingTypes.UploadSchema, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"schemaId": schemaID,
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

	opts := options.FindOne().SetSort(bson.D{{Key: "revision", Value: -1}})
	err = dbService.collectionUploadSchemas(instanceID, studyKey).FindOne(ctx, filter, opts).Decode(&schema)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return schema, fmt.Errorf("upload schema %s: %w", schemaID, scheduling.ErrNotFound)
		}
		return schema, err
	}
	return schema, nil
}
