package main

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	studyDB "github.com/bridge-framework/bridge-backend/pkg/db/study"
	schedulingTypes "github.com/bridge-framework/bridge-backend/pkg/scheduling/types"
)

func main() {
	slog.Info("Starting activity cleanup job")
	start := time.Now()

	cutoff := time.Now().AddDate(0, 0, -conf.CleanUpConfig.RetentionDays)

	for _, instanceID := range conf.InstanceIDs {
		for _, studyKey := range conf.StudyKeys {
			cleanUpExpiredActivities(instanceID, studyKey, cutoff)
		}
	}

	slog.Info("Activity cleanup job completed", slog.String("duration", time.Since(start).String()))
}

// cleanUpExpiredActivities removes persisted activities that expired before
// the cutoff and were never started. Started or finished activities are
// participant data and are kept.
func cleanUpExpiredActivities(instanceID string, studyKey string, cutoff time.Time) {
	slog.Debug("Cleaning up expired activities", slog.String("instanceID", instanceID), slog.String("studyKey", studyKey))

	filter := bson.M{
		"expiresOn":  bson.M{"$lt": cutoff},
		"startedOn":  bson.M{"$exists": false},
		"finishedOn": bson.M{"$exists": false},
	}

	removed := 0
	err := studyDBService.FindAndExecuteOnScheduledActivities(
		context.Background(),
		instanceID,
		studyKey,
		filter,
		false,
		func(dbService *studyDB.StudyDBService, activity schedulingTypes.ScheduledActivity, instanceID string, studyKey string, args ...interface{}) error {
			if err := dbService.DeleteScheduledActivity(instanceID, studyKey, activity.HealthCode, activity.GUID); err != nil {
				return err
			}
			removed++
			return nil
		},
	)
	if err != nil {
		slog.Error("Failed to clean up expired activities", slog.String("error", err.Error()), slog.String("instanceID", instanceID), slog.String("studyKey", studyKey))
		return
	}

	slog.Info("Removed expired activities",
		slog.String("instanceID", instanceID),
		slog.String("studyKey", studyKey),
		slog.Int("count", removed))
}
