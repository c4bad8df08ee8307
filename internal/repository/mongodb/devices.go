package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/milktrack/internal/domain/models"
)

// Heartbeat marks the device online with the given status.
func (r *MongoDBRepository) Heartbeat(ctx context.Context, deviceID, status string) error {
	if err := r.touchDevice(ctx, deviceID, bson.M{"status": status}); err != nil {
		return &models.StorageError{Op: "heartbeat", Err: err}
	}
	return nil
}

// Devices lists every device document.
func (r *MongoDBRepository) Devices(ctx context.Context) ([]models.DeviceStatus, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := r.collection(devicesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, &models.StorageError{Op: "find devices", Err: err}
	}
	defer cur.Close(ctx)

	out := []models.DeviceStatus{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, &models.StorageError{Op: "decode devices", Err: err}
	}
	return out, nil
}

func (r *MongoDBRepository) touchDevice(ctx context.Context, deviceID string, fields bson.M) error {
	set := bson.M{"online": true}
	for k, v := range fields {
		set[k] = v
	}
	_, err := r.collection(devicesCollection).UpdateOne(ctx,
		bson.M{"_id": deviceID},
		bson.M{
			"$set":         set,
			"$currentDate": bson.M{"lastActivity": true},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert device %s: %w", deviceID, err)
	}
	return nil
}
