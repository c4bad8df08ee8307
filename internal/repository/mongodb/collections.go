package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/milktrack/internal/domain/models"
)

// AddCollection stores a deposit and folds it into the farmer and device
// documents in one transaction. The timestamp is assigned by the server so
// device clocks never matter. It returns the new collection id.
func (r *MongoDBRepository) AddCollection(ctx context.Context, in models.CollectionInput) (string, error) {
	id := primitive.NewObjectID()
	now := time.Now().UTC()

	var fingerprint any
	if in.FingerprintID != "" {
		fingerprint = in.FingerprintID
	}

	err := r.inTransaction(ctx, func(sc mongo.SessionContext) error {
		_, err := r.collection(collectionsCollection).UpdateOne(sc,
			bson.M{"_id": id},
			bson.M{
				"$setOnInsert": bson.M{
					"farmerId":      in.FarmerID,
					"farmerName":    in.FarmerName,
					"fingerprintId": fingerprint,
					"quantity":      in.Quantity,
					"fatContent":    in.FatContent,
					"phValue":       in.PHValue,
					"temperature":   in.Temperature,
					"deviceId":      in.DeviceID,
					"status":        string(in.EffectiveStatus()),
					"createdAt":     now.Format(time.RFC3339Nano),
				},
				"$currentDate": bson.M{"timestamp": bson.M{"$type": "date"}},
			},
			options.Update().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("insert collection: %w", err)
		}

		fingerprintStatus := models.FingerprintUnknown
		if in.FingerprintID != "" {
			fingerprintStatus = models.FingerprintRegistered
		}
		_, err = r.collection(farmersCollection).UpdateOne(sc,
			bson.M{"_id": in.FarmerID},
			bson.M{
				"$inc":         bson.M{"totalDeposits": 1, "totalQuantity": in.Quantity},
				"$currentDate": bson.M{"lastDeposit": true},
				"$set":         bson.M{"lastDeviceUsed": in.DeviceID},
				"$setOnInsert": bson.M{
					"name":              in.FarmerName,
					"fingerprintId":     fingerprint,
					"fingerprintStatus": fingerprintStatus,
					"registeredAt":      now,
				},
			},
			options.Update().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("increment farmer: %w", err)
		}

		return r.touchDevice(sc, in.DeviceID, bson.M{"lastFarmerId": in.FarmerID})
	})
	if err != nil {
		return "", &models.StorageError{Op: "add collection", Err: err}
	}

	r.logger.Debug("collection stored", zap.String("collection_id", id.Hex()), zap.String("farmer_id", in.FarmerID))
	return id.Hex(), nil
}

// ClearAll deletes every collection and zeroes every farmer aggregate in one
// transaction. Farmer profiles bound to a fingerprint survive with empty
// totals; the rest are removed.
func (r *MongoDBRepository) ClearAll(ctx context.Context) error {
	err := r.inTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := r.collection(collectionsCollection).DeleteMany(sc, bson.M{}); err != nil {
			return fmt.Errorf("delete collections: %w", err)
		}
		farmers := r.collection(farmersCollection)
		if _, err := farmers.DeleteMany(sc, bson.M{"fingerprintId": bson.M{"$in": bson.A{nil, ""}}}); err != nil {
			return fmt.Errorf("delete farmers: %w", err)
		}
		if _, err := farmers.UpdateMany(sc, bson.M{}, bson.M{
			"$set":   bson.M{"totalDeposits": 0, "totalQuantity": 0},
			"$unset": bson.M{"lastDeposit": ""},
		}); err != nil {
			return fmt.Errorf("reset farmers: %w", err)
		}
		return nil
	})
	if err != nil {
		return &models.StorageError{Op: "clear", Err: err}
	}
	r.logger.Info("all collections cleared")
	return nil
}

// recentSort orders the feed newest first. BSON compares by type before
// value, so documents whose timestamp is a legacy string sort after every
// server date; createdAt breaks ties among them.
func recentSort() bson.D {
	return bson.D{{Key: "timestamp", Value: -1}, {Key: "createdAt", Value: -1}}
}

// RecentCollections returns the newest limit collections, newest first.
func (r *MongoDBRepository) RecentCollections(ctx context.Context, limit int) ([]models.CollectionRecord, error) {
	opts := options.Find().SetSort(recentSort())
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.collection(collectionsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, &models.StorageError{Op: "find collections", Err: err}
	}
	defer cur.Close(ctx)

	var docs []collectionDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, &models.StorageError{Op: "decode collections", Err: err}
	}

	out := make([]models.CollectionRecord, 0, len(docs))
	for _, doc := range docs {
		rec, ok := doc.toRecord()
		if !ok {
			r.logger.Debug("collection without resolvable timestamp", zap.String("collection_id", rec.ID))
		}
		out = append(out, rec)
	}
	return out, nil
}
