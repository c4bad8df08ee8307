package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/milktrack/internal/domain/models"
)

// Farmers lists every farmer document, highest total quantity first.
func (r *MongoDBRepository) Farmers(ctx context.Context) ([]models.FarmerAggregate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "totalQuantity", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.collection(farmersCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, &models.StorageError{Op: "find farmers", Err: err}
	}
	defer cur.Close(ctx)

	out := []models.FarmerAggregate{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, &models.StorageError{Op: "decode farmers", Err: err}
	}
	return out, nil
}

// GetFarmer loads one farmer by id.
func (r *MongoDBRepository) GetFarmer(ctx context.Context, farmerID string) (models.FarmerAggregate, error) {
	var out models.FarmerAggregate
	err := r.collection(farmersCollection).FindOne(ctx, bson.M{"_id": farmerID}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.FarmerAggregate{}, models.ErrNotFound
	}
	if err != nil {
		return models.FarmerAggregate{}, &models.StorageError{Op: "get farmer", Err: err}
	}
	return out, nil
}

// FindActiveFingerprint resolves a fingerprint that is currently bound.
func (r *MongoDBRepository) FindActiveFingerprint(ctx context.Context, fingerprintID string) (models.Fingerprint, error) {
	var out models.Fingerprint
	err := r.collection(fingerprintsCollection).FindOne(ctx, bson.M{
		"fingerprintId": fingerprintID,
		"status":        models.FingerprintActive,
	}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Fingerprint{}, models.ErrNotFound
	}
	if err != nil {
		return models.Fingerprint{}, &models.StorageError{Op: "find fingerprint", Err: err}
	}
	return out, nil
}

// RegisterFarmer binds the fingerprint and creates the farmer profile
// together. ErrConflict is returned when the fingerprint is already in use.
func (r *MongoDBRepository) RegisterFarmer(ctx context.Context, fingerprint models.Fingerprint, farmer models.FarmerAggregate) error {
	err := r.inTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := r.collection(fingerprintsCollection).InsertOne(sc, fingerprint); err != nil {
			return err
		}
		if _, err := r.collection(farmersCollection).InsertOne(sc, farmer); err != nil {
			return err
		}
		return nil
	})
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrConflict
	}
	if err != nil {
		return &models.StorageError{Op: "register farmer", Err: fmt.Errorf("fingerprint %s: %w", fingerprint.FingerprintID, err)}
	}
	return nil
}
