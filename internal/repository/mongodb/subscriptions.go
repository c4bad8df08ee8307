package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/milktrack/internal/domain/models"
	"github.com/mamadbah2/milktrack/internal/repository"
)

// SubscribeCollections publishes the newest limit collections now and again
// after every change to the collection.
func (r *MongoDBRepository) SubscribeCollections(ctx context.Context, limit int) *repository.Subscription[[]models.CollectionRecord] {
	return repository.Subscribe(ctx, collectionsCollection, r.logger,
		func(ctx context.Context, publish repository.Publisher[[]models.CollectionRecord]) error {
			return r.watch(ctx, collectionsCollection, func(ctx context.Context) error {
				records, err := r.RecentCollections(ctx, limit)
				if err != nil {
					return err
				}
				publish(records)
				return nil
			})
		})
}

// SubscribeFarmers publishes the farmer list on every change.
func (r *MongoDBRepository) SubscribeFarmers(ctx context.Context) *repository.Subscription[[]models.FarmerAggregate] {
	return repository.Subscribe(ctx, farmersCollection, r.logger,
		func(ctx context.Context, publish repository.Publisher[[]models.FarmerAggregate]) error {
			return r.watch(ctx, farmersCollection, func(ctx context.Context) error {
				farmers, err := r.Farmers(ctx)
				if err != nil {
					return err
				}
				publish(farmers)
				return nil
			})
		})
}

// SubscribeDevices publishes the device list on every change.
func (r *MongoDBRepository) SubscribeDevices(ctx context.Context) *repository.Subscription[[]models.DeviceStatus] {
	return repository.Subscribe(ctx, devicesCollection, r.logger,
		func(ctx context.Context, publish repository.Publisher[[]models.DeviceStatus]) error {
			return r.watch(ctx, devicesCollection, func(ctx context.Context) error {
				devices, err := r.Devices(ctx)
				if err != nil {
					return err
				}
				publish(devices)
				return nil
			})
		})
}

// watch opens a change stream before the first read so no change slips in
// between, then re-reads the full snapshot after every event.
func (r *MongoDBRepository) watch(ctx context.Context, name string, refresh func(context.Context) error) error {
	stream, err := r.collection(name).Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return &models.StorageError{Op: "watch " + name, Err: err}
	}
	defer stream.Close(context.Background())

	if err := refresh(ctx); err != nil {
		return err
	}
	for stream.Next(ctx) {
		if err := refresh(ctx); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return &models.StorageError{Op: "watch " + name, Err: err}
	}
	return ctx.Err()
}
