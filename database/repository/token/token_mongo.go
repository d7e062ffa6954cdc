package tokenRepo

import (
	"context"
	"fmt"
	"time"

	"bunie/config"
	"bunie/database"
	"bunie/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTokenRepo implements Repository using MongoDB.
type MongoTokenRepo struct {
	coll *mongo.Collection
}

// NewMongoTokenRepo creates a Repository backed by MongoDB.
func NewMongoTokenRepo(collection string) Repository {
	coll := database.MongoClient.Database(config.AppConfig.DatabaseName).Collection(collection)
	repo := &MongoTokenRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// ensureIndexes guarantees at most one record per device id.
func (r *MongoTokenRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "deviceId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "isActive", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Upsert merge-writes the record keyed by device id. Timestamps come from
// the server clock via $currentDate, never from the client.
func (r *MongoTokenRepo) Upsert(ctx context.Context, rec *models.DeviceTokenRecord) error {
	set := bson.M{
		"deviceId":   rec.DeviceID,
		"fcmToken":   rec.FCMToken,
		"platform":   string(rec.Platform),
		"appVersion": rec.AppVersion,
		"isActive":   rec.IsActive,
	}
	if rec.UserID != "" {
		set["userId"] = rec.UserID
	}
	if rec.Email != "" {
		set["email"] = rec.Email
	}
	if rec.UserName != "" {
		set["userName"] = rec.UserName
	}

	update := bson.M{
		"$set":         set,
		"$currentDate": bson.M{"createdAt": true, "updatedAt": true},
	}

	_, err := r.coll.UpdateOne(ctx, bson.M{"deviceId": rec.DeviceID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert token record for device %s: %w", rec.DeviceID, err)
	}
	return nil
}

// UpdateFields applies a partial $set plus a server-side updatedAt.
func (r *MongoTokenRepo) UpdateFields(ctx context.Context, deviceID string, fields map[string]interface{}) error {
	update := bson.M{
		"$set":         bson.M(fields),
		"$currentDate": bson.M{"updatedAt": true},
	}

	result, err := r.coll.UpdateOne(ctx, bson.M{"deviceId": deviceID}, update)
	if err != nil {
		return fmt.Errorf("failed to update token record for device %s: %w", deviceID, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateStale bulk-deactivates active records whose updatedAt
// predates cutoff.
func (r *MongoTokenRepo) DeactivateStale(ctx context.Context, cutoff time.Time) (int64, error) {
	filter := bson.M{
		"isActive":  true,
		"updatedAt": bson.M{"$lt": cutoff},
	}
	update := bson.M{
		"$set":         bson.M{"isActive": false},
		"$currentDate": bson.M{"updatedAt": true},
	}

	result, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate stale token records: %w", err)
	}
	return result.ModifiedCount, nil
}

// GetByDeviceID retrieves the record for a device id.
func (r *MongoTokenRepo) GetByDeviceID(ctx context.Context, deviceID string) (*models.DeviceTokenRecord, error) {
	var rec models.DeviceTokenRecord
	err := r.coll.FindOne(ctx, bson.M{"deviceId": deviceID}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token record for device %s: %w", deviceID, err)
	}
	return &rec, nil
}
