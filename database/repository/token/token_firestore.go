package tokenRepo

import (
	"context"
	"fmt"
	"time"

	"bunie/models"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreTokenRepo implements Repository on a Firestore collection.
type FirestoreTokenRepo struct {
	coll *firestore.CollectionRef
}

// NewFirestoreTokenRepo creates a Repository backed by the given Firestore
// client and collection name.
func NewFirestoreTokenRepo(client *firestore.Client, collection string) Repository {
	return &FirestoreTokenRepo{coll: client.Collection(collection)}
}

// Upsert merge-writes the record using the device id as document id so a
// device never accumulates duplicate documents.
func (r *FirestoreTokenRepo) Upsert(ctx context.Context, rec *models.DeviceTokenRecord) error {
	doc := map[string]interface{}{
		"deviceId":   rec.DeviceID,
		"fcmToken":   rec.FCMToken,
		"platform":   string(rec.Platform),
		"appVersion": rec.AppVersion,
		"isActive":   rec.IsActive,
		"createdAt":  firestore.ServerTimestamp,
		"updatedAt":  firestore.ServerTimestamp,
	}
	if rec.UserID != "" {
		doc["userId"] = rec.UserID
	}
	if rec.Email != "" {
		doc["email"] = rec.Email
	}
	if rec.UserName != "" {
		doc["userName"] = rec.UserName
	}

	if _, err := r.coll.Doc(rec.DeviceID).Set(ctx, doc, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to upsert token record for device %s: %w", rec.DeviceID, err)
	}
	return nil
}

// UpdateFields applies a partial update plus a server-side updatedAt.
func (r *FirestoreTokenRepo) UpdateFields(ctx context.Context, deviceID string, fields map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(fields)+1)
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: firestore.ServerTimestamp})

	if _, err := r.coll.Doc(deviceID).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update token record for device %s: %w", deviceID, err)
	}
	return nil
}

// DeactivateStale queries active records with a stale updatedAt and flips
// them off one by one. The collection is small (one document per physical
// device), so a batched write is not worth the complexity.
func (r *FirestoreTokenRepo) DeactivateStale(ctx context.Context, cutoff time.Time) (int64, error) {
	iter := r.coll.
		Where("isActive", "==", true).
		Where("updatedAt", "<", cutoff).
		Documents(ctx)
	defer iter.Stop()

	var count int64
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return count, fmt.Errorf("failed to scan stale token records: %w", err)
		}
		_, err = snap.Ref.Update(ctx, []firestore.Update{
			{Path: "isActive", Value: false},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
		if err != nil {
			return count, fmt.Errorf("failed to deactivate stale token record %s: %w", snap.Ref.ID, err)
		}
		count++
	}
	return count, nil
}

// GetByDeviceID retrieves the record for a device id.
func (r *FirestoreTokenRepo) GetByDeviceID(ctx context.Context, deviceID string) (*models.DeviceTokenRecord, error) {
	snap, err := r.coll.Doc(deviceID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch token record for device %s: %w", deviceID, err)
	}

	var rec models.DeviceTokenRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode token record for device %s: %w", deviceID, err)
	}
	return &rec, nil
}
