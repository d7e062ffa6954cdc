package tokenRepo

import (
	"context"
	"sync"
	"time"

	"bunie/models"
)

// MemoryTokenRepo is an in-process Repository. It backs the degraded mode
// used when no remote store is configured, and doubles as the store fake in
// tests. Merge and timestamp semantics mirror the remote implementations.
type MemoryTokenRepo struct {
	mu   sync.Mutex
	recs map[string]models.DeviceTokenRecord

	// Now is swappable so tests can pin the server clock.
	Now func() time.Time
}

// NewMemoryTokenRepo creates an empty in-memory Repository.
func NewMemoryTokenRepo() *MemoryTokenRepo {
	return &MemoryTokenRepo{
		recs: make(map[string]models.DeviceTokenRecord),
		Now:  time.Now,
	}
}

func (r *MemoryTokenRepo) Upsert(ctx context.Context, rec *models.DeviceTokenRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.Now()
	cur, ok := r.recs[rec.DeviceID]
	if !ok {
		cur = models.DeviceTokenRecord{DeviceID: rec.DeviceID, CreatedAt: now}
	}
	cur.FCMToken = rec.FCMToken
	cur.Platform = rec.Platform
	cur.AppVersion = rec.AppVersion
	cur.IsActive = rec.IsActive
	cur.CreatedAt = now
	cur.UpdatedAt = now
	// Merge semantics: unset identity fields never clobber stored ones.
	if rec.UserID != "" {
		cur.UserID = rec.UserID
	}
	if rec.Email != "" {
		cur.Email = rec.Email
	}
	if rec.UserName != "" {
		cur.UserName = rec.UserName
	}
	r.recs[rec.DeviceID] = cur
	return nil
}

func (r *MemoryTokenRepo) UpdateFields(ctx context.Context, deviceID string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.recs[deviceID]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "fcmToken":
			cur.FCMToken, _ = v.(string)
		case "isActive":
			cur.IsActive, _ = v.(bool)
		case "userId":
			cur.UserID, _ = v.(string)
		case "email":
			cur.Email, _ = v.(string)
		case "userName":
			cur.UserName, _ = v.(string)
		case "appVersion":
			cur.AppVersion, _ = v.(string)
		}
	}
	cur.UpdatedAt = r.Now()
	r.recs[deviceID] = cur
	return nil
}

func (r *MemoryTokenRepo) DeactivateStale(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for id, cur := range r.recs {
		if !cur.IsActive || !cur.UpdatedAt.Before(cutoff) {
			continue
		}
		cur.IsActive = false
		cur.UpdatedAt = r.Now()
		r.recs[id] = cur
		count++
	}
	return count, nil
}

func (r *MemoryTokenRepo) GetByDeviceID(ctx context.Context, deviceID string) (*models.DeviceTokenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.recs[deviceID]
	if !ok {
		return nil, ErrNotFound
	}
	out := cur
	return &out, nil
}

// Len reports the number of stored records.
func (r *MemoryTokenRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.recs)
}
