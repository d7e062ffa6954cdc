package tokenRepo

import (
	"context"
	"errors"
	"time"

	"bunie/models"
)

// ErrNotFound is returned when no record exists for a device id.
var ErrNotFound = errors.New("token record not found")

// Repository defines document-store access for device token records.
// Timestamps are owned by the store: Upsert stamps createdAt/updatedAt and
// UpdateFields refreshes updatedAt server-side; callers never pass clocks.
type Repository interface {
	// Upsert merge-writes a record keyed by its device id. Fields absent
	// from the record (unset user identity) are left untouched on an
	// existing document.
	Upsert(ctx context.Context, rec *models.DeviceTokenRecord) error
	// UpdateFields partially updates an existing record. Returns
	// ErrNotFound when no document exists for the device id.
	UpdateFields(ctx context.Context, deviceID string, fields map[string]interface{}) error
	// GetByDeviceID retrieves a record by device id.
	GetByDeviceID(ctx context.Context, deviceID string) (*models.DeviceTokenRecord, error)
	// DeactivateStale flips isActive off on every active record not
	// updated since cutoff, returning how many were deactivated. Tokens
	// untouched for months are dead weight the push backend will reject.
	DeactivateStale(ctx context.Context, cutoff time.Time) (int64, error)
}
