package utils

import (
	"context"
	"sync"
	"time"

	"bunie/database"
)

// HealthStatus is the latest snapshot of the external collaborators the
// notification core depends on.
type HealthStatus struct {
	Firebase  bool      `json:"firebase"`
	Firestore bool      `json:"firestore"`
	Mongo     bool      `json:"mongo"`
	CheckedAt time.Time `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	healthMu      sync.RWMutex
)

// GetHealthStatus returns the latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	healthMu.RLock()
	defer healthMu.RUnlock()
	return currentHealth
}

// StartHealthMonitor performs periodic health checks and updates the
// in-memory snapshot. Backends that are not configured report false and
// are simply absent concerns for the deployment.
func StartHealthMonitor(interval time.Duration) {
	refreshHealth()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			refreshHealth()
		}
	}()
}

func refreshHealth() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status := HealthStatus{
		Firebase:  FirebaseReady(),
		CheckedAt: time.Now(),
	}
	if FirestoreClient != nil {
		// A cheap metadata read doubles as a connectivity probe.
		_, err := FirestoreClient.Collections(ctx).GetAll()
		status.Firestore = err == nil
	}
	if database.MongoClient != nil {
		status.Mongo = database.MongoClient.Ping(ctx, nil) == nil
	}

	healthMu.Lock()
	currentHealth = status
	healthMu.Unlock()
}
