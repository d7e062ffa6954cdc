// utils/firebase.go
package utils

import (
	"context"
	"fmt"

	"bunie/config"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var (
	FirebaseApp     *firebase.App
	FCMClient       *messaging.Client
	FirestoreClient *firestore.Client
)

// FirebaseInit initializes the Firebase App, Messaging and Firestore
// clients. A failure here is not fatal: the shell must still come up in
// degraded mode (no push, no remote persistence) when Firebase is
// unreachable, so the error is returned for the caller to log.
func FirebaseInit() error {
	ctx := context.Background()

	var opts []option.ClientOption
	if config.AppConfig.FirebaseCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.AppConfig.FirebaseCredentialsFile))
	}
	var conf *firebase.Config
	if config.AppConfig.FirebaseProjectID != "" {
		conf = &firebase.Config{ProjectID: config.AppConfig.FirebaseProjectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return fmt.Errorf("firebase: error initializing app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("firebase: error getting Messaging client: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return fmt.Errorf("firebase: error getting Firestore client: %w", err)
	}

	FirebaseApp = app
	FCMClient = client
	FirestoreClient = fs
	return nil
}

// FirebaseReady reports whether an initialized app instance is available.
func FirebaseReady() bool {
	return FirebaseApp != nil && FCMClient != nil
}
