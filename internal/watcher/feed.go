package watcher

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const resubscribeDelay = 5 * time.Second

// changeHandler receives one document change. initial marks the baseline
// snapshot the feed replays on (re)subscribe: every pre-existing document
// arrives as an add, so creation watchers must ignore it.
type changeHandler func(ctx context.Context, kind firestore.DocumentChangeKind, doc *firestore.DocumentSnapshot, initial bool)

// listen consumes the live change feed of a collection until ctx is done,
// resubscribing after stream errors.
func listen(ctx context.Context, client *firestore.Client, collection string, logger *zap.Logger, handle changeHandler) {
	for {
		if err := listenOnce(ctx, client, collection, handle); err != nil {
			logger.Error("Change feed stream failed, resubscribing",
				zap.String("collection", collection),
				zap.Error(err),
			)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(resubscribeDelay):
		}
	}
}

func listenOnce(ctx context.Context, client *firestore.Client, collection string, handle changeHandler) error {
	iter := client.Collection(collection).Snapshots(ctx)
	defer iter.Stop()

	initial := true
	for {
		snap, err := iter.Next()
		if err != nil {
			if ctx.Err() != nil || status.Code(err) == codes.Canceled {
				return nil
			}
			return err
		}

		for _, change := range snap.Changes {
			handle(ctx, change.Kind, change.Doc, initial)
		}
		initial = false
	}
}
