package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const rateLimitCollection = "rate_limits"

// rateLimitDoc counts calls of one key within one fixed window. ExpireAt is
// meant for a Firestore TTL policy.
type rateLimitDoc struct {
	Count       int64     `firestore:"Count"`
	WindowStart time.Time `firestore:"WindowStart"`
	ExpireAt    time.Time `firestore:"ExpireAt"`
}

type rateLimiter struct {
	client     *firestore.Client
	collection *firestore.CollectionRef
	limit      int
	window     time.Duration
	now        func() time.Time
}

func (r *rateLimiter) docID(key string, start time.Time) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16]) + "_" + strconv.FormatInt(start.Unix(), 10)
}

func (r *rateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r.limit <= 0 {
		return true, nil
	}

	start := r.now().UTC().Truncate(r.window)
	ref := r.collection.Doc(r.docID(key, start))

	var allowed bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		allowed = false

		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				allowed = true
				return tx.Set(ref, &rateLimitDoc{
					Count:       1,
					WindowStart: start,
					ExpireAt:    start.Add(r.window),
				})
			}
			return goerr.Wrap(err, "failed to get rate limit counter")
		}

		var d rateLimitDoc
		if err := doc.DataTo(&d); err != nil {
			return goerr.Wrap(err, "failed to unmarshal rate limit counter")
		}
		if d.Count >= int64(r.limit) {
			return nil
		}

		allowed = true
		return tx.Update(ref, []firestore.Update{
			{Path: "Count", Value: firestore.Increment(1)},
		})
	})
	if err != nil {
		return false, goerr.Wrap(err, "failed to check rate limit", goerr.V("window", start))
	}

	return allowed, nil
}
