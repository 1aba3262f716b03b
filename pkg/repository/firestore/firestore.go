package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docqa/pkg/domain/interfaces"
)

// Firestore stores vector indexes and rate limit counters in Cloud Firestore
type Firestore struct {
	client           *firestore.Client
	projectID        string
	databaseID       string
	collectionPrefix string
	now              func() time.Time
	index            *vectorIndex
}

var _ interfaces.Repository = &Firestore{}

// Option configures Firestore
type Option func(*Firestore)

// WithCollectionPrefix prefixes every collection name. Used to isolate test runs.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.collectionPrefix = prefix
	}
}

// WithClock replaces the clock used for rate limit windows
func WithClock(now func() time.Time) Option {
	return func(f *Firestore) {
		f.now = now
	}
}

// New connects to the Firestore database
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:     client,
		projectID:  projectID,
		databaseID: databaseID,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.index = newVectorIndex(f)

	return f, nil
}

func (f *Firestore) collection(name string) *firestore.CollectionRef {
	return f.client.Collection(f.collectionPrefix + name)
}

func (f *Firestore) VectorIndex() interfaces.VectorIndex {
	return f.index
}

func (f *Firestore) RateLimiter(limit int, window time.Duration) interfaces.RateLimiter {
	return &rateLimiter{
		client:     f.client,
		collection: f.collection(rateLimitCollection),
		limit:      limit,
		window:     window,
		now:        f.now,
	}
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
