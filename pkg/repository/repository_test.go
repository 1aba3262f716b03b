package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/docqa/pkg/domain/interfaces"
	"github.com/secmon-lab/docqa/pkg/repository/firestore"
	"github.com/secmon-lab/docqa/pkg/repository/memory"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func newMemoryRepository(t *testing.T, c *clock) interfaces.Repository {
	t.Helper()
	return memory.New(memory.WithClock(c.Now))
}

func newFirestoreRepository(t *testing.T, c *clock) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("test_%d_", time.Now().UnixNano())
	repo, err := firestore.New(ctx, projectID, databaseID,
		firestore.WithCollectionPrefix(prefix),
		firestore.WithClock(c.Now))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}
