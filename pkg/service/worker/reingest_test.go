package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/docqa/pkg/service/worker"
	"github.com/secmon-lab/docqa/pkg/usecase"
)

// mockSetup is a mock implementation of worker.Setuper for testing
type mockSetup struct {
	mu     sync.Mutex
	runIDs []string
	err    error
	called chan struct{}
}

func newMockSetup() *mockSetup {
	return &mockSetup{called: make(chan struct{}, 16)}
}

func (m *mockSetup) Setup(ctx context.Context, runID string) (*usecase.SetupResult, error) {
	m.mu.Lock()
	m.runIDs = append(m.runIDs, runID)
	err := m.err
	m.mu.Unlock()

	select {
	case m.called <- struct{}{}:
	default:
	}
	if err != nil {
		return nil, err
	}
	return &usecase.SetupResult{RunID: runID}, nil
}

func (m *mockSetup) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runIDs)
}

func waitCalled(t *testing.T, m *mockSetup) {
	t.Helper()
	select {
	case <-m.called:
	case <-time.After(2 * time.Second):
		t.Fatal("setup was not called")
	}
}

func TestReingestWorker_RunOnStart(t *testing.T) {
	m := newMockSetup()
	w := worker.NewReingestWorker(m, 0, worker.WithRunOnStart(true))

	gt.NoError(t, w.Start(t.Context())).Required()
	waitCalled(t, m)
	w.Stop()

	gt.Value(t, m.count()).Equal(1)
	gt.Value(t, m.runIDs[0]).NotEqual("")
}

func TestReingestWorker_Periodic(t *testing.T) {
	m := newMockSetup()
	w := worker.NewReingestWorker(m, 10*time.Millisecond)

	gt.NoError(t, w.Start(t.Context())).Required()
	waitCalled(t, m)
	waitCalled(t, m)
	w.Stop()

	gt.Number(t, m.count()).GreaterOrEqual(2)

	m.mu.Lock()
	defer m.mu.Unlock()
	gt.Value(t, m.runIDs[0]).NotEqual(m.runIDs[1])
}

func TestReingestWorker_ContinuesAfterFailure(t *testing.T) {
	m := newMockSetup()
	m.err = errors.New("source unavailable")
	w := worker.NewReingestWorker(m, 10*time.Millisecond, worker.WithRunOnStart(true))

	gt.NoError(t, w.Start(t.Context())).Required()
	waitCalled(t, m)
	waitCalled(t, m)
	w.Stop()

	gt.Number(t, m.count()).GreaterOrEqual(2)
}

func TestReingestWorker_StopsOnContextCancel(t *testing.T) {
	m := newMockSetup()
	ctx, cancel := context.WithCancel(t.Context())
	w := worker.NewReingestWorker(m, time.Hour)

	gt.NoError(t, w.Start(ctx)).Required()
	cancel()

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	gt.Value(t, m.count()).Equal(0)
}

func TestReingestWorker_NegativeInterval(t *testing.T) {
	w := worker.NewReingestWorker(newMockSetup(), -time.Second)
	gt.Error(t, w.Start(t.Context()))
}
