package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprintdeck/sprintdeck/internal/common/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json", OutputPath: "stdout"})
	require.NoError(t, err)
	return log
}

// flakyGateway fails ListProjects a fixed number of times before delegating.
type flakyGateway struct {
	*MemoryGateway
	remaining int
	calls     int
}

func (f *flakyGateway) ListProjects(ctx context.Context, ownerID string) ([]*ProjectRecord, error) {
	f.calls++
	if f.remaining > 0 {
		f.remaining--
		return nil, errors.New("transient failure")
	}
	return f.MemoryGateway.ListProjects(ctx, ownerID)
}

func TestRetrying_RecoversFromTransientFailures(t *testing.T) {
	mem := NewMemoryGateway()
	_, err := mem.InsertProject(context.Background(), &ProjectRecord{Title: "Alpha", OwnerID: "u1"})
	require.NoError(t, err)

	flaky := &flakyGateway{MemoryGateway: mem, remaining: 2}
	gw := NewRetrying(flaky, RetryConfig{Attempts: 3, Delay: time.Millisecond}, testLogger(t))

	records, err := gw.ListProjects(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 3, flaky.calls)
}

func TestRetrying_ExhaustsAttempts(t *testing.T) {
	flaky := &flakyGateway{MemoryGateway: NewMemoryGateway(), remaining: 10}
	gw := NewRetrying(flaky, RetryConfig{Attempts: 3, Delay: time.Millisecond}, testLogger(t))

	_, err := gw.ListProjects(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, "transient failure", err.Error())
	assert.Equal(t, 3, flaky.calls)
}

func TestRetrying_NoRetryOnSuccess(t *testing.T) {
	flaky := &flakyGateway{MemoryGateway: NewMemoryGateway()}
	gw := NewRetrying(flaky, RetryConfig{Attempts: 3, Delay: time.Millisecond}, testLogger(t))

	_, err := gw.ListProjects(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, flaky.calls)
}

func TestRetrying_ContextCancelStopsRetrying(t *testing.T) {
	mem := NewMemoryGateway()
	mem.FailWith("ListSprints", errors.New("down"))
	gw := NewRetrying(mem, RetryConfig{Attempts: 5, Delay: time.Hour}, testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := gw.ListSprints(ctx, "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetrying_MutationRetries(t *testing.T) {
	mem := NewMemoryGateway()
	stored, err := mem.InsertTask(context.Background(), &TaskRecord{ProjectID: "p1", Title: "t"})
	require.NoError(t, err)

	mem.FailWith("DeleteTask", errors.New("down"))
	gw := NewRetrying(mem, RetryConfig{Attempts: 2, Delay: time.Millisecond}, testLogger(t))

	err = gw.DeleteTask(context.Background(), stored.ID)
	require.Error(t, err)

	// Clearing the fault lets the same call succeed.
	mem.FailWith("DeleteTask", nil)
	require.NoError(t, gw.DeleteTask(context.Background(), stored.ID))
}

func TestRetrying_ZeroAttemptsClampedToOne(t *testing.T) {
	flaky := &flakyGateway{MemoryGateway: NewMemoryGateway(), remaining: 10}
	gw := NewRetrying(flaky, RetryConfig{Attempts: 0, Delay: 0}, testLogger(t))

	_, err := gw.ListProjects(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, 1, flaky.calls)
}
