package gateway

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sprintdeck/sprintdeck/internal/common/logger"
)

// RetryConfig bounds the retry behaviour for remote calls.
type RetryConfig struct {
	Attempts int           // total attempts, including the first
	Delay    time.Duration // fixed delay between attempts
}

// DefaultRetryConfig returns the default retry bounds.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts: 3,
		Delay:    250 * time.Millisecond,
	}
}

// Retrying decorates a Gateway with bounded retry on failure. Every call is
// retried up to Attempts times with a fixed delay; the last error is returned
// once the bound is exhausted. Context cancellation stops retrying early.
type Retrying struct {
	next   Gateway
	config RetryConfig
	logger *logger.Logger
}

// Ensure Retrying implements Gateway interface
var _ Gateway = (*Retrying)(nil)

// NewRetrying wraps a gateway with bounded retry.
func NewRetrying(next Gateway, config RetryConfig, log *logger.Logger) *Retrying {
	if config.Attempts <= 0 {
		config.Attempts = 1
	}
	return &Retrying{
		next:   next,
		config: config,
		logger: log.WithFields(zap.String("component", "gateway-retry")),
	}
}

// retry runs fn up to the configured attempt bound.
func retry[T any](ctx context.Context, r *Retrying, operation string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= r.config.Attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		r.logger.Warn("remote operation failed",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.config.Attempts),
			zap.Error(err))

		if attempt == r.config.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(r.config.Delay):
		}
	}
	return zero, lastErr
}

// retryNoResult adapts retry for operations without a return value.
func retryNoResult(ctx context.Context, r *Retrying, operation string, fn func(context.Context) error) error {
	_, err := retry(ctx, r, operation, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func (r *Retrying) ListProjects(ctx context.Context, ownerID string) ([]*ProjectRecord, error) {
	return retry(ctx, r, "ListProjects", func(ctx context.Context) ([]*ProjectRecord, error) {
		return r.next.ListProjects(ctx, ownerID)
	})
}

func (r *Retrying) ListCollaborativeProjects(ctx context.Context, actorID string) ([]*ProjectRecord, error) {
	return retry(ctx, r, "ListCollaborativeProjects", func(ctx context.Context) ([]*ProjectRecord, error) {
		return r.next.ListCollaborativeProjects(ctx, actorID)
	})
}

func (r *Retrying) InsertProject(ctx context.Context, rec *ProjectRecord) (*ProjectRecord, error) {
	return retry(ctx, r, "InsertProject", func(ctx context.Context) (*ProjectRecord, error) {
		return r.next.InsertProject(ctx, rec)
	})
}

func (r *Retrying) UpdateProject(ctx context.Context, id string, patch ProjectPatch) error {
	return retryNoResult(ctx, r, "UpdateProject", func(ctx context.Context) error {
		return r.next.UpdateProject(ctx, id, patch)
	})
}

func (r *Retrying) DeleteProject(ctx context.Context, id string) error {
	return retryNoResult(ctx, r, "DeleteProject", func(ctx context.Context) error {
		return r.next.DeleteProject(ctx, id)
	})
}

func (r *Retrying) ListSprints(ctx context.Context, projectID string) ([]*SprintRecord, error) {
	return retry(ctx, r, "ListSprints", func(ctx context.Context) ([]*SprintRecord, error) {
		return r.next.ListSprints(ctx, projectID)
	})
}

func (r *Retrying) InsertSprint(ctx context.Context, rec *SprintRecord) (*SprintRecord, error) {
	return retry(ctx, r, "InsertSprint", func(ctx context.Context) (*SprintRecord, error) {
		return r.next.InsertSprint(ctx, rec)
	})
}

func (r *Retrying) UpdateSprint(ctx context.Context, id string, patch SprintPatch) error {
	return retryNoResult(ctx, r, "UpdateSprint", func(ctx context.Context) error {
		return r.next.UpdateSprint(ctx, id, patch)
	})
}

func (r *Retrying) DeleteSprint(ctx context.Context, id string) error {
	return retryNoResult(ctx, r, "DeleteSprint", func(ctx context.Context) error {
		return r.next.DeleteSprint(ctx, id)
	})
}

func (r *Retrying) ListTasksBySprint(ctx context.Context, sprintID string) ([]*TaskRecord, error) {
	return retry(ctx, r, "ListTasksBySprint", func(ctx context.Context) ([]*TaskRecord, error) {
		return r.next.ListTasksBySprint(ctx, sprintID)
	})
}

func (r *Retrying) ListBacklogTasks(ctx context.Context, projectID string) ([]*TaskRecord, error) {
	return retry(ctx, r, "ListBacklogTasks", func(ctx context.Context) ([]*TaskRecord, error) {
		return r.next.ListBacklogTasks(ctx, projectID)
	})
}

func (r *Retrying) InsertTask(ctx context.Context, rec *TaskRecord) (*TaskRecord, error) {
	return retry(ctx, r, "InsertTask", func(ctx context.Context) (*TaskRecord, error) {
		return r.next.InsertTask(ctx, rec)
	})
}

func (r *Retrying) UpdateTask(ctx context.Context, id string, patch TaskPatch) error {
	return retryNoResult(ctx, r, "UpdateTask", func(ctx context.Context) error {
		return r.next.UpdateTask(ctx, id, patch)
	})
}

func (r *Retrying) DeleteTask(ctx context.Context, id string) error {
	return retryNoResult(ctx, r, "DeleteTask", func(ctx context.Context) error {
		return r.next.DeleteTask(ctx, id)
	})
}

func (r *Retrying) ListBoardColumns(ctx context.Context, sprintID string) ([]*BoardColumnRecord, error) {
	return retry(ctx, r, "ListBoardColumns", func(ctx context.Context) ([]*BoardColumnRecord, error) {
		return r.next.ListBoardColumns(ctx, sprintID)
	})
}

func (r *Retrying) InsertBoardColumn(ctx context.Context, rec *BoardColumnRecord) (*BoardColumnRecord, error) {
	return retry(ctx, r, "InsertBoardColumn", func(ctx context.Context) (*BoardColumnRecord, error) {
		return r.next.InsertBoardColumn(ctx, rec)
	})
}

func (r *Retrying) DeleteBoardColumn(ctx context.Context, id string) error {
	return retryNoResult(ctx, r, "DeleteBoardColumn", func(ctx context.Context) error {
		return r.next.DeleteBoardColumn(ctx, id)
	})
}

func (r *Retrying) Close() error {
	return r.next.Close()
}
