package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// NoopStore discards all writes. Used when run history is disabled.
type NoopStore struct{}

func NewNoop() *NoopStore { return &NoopStore{} }

func (*NoopStore) CreateRun(_ context.Context, query model.Query) (*model.Run, error) {
	now := time.Now().UTC()
	return &model.Run{
		ID:        uuid.New().String(),
		Query:     query,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (*NoopStore) UpdateRunStatus(context.Context, string, model.RunStatus) error {
	return nil
}

func (*NoopStore) UpdateRunResult(context.Context, string, model.RunStatus, *model.RunResult) error {
	return nil
}

func (*NoopStore) GetRun(context.Context, string) (*model.Run, error) {
	return nil, ErrRunHistoryDisabled
}

func (*NoopStore) ListRuns(context.Context, RunFilter) ([]model.Run, error) {
	return nil, nil
}

func (*NoopStore) Migrate(context.Context) error { return nil }
func (*NoopStore) Close() error                  { return nil }
