// Package store persists run history. A run survives the process so that
// scheduled collections can be inspected after the fact.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// ErrRunHistoryDisabled is returned by lookups when the store is a no-op.
var ErrRunHistoryDisabled = eris.New("run history is disabled")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
}

// Store defines the persistence interface for the collection pipeline.
type Store interface {
	CreateRun(ctx context.Context, query model.Query) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, status model.RunStatus, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
