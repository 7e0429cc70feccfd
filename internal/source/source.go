// Package source defines the uniform contract for acquisition methods and the
// four adapters behind it: mocked places API, browser search scrape, and the
// two manual-input paths.
package source

import (
	"context"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Status classifies a fetch outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusEmpty   Status = "empty"
	StatusBlocked Status = "blocked"
)

// Outcome is the result of one adapter fetch. Blocked outcomes carry the raw
// page for diagnostics; they are counted as empty by the orchestrator.
type Outcome struct {
	Status      Status
	Candidates  []model.RawCandidate
	BlockedHTML string
}

// Success wraps candidates in a success outcome, or empty when there are none.
func Success(candidates []model.RawCandidate) *Outcome {
	if len(candidates) == 0 {
		return Empty()
	}
	return &Outcome{Status: StatusSuccess, Candidates: candidates}
}

// Empty is the outcome for a source that produced nothing usable.
func Empty() *Outcome {
	return &Outcome{Status: StatusEmpty}
}

// Blocked is the outcome for an anti-bot rejection.
func Blocked(rawHTML string) *Outcome {
	return &Outcome{Status: StatusBlocked, BlockedHTML: rawHTML}
}

// Source is one acquisition method. Fetch reports dependency failures as an
// empty outcome rather than an error; a single source's failure must not
// abort the query. The error return is reserved for context cancellation.
type Source interface {
	Name() string
	Type() model.SourceType
	Fetch(ctx context.Context, query model.Query, location string) (*Outcome, error)
}
