// Package pipeline orchestrates a full collection run: query the
// configured sources in fallback order, clean and merge the raw
// candidates, and export the final records.
package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/clean"
	"github.com/sells-group/leadgen-cli/internal/diag"
	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/source"
	"github.com/sells-group/leadgen-cli/internal/store"
)

// ErrRunActive is returned by Execute when another run is already in
// progress. Callers decide whether to skip or report a conflict.
var ErrRunActive = eris.New("a collection run is already active")

// Options configures a Pipeline.
type Options struct {
	// GoogleSources are tried in order at the primary location, then
	// again at the fallback location if the quota is not met.
	GoogleSources []source.Source
	// ManualGoogle runs only when automated sources leave the run below
	// quota. Optional.
	ManualGoogle source.Source
	// ManualLinkedIn runs exactly once per run regardless of quota.
	// Optional.
	ManualLinkedIn source.Source

	Store    store.Store
	Diag     *diag.Capture
	Exporter *export.Writer
	Quota    int
}

// Pipeline executes collection runs. At most one run may be active at a
// time; concurrent Execute calls beyond the first fail with ErrRunActive.
type Pipeline struct {
	opts    Options
	running atomic.Bool
}

func New(opts Options) *Pipeline {
	if opts.Quota <= 0 {
		opts.Quota = 5
	}
	return &Pipeline{opts: opts}
}

// Active reports whether a run is currently executing.
func (p *Pipeline) Active() bool {
	return p.running.Load()
}

// Execute performs one collection run for the given query. Store
// failures are logged and do not abort the run; export failures do.
func (p *Pipeline) Execute(ctx context.Context, query model.Query) (*model.RunResult, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrRunActive
	}
	defer p.running.Store(false)

	log := zap.L().With(
		zap.String("category", query.Category),
		zap.String("location", query.Location),
	)
	start := time.Now()
	log.Info("run started")

	runID := p.createRun(ctx, query)
	p.setStatus(ctx, runID, model.RunStatusCollecting)

	raw, blocked, used, err := p.collect(ctx, query)
	if err != nil {
		p.finish(ctx, runID, model.RunStatusFailed, &model.RunResult{Error: err.Error()})
		return nil, err
	}

	p.setStatus(ctx, runID, model.RunStatusCleaning)
	records := clean.Clean(raw, p.opts.Quota)
	log.Info("cleaning complete",
		zap.Int("raw_candidates", len(raw)),
		zap.Int("records", len(records)))

	p.setStatus(ctx, runID, model.RunStatusExporting)
	if err := p.opts.Exporter.Export(records); err != nil {
		err = eris.Wrap(err, "export")
		p.finish(ctx, runID, model.RunStatusFailed, &model.RunResult{
			Records:     records,
			Raw:         raw,
			Blocked:     blocked,
			SourcesUsed: used,
			Error:       err.Error(),
		})
		return nil, err
	}

	result := &model.RunResult{
		Records:     records,
		Raw:         raw,
		Blocked:     blocked,
		SourcesUsed: used,
		OutputFiles: p.opts.Exporter.Paths(),
	}
	p.finish(ctx, runID, model.RunStatusComplete, result)

	log.Info("run complete",
		zap.Int("records", len(records)),
		zap.Int("blocked_sources", len(blocked)),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// collect walks the source fallback order and accumulates raw
// candidates. A blocked outcome is captured for diagnostics and treated
// as an empty result; only context cancellation aborts collection.
func (p *Pipeline) collect(ctx context.Context, query model.Query) ([]model.RawCandidate, []model.BlockedSignal, []model.SourceType, error) {
	var (
		raw     []model.RawCandidate
		blocked []model.BlockedSignal
		used    []model.SourceType
	)

	locations := []string{query.Location}
	if query.FallbackLocation != "" && query.FallbackLocation != query.Location {
		locations = append(locations, query.FallbackLocation)
	}

	fetch := func(src source.Source, location string) error {
		outcome, err := src.Fetch(ctx, query, location)
		if err != nil {
			return err
		}
		used = appendUniqueSource(used, src.Type())

		switch outcome.Status {
		case source.StatusBlocked:
			signal := model.BlockedSignal{
				Query:     query,
				Source:    src.Type(),
				RawHTML:   outcome.BlockedHTML,
				Timestamp: time.Now().UTC(),
			}
			if p.opts.Diag != nil {
				p.opts.Diag.Record(signal)
			}
			blocked = append(blocked, signal)
			zap.L().Warn("source blocked",
				zap.String("source", src.Name()),
				zap.String("location", location))
		case source.StatusSuccess:
			raw = append(raw, outcome.Candidates...)
			zap.L().Info("source returned candidates",
				zap.String("source", src.Name()),
				zap.String("location", location),
				zap.Int("count", len(outcome.Candidates)))
		default:
			zap.L().Info("source returned nothing",
				zap.String("source", src.Name()),
				zap.String("location", location))
		}
		return nil
	}

automated:
	for _, location := range locations {
		for _, src := range p.opts.GoogleSources {
			if clean.CountDistinct(raw) >= p.opts.Quota {
				break automated
			}
			if err := fetch(src, location); err != nil {
				return nil, nil, nil, err
			}
		}
	}

	if p.opts.ManualGoogle != nil && clean.CountDistinct(raw) < p.opts.Quota {
		if err := fetch(p.opts.ManualGoogle, query.Location); err != nil {
			return nil, nil, nil, err
		}
	}

	if p.opts.ManualLinkedIn != nil {
		if err := fetch(p.opts.ManualLinkedIn, query.Location); err != nil {
			return nil, nil, nil, err
		}
	}

	return raw, blocked, used, nil
}

func (p *Pipeline) createRun(ctx context.Context, query model.Query) string {
	if p.opts.Store == nil {
		return ""
	}
	run, err := p.opts.Store.CreateRun(ctx, query)
	if err != nil {
		zap.L().Warn("store: create run failed", zap.Error(err))
		return ""
	}
	return run.ID
}

func (p *Pipeline) setStatus(ctx context.Context, runID string, status model.RunStatus) {
	if p.opts.Store == nil || runID == "" {
		return
	}
	if err := p.opts.Store.UpdateRunStatus(ctx, runID, status); err != nil {
		zap.L().Warn("store: update status failed",
			zap.String("run_id", runID),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}

func (p *Pipeline) finish(ctx context.Context, runID string, status model.RunStatus, result *model.RunResult) {
	if p.opts.Store == nil || runID == "" {
		return
	}
	if err := p.opts.Store.UpdateRunResult(ctx, runID, status, result); err != nil {
		zap.L().Warn("store: update result failed",
			zap.String("run_id", runID),
			zap.Error(err))
	}
}

func appendUniqueSource(used []model.SourceType, t model.SourceType) []model.SourceType {
	for _, u := range used {
		if u == t {
			return used
		}
	}
	return append(used, t)
}
