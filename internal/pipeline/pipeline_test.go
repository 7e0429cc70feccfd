package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/diag"
	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/source"
	"github.com/sells-group/leadgen-cli/internal/store"
)

// fakeSource returns canned outcomes in sequence, recording the
// locations it was asked about.
type fakeSource struct {
	name      string
	typ       model.SourceType
	outcomes  []*source.Outcome
	locations []string
	calls     int
}

func (f *fakeSource) Name() string           { return f.name }
func (f *fakeSource) Type() model.SourceType { return f.typ }

func (f *fakeSource) Fetch(_ context.Context, _ model.Query, location string) (*source.Outcome, error) {
	f.locations = append(f.locations, location)
	idx := f.calls
	f.calls++
	if idx >= len(f.outcomes) {
		return source.Empty(), nil
	}
	return f.outcomes[idx], nil
}

// blockingSource holds its Fetch open until released. Used to exercise
// the single-run gate.
type blockingSource struct {
	fakeSource
	release chan struct{}
}

func (b *blockingSource) Fetch(ctx context.Context, q model.Query, location string) (*source.Outcome, error) {
	<-b.release
	return b.fakeSource.Fetch(ctx, q, location)
}

// memStore records the status transitions it sees.
type memStore struct {
	mu       sync.Mutex
	statuses []model.RunStatus
	result   *model.RunResult
	final    model.RunStatus
}

func (m *memStore) CreateRun(_ context.Context, query model.Query) (*model.Run, error) {
	return &model.Run{ID: "run-1", Query: query, Status: model.RunStatusQueued}, nil
}

func (m *memStore) UpdateRunStatus(_ context.Context, _ string, status model.RunStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, status)
	return nil
}

func (m *memStore) UpdateRunResult(_ context.Context, _ string, status model.RunStatus, result *model.RunResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.final = status
	m.result = result
	return nil
}

func (m *memStore) GetRun(context.Context, string) (*model.Run, error) { return nil, nil }
func (m *memStore) ListRuns(context.Context, store.RunFilter) ([]model.Run, error) {
	return nil, nil
}
func (m *memStore) Migrate(context.Context) error { return nil }
func (m *memStore) Close() error                  { return nil }

func candidates(src model.SourceType, n int) []model.RawCandidate {
	out := make([]model.RawCandidate, n)
	for i := range out {
		out[i] = model.RawCandidate{
			Source:   src,
			Name:     fmt.Sprintf("business %d", i),
			Location: "austin, tx",
			Emails:   []string{fmt.Sprintf("contact%d@example.com", i)},
		}
	}
	return out
}

func testQuery() model.Query {
	return model.Query{
		Category:         "marketing agencies",
		Location:         "Austin, TX",
		FallbackLocation: "Texas",
	}
}

func newTestPipeline(t *testing.T, opts Options) *Pipeline {
	t.Helper()
	if opts.Exporter == nil {
		opts.Exporter = export.NewWriter(t.TempDir(), "business_data", false)
	}
	if opts.Quota == 0 {
		opts.Quota = 5
	}
	return New(opts)
}

func TestExecuteStopsAtQuota(t *testing.T) {
	mock := &fakeSource{
		name: "mock-api", typ: model.SourceMockAPI,
		outcomes: []*source.Outcome{source.Success(candidates(model.SourceMockAPI, 5))},
	}
	scrape := &fakeSource{name: "search-scrape", typ: model.SourceSearchScrape}
	manual := &fakeSource{name: "manual-google", typ: model.SourceManualGoogle}

	p := newTestPipeline(t, Options{
		GoogleSources: []source.Source{mock, scrape},
		ManualGoogle:  manual,
	})
	result, err := p.Execute(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Equal(t, 1, mock.calls)
	assert.Zero(t, scrape.calls, "quota met: scrape should be skipped")
	assert.Zero(t, manual.calls, "quota met: manual google should be skipped")
	assert.Len(t, result.Records, 5)
	assert.Equal(t, []model.SourceType{model.SourceMockAPI}, result.SourcesUsed)
}

func TestExecuteFallsBackThroughLocations(t *testing.T) {
	mock := &fakeSource{name: "mock-api", typ: model.SourceMockAPI}
	scrape := &fakeSource{
		name: "search-scrape", typ: model.SourceSearchScrape,
		outcomes: []*source.Outcome{
			source.Success(candidates(model.SourceSearchScrape, 2)),
			source.Success(candidates(model.SourceSearchScrape, 2)),
		},
	}

	p := newTestPipeline(t, Options{GoogleSources: []source.Source{mock, scrape}})
	_, err := p.Execute(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Equal(t, []string{"Austin, TX", "Texas"}, mock.locations)
	assert.Equal(t, []string{"Austin, TX", "Texas"}, scrape.locations)
}

func TestExecuteBlockedSourceDoesNotAbort(t *testing.T) {
	diagDir := t.TempDir()
	blockedScrape := &fakeSource{
		name: "search-scrape", typ: model.SourceSearchScrape,
		outcomes: []*source.Outcome{
			source.Blocked("<html>captcha</html>"),
			source.Blocked("<html>captcha</html>"),
		},
	}
	manual := &fakeSource{
		name: "manual-google", typ: model.SourceManualGoogle,
		outcomes: []*source.Outcome{source.Success(candidates(model.SourceManualGoogle, 1))},
	}

	p := newTestPipeline(t, Options{
		GoogleSources: []source.Source{blockedScrape},
		ManualGoogle:  manual,
		Diag:          diag.New(diagDir),
	})
	result, err := p.Execute(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Len(t, result.Blocked, 2)
	assert.Equal(t, 1, manual.calls, "manual google should run when below quota")
	assert.Len(t, result.Records, 1)
}

func TestExecuteManualLinkedInAlwaysRuns(t *testing.T) {
	mock := &fakeSource{
		name: "mock-api", typ: model.SourceMockAPI,
		outcomes: []*source.Outcome{source.Success(candidates(model.SourceMockAPI, 5))},
	}
	linkedin := &fakeSource{name: "manual-linkedin", typ: model.SourceManualLinkedIn}

	p := newTestPipeline(t, Options{
		GoogleSources:  []source.Source{mock},
		ManualLinkedIn: linkedin,
	})
	_, err := p.Execute(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Equal(t, 1, linkedin.calls, "linkedin runs once regardless of quota")
}

func TestExecuteStatusTransitions(t *testing.T) {
	st := &memStore{}
	mock := &fakeSource{
		name: "mock-api", typ: model.SourceMockAPI,
		outcomes: []*source.Outcome{source.Success(candidates(model.SourceMockAPI, 5))},
	}

	p := newTestPipeline(t, Options{
		GoogleSources: []source.Source{mock},
		Store:         st,
	})
	result, err := p.Execute(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Equal(t, []model.RunStatus{
		model.RunStatusCollecting,
		model.RunStatusCleaning,
		model.RunStatusExporting,
	}, st.statuses)
	assert.Equal(t, model.RunStatusComplete, st.final)
	require.NotNil(t, st.result)
	assert.Equal(t, result.Records, st.result.Records)
	assert.Len(t, result.OutputFiles, 2)
}

func TestExecuteRejectsConcurrentRun(t *testing.T) {
	release := make(chan struct{})
	slow := &blockingSource{
		fakeSource: fakeSource{name: "mock-api", typ: model.SourceMockAPI},
		release:    release,
	}

	p := newTestPipeline(t, Options{GoogleSources: []source.Source{slow}})

	done := make(chan error, 1)
	go func() {
		_, err := p.Execute(context.Background(), testQuery())
		done <- err
	}()

	require.Eventually(t, p.Active, time.Second, 5*time.Millisecond)

	_, err := p.Execute(context.Background(), testQuery())
	assert.ErrorIs(t, err, ErrRunActive)

	close(release)
	require.NoError(t, <-done)

	// gate releases after the first run completes
	_, err = p.Execute(context.Background(), testQuery())
	require.NoError(t, err)
}

func TestExecuteEmptySourcesStillExports(t *testing.T) {
	dir := t.TempDir()
	empty := &fakeSource{name: "mock-api", typ: model.SourceMockAPI}

	p := newTestPipeline(t, Options{
		GoogleSources: []source.Source{empty},
		Exporter:      export.NewWriter(dir, "business_data", false),
	})
	result, err := p.Execute(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Empty(t, result.Records)
	assert.Len(t, result.OutputFiles, 2, "header-only files are still written")
}
