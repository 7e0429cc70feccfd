package source

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/browser"
	"github.com/sells-group/leadgen-cli/internal/input"
	"github.com/sells-group/leadgen-cli/internal/llm"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// mockStructurer implements llm.Structurer for testing.
type mockStructurer struct {
	candidates []model.RawCandidate
	err        error
	calls      int
	kinds      []llm.Kind
}

func (m *mockStructurer) Structure(_ context.Context, _ string, kind llm.Kind) ([]model.RawCandidate, error) {
	m.calls++
	m.kinds = append(m.kinds, kind)
	if m.err != nil {
		return nil, m.err
	}
	out := make([]model.RawCandidate, len(m.candidates))
	copy(out, m.candidates)
	return out, nil
}

// mockEngine implements browser.Engine for testing.
type mockEngine struct {
	page   *browser.Page
	err    error
	closed bool
}

func (m *mockEngine) RenderAndExtract(_ context.Context, url string) (*browser.Page, error) {
	if m.err != nil {
		return nil, m.err
	}
	p := *m.page
	p.URL = url
	return &p, nil
}

func (m *mockEngine) Close() error {
	m.closed = true
	return nil
}

var testQuery = model.Query{
	Category:         "digital marketing agencies",
	Location:         "Abbottabad, Pakistan",
	FallbackLocation: "Khyber Pakhtunkhwa, Pakistan",
}

func TestMockAPI_Success(t *testing.T) {
	st := &mockStructurer{candidates: []model.RawCandidate{
		{Name: "Pinnacle Digital", Phones: []string{"+92 300 111 2222"}},
	}}
	m := NewMockAPI(st)

	outcome, err := m.Fetch(context.Background(), testQuery, testQuery.Location)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, outcome.Status)
	require.Len(t, outcome.Candidates, 1)
	assert.Equal(t, model.SourceMockAPI, outcome.Candidates[0].Source)
	assert.Equal(t, testQuery.Location, outcome.Candidates[0].Location)
}

func TestMockAPI_StructuringFailureIsEmpty(t *testing.T) {
	st := &mockStructurer{err: errors.New("malformed model output")}
	m := NewMockAPI(st)

	outcome, err := m.Fetch(context.Background(), testQuery, testQuery.Location)
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, outcome.Status)
}

func TestSearchScrape_Success(t *testing.T) {
	engine := &mockEngine{page: &browser.Page{
		Text: "Acme Digital 123 Jinnah Road +92 300 1234567\nBeta Media hello@beta.pk",
		HTML: "<html>results</html>",
	}}
	st := &mockStructurer{candidates: []model.RawCandidate{{Name: "Acme Digital"}}}
	s := NewSearchScrape(func() browser.Engine { return engine }, st, "https://www.google.com/search", 5)

	outcome, err := s.Fetch(context.Background(), testQuery, testQuery.Location)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, outcome.Status)
	assert.Equal(t, model.SourceSearchScrape, outcome.Candidates[0].Source)
	assert.True(t, engine.closed, "engine must be released after the fetch")
	assert.Equal(t, 2, st.calls, "one structuring call per snippet")
}

func TestSearchScrape_Blocked(t *testing.T) {
	engine := &mockEngine{page: &browser.Page{
		HTML:      "<html>recaptcha challenge</html>",
		Blocked:   true,
		BlockType: browser.BlockCaptcha,
	}}
	st := &mockStructurer{}
	s := NewSearchScrape(func() browser.Engine { return engine }, st, "https://www.google.com/search", 5)

	outcome, err := s.Fetch(context.Background(), testQuery, testQuery.Location)
	require.NoError(t, err)
	assert.Equal(t, StatusBlocked, outcome.Status)
	assert.Equal(t, "<html>recaptcha challenge</html>", outcome.BlockedHTML)
	assert.True(t, engine.closed, "engine must be released on the blocked path")
	assert.Zero(t, st.calls)
}

func TestSearchScrape_EngineErrorIsEmpty(t *testing.T) {
	engine := &mockEngine{err: errors.New("connection refused")}
	s := NewSearchScrape(func() browser.Engine { return engine }, &mockStructurer{}, "https://www.google.com/search", 5)

	outcome, err := s.Fetch(context.Background(), testQuery, testQuery.Location)
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, outcome.Status)
	assert.True(t, engine.closed)
}

func TestManualGoogle_OperatorSkip(t *testing.T) {
	st := &mockStructurer{}
	m := NewManualGoogle(&input.Static{}, st)

	outcome, err := m.Fetch(context.Background(), testQuery, testQuery.Location)
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, outcome.Status)
	assert.Zero(t, st.calls)
}

func TestManualGoogle_RetriesOnceThenStructures(t *testing.T) {
	st := &mockStructurer{candidates: []model.RawCandidate{{Name: "Acme Digital"}}}
	provider := &input.Static{Responses: []string{"", "Acme Digital 123 Jinnah Road"}}
	m := NewManualGoogle(provider, st)

	outcome, err := m.Fetch(context.Background(), testQuery, testQuery.Location)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, outcome.Status)
	assert.Equal(t, model.SourceManualGoogle, outcome.Candidates[0].Source)
	assert.Equal(t, testQuery.Location, outcome.Candidates[0].Location)
}

func TestManualLinkedIn_UsesRosterKind(t *testing.T) {
	st := &mockStructurer{candidates: []model.RawCandidate{
		{Name: "Acme Digital", TeamMembers: []model.Person{{Name: "John Doe", Title: "CEO"}}},
	}}
	provider := &input.Static{Responses: []string{"Acme Digital — John Doe, CEO, john@acme.pk"}}
	m := NewManualLinkedIn(provider, st)

	outcome, err := m.Fetch(context.Background(), testQuery, testQuery.Location)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, outcome.Status)
	require.Len(t, st.kinds, 1)
	assert.Equal(t, llm.KindTeamRoster, st.kinds[0])
	assert.Equal(t, model.SourceManualLinkedIn, outcome.Candidates[0].Source)
	// Roster rows take the query location so they merge into the
	// business record they enrich.
	assert.Equal(t, testQuery.Location, outcome.Candidates[0].Location)
}

func TestManual_StructuringErrorSkipsLine(t *testing.T) {
	st := &mockStructurer{err: errors.New("bad output")}
	provider := &input.Static{Responses: []string{"line one\nline two"}}
	m := NewManualGoogle(provider, st)

	outcome, err := m.Fetch(context.Background(), testQuery, testQuery.Location)
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, outcome.Status)
	assert.Equal(t, 2, st.calls)
}
