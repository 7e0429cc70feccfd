package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

// mockClient implements anthropic.Client for testing.
type mockClient struct {
	reply string
	err   error
	seen  []anthropic.MessageRequest
}

func (m *mockClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	m.seen = append(m.seen, req)
	if m.err != nil {
		return nil, m.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: m.reply}},
	}, nil
}

func TestStructure_BusinessListing(t *testing.T) {
	client := &mockClient{reply: `[
		{"name": "Acme Digital", "location": "Abbottabad", "emails": ["info@acme.pk"], "phones": ["+92 300 1234567"]}
	]`}
	s := NewAnthropicStructurer(client, "claude-haiku-4-5-20251001", 1024)

	candidates, err := s.Structure(context.Background(), "Acme Digital Abbottabad info@acme.pk +92 300 1234567", KindBusinessListing)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Acme Digital", candidates[0].Name)
	assert.Equal(t, []string{"info@acme.pk"}, candidates[0].Emails)
}

func TestStructure_TeamRosterPromptSelected(t *testing.T) {
	client := &mockClient{reply: `[]`}
	s := NewAnthropicStructurer(client, "claude-haiku-4-5-20251001", 0)

	_, err := s.Structure(context.Background(), "John Doe CEO john@acme.pk", KindTeamRoster)
	require.NoError(t, err)
	require.Len(t, client.seen, 1)
	assert.Contains(t, client.seen[0].Messages[0].Content, "employee roster")
}

func TestStructure_EmptyInputSkipsModelCall(t *testing.T) {
	client := &mockClient{reply: `[]`}
	s := NewAnthropicStructurer(client, "m", 100)

	candidates, err := s.Structure(context.Background(), "   ", KindBusinessListing)
	require.NoError(t, err)
	assert.Nil(t, candidates)
	assert.Empty(t, client.seen)
}

func TestStructure_TransportErrorPropagates(t *testing.T) {
	client := &mockClient{err: errors.New("api down")}
	s := NewAnthropicStructurer(client, "m", 100)

	_, err := s.Structure(context.Background(), "text", KindBusinessListing)
	assert.Error(t, err)
}

func TestParseCandidates_Fenced(t *testing.T) {
	text := "```json\n[{\"name\": \"Acme\", \"phones\": [\"555\"]}]\n```"
	candidates := ParseCandidates(text)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Acme", candidates[0].Name)
}

func TestParseCandidates_SingleObject(t *testing.T) {
	candidates := ParseCandidates(`{"name": "Acme"}`)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Acme", candidates[0].Name)
}

func TestParseCandidates_Malformed(t *testing.T) {
	assert.Nil(t, ParseCandidates("sorry, I cannot help with that"))
	assert.Nil(t, ParseCandidates(""))
	assert.Nil(t, ParseCandidates("[]"))
}

func TestParseCandidates_DropsNamelessWithoutTeam(t *testing.T) {
	candidates := ParseCandidates(`[
		{"name": "", "emails": ["x@y.com"]},
		{"name": "", "team_members": [{"name": "Jane Roe", "title": "CTO"}]}
	]`)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Jane Roe", candidates[0].TeamMembers[0].Name)
}
