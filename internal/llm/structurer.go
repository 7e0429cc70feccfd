// Package llm turns raw text into partial business-record candidates using a
// language model. Malformed model output is tolerated: it yields an empty
// candidate list, never an error the caller has to recover from.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

// Kind selects the extraction contract for a piece of raw text.
type Kind string

const (
	KindBusinessListing Kind = "business_listing"
	KindTeamRoster      Kind = "team_roster"
)

// Structurer structures raw text into candidate records.
type Structurer interface {
	Structure(ctx context.Context, raw string, kind Kind) ([]model.RawCandidate, error)
}

const listingPrompt = `Extract business listings from the text below.
Respond with ONLY a JSON array of objects, each with:
- "name": business name (string, required)
- "location": address or city (string, "" if unknown)
- "emails": array of email addresses found
- "phones": array of phone numbers found
If the text contains no business data, respond with [].

Text:
%s`

const rosterPrompt = `Extract employee roster entries from the text below.
Respond with ONLY a JSON array of objects, each with:
- "name": the employer/business name if the text states one ("" if unknown)
- "team_members": array of {"name", "title", "email", "phone"} objects
If the text contains no employee data, respond with [].

Text:
%s`

// AnthropicStructurer implements Structurer over the Anthropic message API.
type AnthropicStructurer struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicStructurer creates a Structurer backed by the given client.
func NewAnthropicStructurer(client anthropic.Client, modelID string, maxTokens int64) *AnthropicStructurer {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AnthropicStructurer{client: client, model: modelID, maxTokens: maxTokens}
}

// Structure sends one extraction prompt and parses the JSON reply. Unusable
// model output returns an empty slice; only transport-level failures return
// an error.
func (s *AnthropicStructurer) Structure(ctx context.Context, raw string, kind Kind) ([]model.RawCandidate, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	tmpl := listingPrompt
	if kind == KindTeamRoster {
		tmpl = rosterPrompt
	}

	resp, err := s.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(tmpl, raw)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "llm: structure")
	}
	resp.Usage.LogCost(s.model, "structure")

	candidates := ParseCandidates(resp.Text())
	if len(candidates) == 0 {
		zap.L().Debug("llm: no candidates in model output",
			zap.String("kind", string(kind)),
		)
	}
	return candidates, nil
}

// candidateJSON mirrors the prompt's response contract.
type candidateJSON struct {
	Name        string         `json:"name"`
	Location    string         `json:"location"`
	Emails      []string       `json:"emails"`
	Phones      []string       `json:"phones"`
	TeamMembers []model.Person `json:"team_members"`
}

// ParseCandidates parses a model reply into candidates. It strips markdown
// code fences and accepts either a JSON array or a single object. Anything
// else returns nil.
func ParseCandidates(text string) []model.RawCandidate {
	text = StripFences(text)
	if text == "" {
		return nil
	}

	var items []candidateJSON
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		var single candidateJSON
		if err2 := json.Unmarshal([]byte(text), &single); err2 != nil {
			zap.L().Warn("llm: unparseable model output", zap.Error(err))
			return nil
		}
		items = []candidateJSON{single}
	}

	var out []model.RawCandidate
	for _, it := range items {
		if it.Name == "" && len(it.TeamMembers) == 0 {
			continue
		}
		out = append(out, model.RawCandidate{
			Name:        it.Name,
			Location:    it.Location,
			Emails:      it.Emails,
			Phones:      it.Phones,
			TeamMembers: it.TeamMembers,
		})
	}
	return out
}

// StripFences removes a surrounding markdown code fence, if present.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
