package source

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/input"
	"github.com/sells-group/leadgen-cli/internal/llm"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// maxPromptAttempts re-asks the operator once on empty input before skipping.
const maxPromptAttempts = 2

// Manual is the human-in-the-loop adapter: it blocks on the input provider,
// then structures the supplied text line by line. Two configurations exist,
// one for Google search results and one for LinkedIn rosters.
type Manual struct {
	name       string
	sourceType model.SourceType
	kind       llm.Kind
	provider   input.Provider
	structurer llm.Structurer
}

// NewManualGoogle creates the manual Google-results adapter.
func NewManualGoogle(provider input.Provider, structurer llm.Structurer) *Manual {
	return &Manual{
		name:       "manual-google",
		sourceType: model.SourceManualGoogle,
		kind:       llm.KindBusinessListing,
		provider:   provider,
		structurer: structurer,
	}
}

// NewManualLinkedIn creates the manual LinkedIn-roster adapter. It has no
// location-retry concept; the orchestrator invokes it once per query.
func NewManualLinkedIn(provider input.Provider, structurer llm.Structurer) *Manual {
	return &Manual{
		name:       "manual-linkedin",
		sourceType: model.SourceManualLinkedIn,
		kind:       llm.KindTeamRoster,
		provider:   provider,
		structurer: structurer,
	}
}

func (m *Manual) Name() string           { return m.name }
func (m *Manual) Type() model.SourceType { return m.sourceType }

func (m *Manual) Fetch(ctx context.Context, query model.Query, location string) (*Outcome, error) {
	instructions := m.instructions(query, location)

	var text string
	for attempt := 0; attempt < maxPromptAttempts; attempt++ {
		t, err := m.provider.Prompt(ctx, instructions)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			zap.L().Warn("manual: prompt failed", zap.String("source", m.name), zap.Error(err))
			return Empty(), nil
		}
		if t != "" {
			text = t
			break
		}
	}
	if text == "" {
		zap.L().Info("manual: no operator input, skipping", zap.String("source", m.name))
		return Empty(), nil
	}

	var candidates []model.RawCandidate
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		extracted, err := m.structurer.Structure(ctx, line, m.kind)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			zap.L().Warn("manual: structuring failed",
				zap.String("source", m.name),
				zap.Error(err),
			)
			continue
		}
		for i := range extracted {
			extracted[i].Source = m.sourceType
			// Backfill the query location so roster rows share the
			// identity key of the business they enrich.
			if extracted[i].Location == "" {
				extracted[i].Location = location
			}
		}
		candidates = append(candidates, extracted...)
	}

	zap.L().Info("manual: structured operator input",
		zap.String("source", m.name),
		zap.Int("candidates", len(candidates)),
	)
	return Success(candidates), nil
}

func (m *Manual) instructions(query model.Query, location string) string {
	if m.kind == llm.KindTeamRoster {
		return fmt.Sprintf(
			"Manual LinkedIn input for %q: paste employee rows (employer, name, job title, email), one per line.\n"+
				"Example: Acme Digital — John Doe, Digital Marketing Manager, john.doe@acme.pk",
			query.Category)
	}
	return fmt.Sprintf(
		"Manual Google input for %q in %q: paste search-result lines.\n"+
			"Example: Acme Digital 123 Jinnah Road, %s https://acme.pk +92 300 123 4567",
		query.Category, location, location)
}
