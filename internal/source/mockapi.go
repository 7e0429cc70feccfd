package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/llm"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// mockListing is the synthetic places-API payload handed to the structuring
// capability. A real mapping-provider client would slot in behind the same
// Source interface without orchestrator changes.
const mockListing = `Top %s in %s:
1. Pinnacle Digital — 12 Jinnah Road, %s — info@pinnacledigital.pk — +92 300 111 2222
2. Summit Media House — 45 Mansehra Road, %s — hello@summitmedia.pk — +92 300 222 3333
3. Orbit Marketing Co — 8 Supply Bazaar, %s — contact@orbitmarketing.pk — +92 300 333 4444`

// MockAPI simulates a places-API source by structuring a synthetic listing.
// It never probes the network, so it can return success or empty but never
// blocked.
type MockAPI struct {
	structurer llm.Structurer
}

// NewMockAPI creates the mocked places-API adapter.
func NewMockAPI(structurer llm.Structurer) *MockAPI {
	return &MockAPI{structurer: structurer}
}

func (m *MockAPI) Name() string           { return "mock-api" }
func (m *MockAPI) Type() model.SourceType { return model.SourceMockAPI }

func (m *MockAPI) Fetch(ctx context.Context, query model.Query, location string) (*Outcome, error) {
	listing := fmt.Sprintf(mockListing, query.Category, location, location, location, location)

	candidates, err := m.structurer.Structure(ctx, listing, llm.KindBusinessListing)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		zap.L().Warn("mock-api: structuring failed", zap.Error(err))
		return Empty(), nil
	}

	for i := range candidates {
		candidates[i].Source = model.SourceMockAPI
		if candidates[i].Location == "" {
			candidates[i].Location = location
		}
	}

	zap.L().Info("mock-api: fetched candidates",
		zap.String("location", location),
		zap.Int("candidates", len(candidates)),
	)
	return Success(candidates), nil
}
