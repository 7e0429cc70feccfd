package source

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/browser"
	"github.com/sells-group/leadgen-cli/internal/llm"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// EngineFactory builds a browser engine for the duration of one fetch. The
// engine is closed on every exit path before the next source runs.
type EngineFactory func() browser.Engine

// SearchScrape drives a browser engine against public search results and
// structures the extracted snippets.
type SearchScrape struct {
	newEngine  EngineFactory
	structurer llm.Structurer
	baseURL    string
	quota      int
}

// NewSearchScrape creates the search-scrape adapter.
func NewSearchScrape(factory EngineFactory, structurer llm.Structurer, baseURL string, quota int) *SearchScrape {
	if quota <= 0 {
		quota = 5
	}
	return &SearchScrape{
		newEngine:  factory,
		structurer: structurer,
		baseURL:    baseURL,
		quota:      quota,
	}
}

func (s *SearchScrape) Name() string           { return "search-scrape" }
func (s *SearchScrape) Type() model.SourceType { return model.SourceSearchScrape }

func (s *SearchScrape) Fetch(ctx context.Context, query model.Query, location string) (*Outcome, error) {
	searchURL := fmt.Sprintf("%s?q=%s", s.baseURL,
		url.QueryEscape(fmt.Sprintf("%s in %s", query.Category, location)))

	engine := s.newEngine()
	defer engine.Close()

	page, err := engine.RenderAndExtract(ctx, searchURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		zap.L().Warn("search-scrape: render failed",
			zap.String("url", searchURL),
			zap.Error(err),
		)
		return Empty(), nil
	}

	if page.Blocked {
		zap.L().Warn("search-scrape: anti-bot block detected",
			zap.String("url", searchURL),
			zap.String("block_type", string(page.BlockType)),
		)
		return Blocked(page.HTML), nil
	}

	snippets := browser.Snippets(page.Text, s.quota)
	var candidates []model.RawCandidate
	for _, snippet := range snippets {
		extracted, err := s.structurer.Structure(ctx, snippet, llm.KindBusinessListing)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			zap.L().Warn("search-scrape: structuring failed", zap.Error(err))
			continue
		}
		for i := range extracted {
			extracted[i].Source = model.SourceSearchScrape
			if extracted[i].Location == "" {
				extracted[i].Location = location
			}
		}
		candidates = append(candidates, extracted...)
	}

	zap.L().Info("search-scrape: fetched candidates",
		zap.String("location", location),
		zap.Int("snippets", len(snippets)),
		zap.Int("candidates", len(candidates)),
	)
	return Success(candidates), nil
}
