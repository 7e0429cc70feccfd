// Package browser provides the page-rendering capability used by the
// search-scrape adapter: fetch a URL, extract its visible text, and classify
// anti-bot challenge pages.
package browser

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Page is the rendered result for one URL.
type Page struct {
	URL        string
	HTML       string
	Text       string
	StatusCode int
	Blocked    bool
	BlockType  BlockType
}

// Engine renders a URL and extracts its DOM text.
type Engine interface {
	RenderAndExtract(ctx context.Context, url string) (*Page, error)
	Close() error
}

// userAgents is a small rotation pool so repeated fetches do not present a
// single fingerprint.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
}

// HTTPEngine is the default Engine: a plain HTTP client with user-agent
// rotation, request pacing, and bounded retries. It stands in for a full
// browser-automation session; callers own one engine per query and must
// Close it before the next source runs.
type HTTPEngine struct {
	client  *http.Client
	limiter *rate.Limiter
	retries int
	rng     *rand.Rand
}

// HTTPEngineOptions configures an HTTPEngine.
type HTTPEngineOptions struct {
	Timeout        time.Duration
	Retries        int
	RequestsPerSec float64
}

// NewHTTPEngine creates an HTTPEngine with the given options.
func NewHTTPEngine(opts HTTPEngineOptions) *HTTPEngine {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 0.5
	}
	return &HTTPEngine{
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 1),
		retries: opts.Retries,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RenderAndExtract fetches the URL, retrying transient failures with
// exponential backoff. A page classified as blocked is returned with
// Blocked set rather than as an error; the caller decides how to divert it.
func (e *HTTPEngine) RenderAndExtract(ctx context.Context, url string) (*Page, error) {
	var lastErr error
	for attempt := 0; attempt < e.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := e.fetch(ctx, url)
		if err != nil {
			lastErr = err
			zap.L().Debug("browser: fetch attempt failed",
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			continue
		}
		return page, nil
	}
	return nil, eris.Wrapf(lastErr, "browser: fetch %s", url)
}

func (e *HTTPEngine) fetch(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "browser: build request")
	}
	req.Header.Set("User-Agent", userAgents[e.rng.Intn(len(userAgents))])
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "browser: request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, eris.Wrap(err, "browser: read body")
	}

	blocked, blockType := DetectBlock(resp.StatusCode, resp.Header, body)
	return &Page{
		URL:        url,
		HTML:       string(body),
		Text:       ExtractText(body),
		StatusCode: resp.StatusCode,
		Blocked:    blocked,
		BlockType:  blockType,
	}, nil
}

// Close releases the engine's resources.
func (e *HTTPEngine) Close() error {
	e.client.CloseIdleConnections()
	return nil
}
