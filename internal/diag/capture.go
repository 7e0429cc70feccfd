// Package diag persists raw blocked-page content for later inspection.
// Capture is best-effort: it must never fail a pipeline run.
package diag

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Capture writes blocked-page artifacts into a directory.
type Capture struct {
	dir string
}

// New creates a Capture writing into dir.
func New(dir string) *Capture {
	return &Capture{dir: dir}
}

// Write persists one blocked signal. The filename is deterministic per
// source-method and query, so repeated blocks of the same fetch overwrite
// the previous capture. Failures are logged and swallowed by Record; Write
// returns the error for tests.
func (c *Capture) Write(signal model.BlockedSignal) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return eris.Wrapf(err, "diag: create dir %s", c.dir)
	}

	path := filepath.Join(c.dir, Filename(signal.Source, signal.Query))
	if err := os.WriteFile(path, []byte(signal.RawHTML), 0o644); err != nil {
		return eris.Wrapf(err, "diag: write %s", path)
	}

	zap.L().Info("diag: blocked page captured",
		zap.String("source", string(signal.Source)),
		zap.String("path", path),
	)
	return nil
}

// Record is the pipeline-facing entry point: log-and-swallow on failure.
func (c *Capture) Record(signal model.BlockedSignal) {
	if err := c.Write(signal); err != nil {
		zap.L().Warn("diag: capture failed", zap.Error(err))
	}
}

// Filename builds the deterministic artifact name for a blocked event.
func Filename(src model.SourceType, q model.Query) string {
	return fmt.Sprintf("blocked_%s_%s_%s.html", src, Slug(q.Category), Slug(q.Location))
}

// Slug lower-cases a string and replaces non-alphanumeric runs with
// underscores.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
