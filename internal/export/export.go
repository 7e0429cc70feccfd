// Package export writes the cleaned record set to durable structured files.
// A run's export is atomic: every format lands, or none does.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// csvColumns defines the ordered tabular output columns.
var csvColumns = []string{
	"Name",
	"Location",
	"Emails",
	"Phones",
	"Team Members",
	"Source Count",
}

// Writer exports records under dir as <baseName>.csv/.json (and .xlsx when
// enabled).
type Writer struct {
	dir      string
	baseName string
	xlsx     bool
}

// NewWriter creates an export Writer.
func NewWriter(dir, baseName string, withXLSX bool) *Writer {
	if dir == "" {
		dir = "."
	}
	if baseName == "" {
		baseName = "business_data"
	}
	return &Writer{dir: dir, baseName: baseName, xlsx: withXLSX}
}

// Paths returns the output file paths in a fixed order.
func (w *Writer) Paths() []string {
	paths := []string{
		filepath.Join(w.dir, w.baseName+".csv"),
		filepath.Join(w.dir, w.baseName+".json"),
	}
	if w.xlsx {
		paths = append(paths, filepath.Join(w.dir, w.baseName+".xlsx"))
	}
	return paths
}

// Export writes all formats atomically: each format is rendered to a temp
// file in the target directory, and temps are renamed into place only after
// every renderer succeeded. Re-running with the same record set overwrites
// and produces byte-identical files. An empty record set still produces
// valid header-only/empty-array files.
func (w *Writer) Export(records []model.BusinessRecord) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir %s", w.dir)
	}

	type render struct {
		final string
		write func(path string) error
	}
	renders := []render{
		{filepath.Join(w.dir, w.baseName+".csv"), func(p string) error { return writeCSV(p, records) }},
		{filepath.Join(w.dir, w.baseName+".json"), func(p string) error { return writeJSON(p, records) }},
	}
	if w.xlsx {
		renders = append(renders, render{
			filepath.Join(w.dir, w.baseName+".xlsx"),
			func(p string) error { return writeXLSX(p, records) },
		})
	}

	temps := make([]string, len(renders))
	cleanup := func() {
		for _, t := range temps {
			if t != "" {
				os.Remove(t)
			}
		}
	}

	var g errgroup.Group
	for i, r := range renders {
		temps[i] = r.final + ".tmp"
		tmp, write := temps[i], r.write
		g.Go(func() error { return write(tmp) })
	}
	if err := g.Wait(); err != nil {
		cleanup()
		return eris.Wrap(err, "export: render")
	}

	// Commit: rename every temp into place. A rename failure removes
	// the formats that already landed so a failed run never leaves a
	// mixed set of new and stale files.
	var committed []string
	for i, r := range renders {
		if err := os.Rename(temps[i], r.final); err != nil {
			for _, f := range committed {
				os.Remove(f)
			}
			cleanup()
			return eris.Wrapf(err, "export: commit %s", r.final)
		}
		temps[i] = ""
		committed = append(committed, r.final)
	}

	zap.L().Info("export: wrote record set",
		zap.Int("records", len(records)),
		zap.Strings("files", w.Paths()),
	)
	return nil
}

func writeCSV(path string, records []model.BusinessRecord) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	if err := cw.Write(csvColumns); err != nil {
		return eris.Wrap(err, "csv header")
	}
	for _, r := range records {
		row := []string{
			r.Name,
			r.Location,
			strings.Join(r.Emails, "; "),
			strings.Join(r.Phones, "; "),
			flattenTeam(r.TeamMembers),
			fmt.Sprintf("%d", r.SourceCount),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "csv flush")
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func writeJSON(path string, records []model.BusinessRecord) error {
	if records == nil {
		records = []model.BusinessRecord{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return eris.Wrap(err, "json encode")
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func writeXLSX(path string, records []model.BusinessRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Businesses")
	if err != nil {
		return eris.Wrap(err, "xlsx sheet")
	}

	header := sheet.AddRow()
	for _, col := range csvColumns {
		header.AddCell().SetString(col)
	}
	for _, r := range records {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Name)
		row.AddCell().SetString(r.Location)
		row.AddCell().SetString(strings.Join(r.Emails, "; "))
		row.AddCell().SetString(strings.Join(r.Phones, "; "))
		row.AddCell().SetString(flattenTeam(r.TeamMembers))
		row.AddCell().SetInt(r.SourceCount)
	}
	return f.Save(path)
}

// flattenTeam summarizes team members for tabular output.
func flattenTeam(people []model.Person) string {
	parts := make([]string, 0, len(people))
	for _, p := range people {
		s := p.Name
		if p.Title != "" {
			s += " (" + p.Title + ")"
		}
		if p.Email != "" {
			s += " <" + p.Email + ">"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}
