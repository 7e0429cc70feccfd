package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

var sampleRecords = []model.BusinessRecord{
	{
		Name:     "acme co",
		Location: "abbottabad, pakistan",
		Emails:   []string{"a@x.com"},
		Phones:   []string{"5551234"},
		TeamMembers: []model.Person{
			{Name: "John Doe", Title: "CEO", Email: "john@x.com"},
		},
		SourceCount: 2,
	},
	{
		Name:        "beta llc",
		Phones:      []string{"5559999"},
		SourceCount: 1,
	},
}

func TestExport_WritesCSVAndJSON(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "business_data", false)

	require.NoError(t, w.Export(sampleRecords))

	csvData, err := os.ReadFile(filepath.Join(dir, "business_data.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csvData)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,Location,Emails,Phones,Team Members,Source Count", lines[0])
	assert.Contains(t, lines[1], "acme co")
	assert.Contains(t, lines[1], "John Doe (CEO) <john@x.com>")

	jsonData, err := os.ReadFile(filepath.Join(dir, "business_data.json"))
	require.NoError(t, err)

	var decoded []model.BusinessRecord
	require.NoError(t, json.Unmarshal(jsonData, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "acme co", decoded[0].Name)
	require.Len(t, decoded[0].TeamMembers, 1)
	assert.Equal(t, "John Doe", decoded[0].TeamMembers[0].Name)
}

func TestExport_Deterministic(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "out", false)

	require.NoError(t, w.Export(sampleRecords))
	first, err := os.ReadFile(filepath.Join(dir, "out.csv"))
	require.NoError(t, err)
	firstJSON, err := os.ReadFile(filepath.Join(dir, "out.json"))
	require.NoError(t, err)

	require.NoError(t, w.Export(sampleRecords))
	second, err := os.ReadFile(filepath.Join(dir, "out.csv"))
	require.NoError(t, err)
	secondJSON, err := os.ReadFile(filepath.Join(dir, "out.json"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstJSON, secondJSON)
}

func TestExport_EmptySetStillValid(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "empty", false)

	require.NoError(t, w.Export(nil))

	csvData, err := os.ReadFile(filepath.Join(dir, "empty.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Name,Location,Emails,Phones,Team Members,Source Count\n", string(csvData))

	jsonData, err := os.ReadFile(filepath.Join(dir, "empty.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(jsonData))
}

func TestExport_XLSX(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "out", true)

	require.NoError(t, w.Export(sampleRecords))

	info, err := os.Stat(filepath.Join(dir, "out.xlsx"))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	assert.Len(t, w.Paths(), 3)
}

func TestExport_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "out", false)
	require.NoError(t, w.Export(sampleRecords))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}

func TestExport_FailureLeavesNoPartialOutput(t *testing.T) {
	// A file standing where the export dir should be makes MkdirAll fail.
	parent := t.TempDir()
	blocked := filepath.Join(parent, "outdir")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	w := NewWriter(filepath.Join(blocked, "nested"), "out", false)
	assert.Error(t, w.Export(sampleRecords))
}

func TestExport_CommitFailureRemovesCommittedFormats(t *testing.T) {
	dir := t.TempDir()

	// A directory squatting on the JSON path makes its rename fail
	// after the CSV has already been renamed into place.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "out.json"), 0o755))

	w := NewWriter(dir, "out", false)
	require.Error(t, w.Export(sampleRecords))

	_, err := os.Stat(filepath.Join(dir, "out.csv"))
	assert.True(t, os.IsNotExist(err), "csv must not survive a failed commit")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}
