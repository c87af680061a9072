package eval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/nickromney-org/release-radar/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadGroundTruth_CSV(t *testing.T) {
	path := writeFile(t, "ground_truth.csv", "version,category,text\n"+
		"2.1.49,Feature,Added the /usage command\n"+
		"2.1.49,Bugfix,\"Fixed a crash, finally\"\n"+
		"2.1.49,Unknown,Sonnet 4.5 is being removed\n")

	entries, err := LoadGroundTruth(path)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, GroundTruthEntry{Version: "2.1.49", Category: "Bugfix", Text: "Fixed a crash, finally"}, entries[1])
	assert.True(t, entries[0].NotifyWorthy())
	assert.False(t, entries[1].NotifyWorthy())
	assert.False(t, entries[2].Labelled())
}

func TestLoadGroundTruth_YAML(t *testing.T) {
	path := writeFile(t, "truth.yaml", `
- version: 2.1.45
  category: Improvement
  text: Improved startup time
- version: 2.1.45
  category: breaking
  text: Dropped Node 16
`)

	entries, err := LoadGroundTruth(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[1].NotifyWorthy())
}

func TestLoadGroundTruth_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "bad header", file: "t.csv", content: "ver,cat,txt\n1.0.0,Feature,x\n"},
		{name: "bad category", file: "t.csv", content: "version,category,text\n1.0.0,Docs,x\n"},
		{name: "missing version", file: "t.csv", content: "version,category,text\n,Feature,x\n"},
		{name: "wrong field count", file: "t.csv", content: "version,category,text\n1.0.0,Feature\n"},
		{name: "bad yaml", file: "t.yaml", content: "version: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadGroundTruth(writeFile(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadGroundTruth(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestWriteGroundTruthCSV_RoundTrip(t *testing.T) {
	entries := []GroundTruthEntry{
		{Version: "2.1.49", Category: "Feature", Text: "Added \"quoted\" things, with commas"},
		{Version: "2.1.49", Category: Unknown, Text: "Multi\nline"},
	}
	path := filepath.Join(t.TempDir(), "out", "truth.csv")

	require.NoError(t, WriteGroundTruthCSV(path, entries))
	got, err := LoadGroundTruth(path)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestDraftGroundTruth(t *testing.T) {
	releases := []version.Release{
		{
			Version: semver.MustParse("2.1.49"),
			Body: "## What's changed\n" +
				"- Added the /usage command\n" +
				"- Fixed: crash on resize\n" +
				"- [VSCode] Improved tab handling\r\n" +
				"- Removed legacy flag\n" +
				"- Sonnet 4.5 is being removed from the CLI in a future release\n" +
				"  - nested bullet is ignored\n" +
				"- BREAKING config moved\n",
		},
		{Version: semver.MustParse("2.1.48"), Body: "   "},
	}

	entries := DraftGroundTruth(releases)

	want := []GroundTruthEntry{
		{Version: "2.1.49", Category: "Feature", Text: "Added the /usage command"},
		{Version: "2.1.49", Category: "Bugfix", Text: "Fixed: crash on resize"},
		{Version: "2.1.49", Category: "Improvement", Text: "[VSCode] Improved tab handling"},
		{Version: "2.1.49", Category: "Change", Text: "Removed legacy flag"},
		{Version: "2.1.49", Category: Unknown, Text: "Sonnet 4.5 is being removed from the CLI in a future release"},
		{Version: "2.1.49", Category: "Breaking", Text: "BREAKING config moved"},
	}
	assert.Equal(t, want, entries)
}

func TestGroupByVersion(t *testing.T) {
	order, groups := GroupByVersion([]GroundTruthEntry{
		{Version: "2.1.49"}, {Version: "2.1.45"}, {Version: "2.1.49"},
	})
	assert.Equal(t, []string{"2.1.49", "2.1.45"}, order)
	assert.Len(t, groups["2.1.49"], 2)
}
