package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	colour "github.com/fatih/color"
	"github.com/spf13/viper"

	"github.com/nickromney-org/release-radar/internal/config"
	"github.com/nickromney-org/release-radar/internal/eval"
	"github.com/nickromney-org/release-radar/internal/notify"
	"github.com/nickromney-org/release-radar/internal/pipeline"
	"github.com/nickromney-org/release-radar/internal/version"
)

func init() {
	colour.NoColor = true
}

// Test helpers
func testSettings() *config.Settings {
	return &config.Settings{Repository: config.ConfigClaudeCode}
}

func testSummary() *pipeline.Summary {
	return &pipeline.Summary{
		RunID:          "run-1",
		PreviousMarker: "2.1.45",
		Marker:         "2.1.47",
		Pending:        2,
		Results: []pipeline.ReleaseResult{
			{
				Version:     "2.1.47",
				URL:         "https://github.com/anthropics/claude-code/releases/tag/v2.1.47",
				PublishedAt: time.Now().AddDate(0, 0, -2),
				Source:      version.SourceReleaseBody,
				Outcome:     pipeline.OutcomeNotified,
				Items:       68,
				NotifyItems: 40,
			},
			{
				Version: "2.1.49",
				Outcome: pipeline.OutcomeFailed,
				Err:     fmt.Errorf("%w: webhook returned 500", notify.ErrDelivery),
			},
		},
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: 0},
		{name: "missing config", err: fmt.Errorf("%w: ANTHROPIC_API_KEY is not set", config.ErrMissingConfig), want: 2},
		{name: "invalid config", err: fmt.Errorf("wrapped: %w", config.ErrInvalidConfig), want: 2},
		{name: "joined config error", err: errors.Join(errors.New("other"), config.ErrMissingConfig), want: 2},
		{name: "delivery failure", err: fmt.Errorf("run failed: %w", notify.ErrDelivery), want: 1},
		{name: "gate failure", err: fmt.Errorf("%w: 1 missed", eval.ErrGateFailed), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDetectGitHubToken(t *testing.T) {
	tests := []struct {
		name     string
		provided string
		want     string
	}{
		{
			name:     "provided token",
			provided: "ghp_test123",
			want:     "ghp_test123",
		},
		{
			name:     "empty token",
			provided: "",
			want:     "", // Falls back to gh CLI, which likely returns empty in tests
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectGitHubToken(tt.provided)
			if tt.provided != "" && got != tt.want {
				t.Errorf("detectGitHubToken(%v) = %v, want %v", tt.provided, got, tt.want)
			}
		})
	}
}

func TestSetupLogging(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{name: "info console", level: "info", format: "console"},
		{name: "debug json", level: "debug", format: "json"},
		{name: "upper case level", level: "WARN", format: "console"},
		{name: "bad level", level: "verbose", format: "console", wantErr: true},
		{name: "bad format", level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Set("logging.level", tt.level)
			viper.Set("logging.format", tt.format)
			defer viper.Reset()

			var buf bytes.Buffer
			err := setupLogging(&buf)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := outputJSON(&buf, testSummary()); err != nil {
		t.Fatalf("outputJSON() error = %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	for _, key := range []string{"run_id", "dry_run", "previous_marker", "marker", "pending", "releases"} {
		if _, ok := got[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}

	releases, ok := got["releases"].([]interface{})
	if !ok || len(releases) != 2 {
		t.Fatalf("releases = %v, want 2 entries", got["releases"])
	}
	failed := releases[1].(map[string]interface{})
	if failed["outcome"] != "failed" {
		t.Errorf("outcome = %v, want failed", failed["outcome"])
	}
	if !strings.Contains(failed["error"].(string), "webhook returned 500") {
		t.Errorf("error = %v, want delivery error", failed["error"])
	}
}

func TestOutputTerminal(t *testing.T) {
	tests := []struct {
		name         string
		summary      *pipeline.Summary
		wantContains []string
	}{
		{
			name:    "processed releases",
			summary: testSummary(),
			wantContains: []string{
				"2.1.47",
				"Notified",
				"(68 items, 40 to notify)",
				"2 days ago",
				"Failed",
				"webhook returned 500",
				"Marker: 2.1.45 → 2.1.47",
			},
		},
		{
			name:         "nothing new",
			summary:      &pipeline.Summary{PreviousMarker: "2.1.49", Marker: "2.1.49"},
			wantContains: []string{"No new releases of Claude Code", "last processed: 2.1.49"},
		},
		{
			name:         "override not found",
			summary:      &pipeline.Summary{Override: "9.9.9"},
			wantContains: []string{"Release 9.9.9 not found in anthropics/claude-code"},
		},
		{
			name: "dry run",
			summary: &pipeline.Summary{
				DryRun:  true,
				Marker:  "2.1.45",
				Results: []pipeline.ReleaseResult{{Version: "2.1.47", Outcome: pipeline.OutcomeBugfixOnly, Items: 1}},
			},
			wantContains: []string{"Dry run", "Bugfix only"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			outputTerminal(&buf, testSettings(), tt.summary)
			out := buf.String()
			for _, want := range tt.wantContains {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q\n%s", want, out)
				}
			}
		})
	}
}

func TestOutputCI(t *testing.T) {
	summaryFile := filepath.Join(t.TempDir(), "summary.md")
	t.Setenv("GITHUB_STEP_SUMMARY", summaryFile)

	var buf bytes.Buffer
	if err := outputCI(&buf, testSettings(), testSummary()); err != nil {
		t.Fatalf("outputCI() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"::group::", "::endgroup::", "::notice title=Release 2.1.47", "::error title=Release 2.1.49 failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}

	data, err := os.ReadFile(summaryFile)
	if err != nil {
		t.Fatalf("step summary not written: %v", err)
	}
	md := string(data)
	for _, want := range []string{"## 📡 Release Radar: Claude Code", "| Version | Outcome |", "[2.1.47](https://github.com/anthropics/claude-code/releases/tag/v2.1.47)"} {
		if !strings.Contains(md, want) {
			t.Errorf("summary missing %q\n%s", want, md)
		}
	}
}

func TestOutcomeText(t *testing.T) {
	tests := []struct {
		outcome pipeline.Outcome
		want    string
	}{
		{pipeline.OutcomeNotified, "Notified"},
		{pipeline.OutcomeBugfixOnly, "Bugfix only"},
		{pipeline.OutcomeEmpty, "No change notes"},
		{pipeline.OutcomeFailed, "Failed"},
		{pipeline.OutcomeSkipped, "Skipped"},
		{pipeline.Outcome("other"), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			if got := getOutcomeText(tt.outcome); got != tt.want {
				t.Errorf("getOutcomeText(%v) = %v, want %v", tt.outcome, got, tt.want)
			}
			if getOutcomeIcon(tt.outcome) == "" {
				t.Error("empty icon")
			}
		})
	}
}

func TestSelectReleases(t *testing.T) {
	mk := func(v string) version.Release {
		return version.Release{Version: semver.MustParse(v)}
	}
	releases := []version.Release{mk("2.1.49"), mk("2.1.47"), mk("2.1.45"), mk("2.1.44")}

	tests := []struct {
		name     string
		versions []string
		count    int
		want     []string
	}{
		{name: "latest two", count: 2, want: []string{"2.1.47", "2.1.49"}},
		{name: "count above total", count: 10, want: []string{"2.1.44", "2.1.45", "2.1.47", "2.1.49"}},
		{name: "listed versions", versions: []string{"2.1.49", "v2.1.44", "9.9.9"}, want: []string{"2.1.44", "2.1.49"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := append([]version.Release(nil), releases...)
			got := selectReleases(input, tt.versions, tt.count)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d releases, want %d", len(got), len(tt.want))
			}
			for i, r := range got {
				if r.String() != tt.want[i] {
					t.Errorf("release[%d] = %s, want %s", i, r.String(), tt.want[i])
				}
			}
		})
	}
}

func TestPrintEvalSummary(t *testing.T) {
	report := &eval.Report{
		Threshold: 0.6,
		Total:     eval.Counts{TruePositives: 9, FalseNegatives: 1, FalsePositives: 1, Matched: 9, CategoryAgree: 8},
		Confusion: map[string]map[string]int{
			"Feature": {"Feature": 8, "Improvement": 1, eval.NoMatch: 1},
		},
		Versions: []eval.VersionReport{
			{
				Version: "2.1.47",
				Counts:  eval.Counts{TruePositives: 9, FalseNegatives: 1, FalsePositives: 1},
				Entries: []eval.EntryResult{
					{Category: "Feature", Text: "Added plugin marketplace", Outcome: eval.FalseNegative},
				},
			},
		},
	}

	var buf bytes.Buffer
	printEvalSummary(&buf, report)
	out := buf.String()

	for _, want := range []string{"2.1.47", "90.0%", "FN 2.1.47 [Feature] Added plugin marketplace", "Confusion", "1 notify-worthy item(s) missed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(wd) }()

	if got := findConfigFile(); got != "" {
		t.Errorf("findConfigFile() = %q, want empty", got)
	}

	home := filepath.Join(dir, ".config", "release-radar", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(home), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(home, []byte("project: cli/cli\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := findConfigFile(); got != home {
		t.Errorf("findConfigFile() = %q, want %q", got, home)
	}

	if err := os.WriteFile("release-radar.yaml", []byte("project: cli/cli\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := findConfigFile(); got != "release-radar.yaml" {
		t.Errorf("findConfigFile() = %q, want release-radar.yaml", got)
	}
}
