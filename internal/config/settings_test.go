package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T, values map[string]any) *viper.Viper {
	t.Helper()
	for _, env := range []string{"GITHUB_TOKEN", "ANTHROPIC_API_KEY", "SLACK_WEBHOOK_URL"} {
		t.Setenv(env, "")
	}
	v := viper.New()
	SetDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestLoad_Defaults(t *testing.T) {
	s, err := Load(newViper(t, nil))
	require.NoError(t, err)

	assert.Equal(t, "anthropics", s.Repository.Owner)
	assert.Equal(t, "claude-code", s.Repository.Repo)
	assert.Equal(t, "Claude Code", s.Repository.Project)
	assert.Equal(t, 30, s.GitHub.MaxReleases)
	assert.Equal(t, "claude-haiku-4-5", s.Oracle.Model)
	assert.Equal(t, 3, s.Oracle.MaxAttempts)
	assert.Equal(t, 120*time.Second, s.Oracle.Timeout)
	assert.Equal(t, "file", s.State.Backend)
	assert.True(t, s.Strict)
	assert.InDelta(t, 0.6, s.Eval.Threshold, 1e-9)
	assert.False(t, s.Telemetry)
}

func TestLoad_Overrides(t *testing.T) {
	s, err := Load(newViper(t, map[string]any{
		"project":              "https://github.com/cli/cli/releases",
		"github.changelog_ref": "trunk",
		"state.backend":        "SQLite",
		"run.strict":           false,
	}))
	require.NoError(t, err)

	assert.Equal(t, "cli/cli", s.Repository.FullName())
	assert.Equal(t, "trunk", s.Repository.ChangelogRef)
	assert.Equal(t, "sqlite", s.State.Backend)
	assert.False(t, s.Strict)
}

func TestLoad_OwnerRepoOverride(t *testing.T) {
	s, err := Load(newViper(t, map[string]any{
		"github.owner": "acme",
		"github.repo":  "tool",
	}))
	require.NoError(t, err)
	assert.Equal(t, "acme/tool", s.Repository.FullName())
}

func TestLoad_InvalidProject(t *testing.T) {
	_, err := Load(newViper(t, map[string]any{"project": "not a repo"}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestLoad_ConventionalEnv(t *testing.T) {
	v := newViper(t, nil)
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.test/x")

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", s.Oracle.APIKey)
	assert.Equal(t, "https://hooks.slack.test/x", s.Slack.WebhookURL)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "release-radar.yaml")
	doc := "project: anthropic-sdk-go\nstate:\n  backend: sqlite\n  path: radar.db\neval:\n  threshold: 0.75\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	v := newViper(t, nil)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "anthropic-sdk-go", s.Repository.Repo)
	assert.Equal(t, "sqlite", s.State.Backend)
	assert.Equal(t, "radar.db", s.State.Path)
	assert.InDelta(t, 0.75, s.Eval.Threshold, 1e-9)
}

func TestSettings_Validate(t *testing.T) {
	valid := func() *Settings {
		s, err := Load(newViper(t, nil))
		require.NoError(t, err)
		s.Oracle.APIKey = "sk-test"
		s.Slack.WebhookURL = "https://hooks.slack.test/x"
		return s
	}

	tests := []struct {
		name    string
		mode    Mode
		mutate  func(*Settings)
		wantErr error
	}{
		{name: "run ok", mode: ModeRun, mutate: func(*Settings) {}},
		{
			name:    "run without api key",
			mode:    ModeRun,
			mutate:  func(s *Settings) { s.Oracle.APIKey = "" },
			wantErr: ErrMissingConfig,
		},
		{
			name:    "run without webhook",
			mode:    ModeRun,
			mutate:  func(s *Settings) { s.Slack.WebhookURL = "" },
			wantErr: ErrMissingConfig,
		},
		{
			name:   "dry-run without webhook",
			mode:   ModeDryRun,
			mutate: func(s *Settings) { s.Slack.WebhookURL = "" },
		},
		{
			name:    "dry-run without api key",
			mode:    ModeDryRun,
			mutate:  func(s *Settings) { s.Oracle.APIKey = "" },
			wantErr: ErrMissingConfig,
		},
		{
			name:   "probe needs no credentials",
			mode:   ModeProbe,
			mutate: func(s *Settings) { s.Oracle.APIKey = ""; s.Slack.WebhookURL = "" },
		},
		{
			name:    "unknown backend",
			mode:    ModeRun,
			mutate:  func(s *Settings) { s.State.Backend = "redis" },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "threshold out of range",
			mode:    ModeEval,
			mutate:  func(s *Settings) { s.Eval.Threshold = 1.5 },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "eval without ground truth",
			mode:    ModeEval,
			mutate:  func(s *Settings) { s.Eval.GroundTruth = "" },
			wantErr: ErrMissingConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := s.Validate(tt.mode)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}
