// Package config holds the watched repository definitions and the runtime
// settings loaded through viper from flags, environment and an optional
// YAML file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrMissingConfig is returned when a required credential or path is absent
	ErrMissingConfig = errors.New("missing configuration")
	// ErrInvalidConfig is returned when a configured value cannot be used
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Mode selects which settings Validate requires
type Mode string

const (
	ModeRun    Mode = "run"
	ModeDryRun Mode = "dry-run"
	ModeEval   Mode = "eval"
	ModeProbe  Mode = "probe"
)

// EnvPrefix is the prefix for environment overrides (RADAR_GITHUB_TOKEN etc.)
const EnvPrefix = "RADAR"

type GitHubSettings struct {
	Token       string
	MaxReleases int
	Timeout     time.Duration
}

type OracleSettings struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Timeout     time.Duration
	MaxAttempts int
}

type SlackSettings struct {
	WebhookURL  string
	Timeout     time.Duration
	MaxAttempts int
}

type StateSettings struct {
	Backend string
	Path    string
}

type EvalSettings struct {
	Threshold   float64
	GroundTruth string
	Report      string
	Snapshot    string
}

type LoggingSettings struct {
	Level  string
	Format string
}

// Settings is the resolved runtime configuration
type Settings struct {
	Repository RepositoryConfig
	GitHub     GitHubSettings
	Oracle     OracleSettings
	Slack      SlackSettings
	State      StateSettings
	Strict     bool
	Eval       EvalSettings
	Logging    LoggingSettings
	Telemetry  bool
}

// SetDefaults registers default values and the conventional environment variables
func SetDefaults(v *viper.Viper) {
	v.SetDefault("project", "claude-code")
	v.SetDefault("github.max_releases", 30)
	v.SetDefault("github.timeout", 30*time.Second)
	v.SetDefault("oracle.model", "claude-haiku-4-5")
	v.SetDefault("oracle.max_tokens", 4096)
	v.SetDefault("oracle.timeout", 120*time.Second)
	v.SetDefault("oracle.max_attempts", 3)
	v.SetDefault("slack.timeout", 10*time.Second)
	v.SetDefault("slack.max_attempts", 3)
	v.SetDefault("state.backend", "file")
	v.SetDefault("state.path", ".release-radar/state.json")
	v.SetDefault("run.strict", true)
	v.SetDefault("eval.threshold", 0.6)
	v.SetDefault("eval.ground_truth", "testdata/ground_truth.csv")
	v.SetDefault("eval.report", "eval-report.json")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("telemetry.enabled", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("github.token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN")
	_ = v.BindEnv("oracle.api_key", EnvPrefix+"_ORACLE_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("slack.webhook_url", EnvPrefix+"_SLACK_WEBHOOK_URL", "SLACK_WEBHOOK_URL")
}

// Load resolves settings from v. The project key accepts a predefined name,
// owner/repo or a GitHub URL; github.owner and github.repo override it.
func Load(v *viper.Viper) (*Settings, error) {
	repo, err := ParseRepositoryString(v.GetString("project"))
	if err != nil {
		return nil, err
	}
	if owner := v.GetString("github.owner"); owner != "" {
		repo.Owner = owner
	}
	if name := v.GetString("github.repo"); name != "" {
		repo.Repo = name
	}
	if path := v.GetString("github.changelog_path"); path != "" {
		repo.ChangelogPath = path
	}
	if ref := v.GetString("github.changelog_ref"); ref != "" {
		repo.ChangelogRef = ref
	}

	return &Settings{
		Repository: *repo,
		GitHub: GitHubSettings{
			Token:       v.GetString("github.token"),
			MaxReleases: v.GetInt("github.max_releases"),
			Timeout:     v.GetDuration("github.timeout"),
		},
		Oracle: OracleSettings{
			APIKey:      v.GetString("oracle.api_key"),
			Model:       v.GetString("oracle.model"),
			MaxTokens:   v.GetInt("oracle.max_tokens"),
			Timeout:     v.GetDuration("oracle.timeout"),
			MaxAttempts: v.GetInt("oracle.max_attempts"),
		},
		Slack: SlackSettings{
			WebhookURL:  v.GetString("slack.webhook_url"),
			Timeout:     v.GetDuration("slack.timeout"),
			MaxAttempts: v.GetInt("slack.max_attempts"),
		},
		State: StateSettings{
			Backend: strings.ToLower(v.GetString("state.backend")),
			Path:    v.GetString("state.path"),
		},
		Strict: v.GetBool("run.strict"),
		Eval: EvalSettings{
			Threshold:   v.GetFloat64("eval.threshold"),
			GroundTruth: v.GetString("eval.ground_truth"),
			Report:      v.GetString("eval.report"),
			Snapshot:    v.GetString("eval.snapshot"),
		},
		Logging: LoggingSettings{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Telemetry: v.GetBool("telemetry.enabled"),
	}, nil
}

// Validate checks the settings needed by mode. It never touches the network.
func (s *Settings) Validate(mode Mode) error {
	var errs []error

	// Evaluation classifies through the oracle even when reading a snapshot
	needsOracle := mode == ModeRun || mode == ModeDryRun || mode == ModeEval

	if needsOracle && s.Oracle.APIKey == "" {
		errs = append(errs, fmt.Errorf("%w: ANTHROPIC_API_KEY is not set", ErrMissingConfig))
	}
	if mode == ModeRun && s.Slack.WebhookURL == "" {
		errs = append(errs, fmt.Errorf("%w: SLACK_WEBHOOK_URL is not set", ErrMissingConfig))
	}
	if mode == ModeEval && s.Eval.GroundTruth == "" {
		errs = append(errs, fmt.Errorf("%w: eval.ground_truth is not set", ErrMissingConfig))
	}

	if mode == ModeRun || mode == ModeProbe {
		switch s.State.Backend {
		case "file", "sqlite":
		default:
			errs = append(errs, fmt.Errorf("%w: unknown state backend %q", ErrInvalidConfig, s.State.Backend))
		}
		if s.State.Path == "" {
			errs = append(errs, fmt.Errorf("%w: state.path is not set", ErrMissingConfig))
		}
	}

	if s.GitHub.MaxReleases <= 0 {
		errs = append(errs, fmt.Errorf("%w: github.max_releases must be positive, got %d", ErrInvalidConfig, s.GitHub.MaxReleases))
	}
	if s.Oracle.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("%w: oracle.max_attempts must be positive, got %d", ErrInvalidConfig, s.Oracle.MaxAttempts))
	}
	if s.Eval.Threshold <= 0 || s.Eval.Threshold > 1 {
		errs = append(errs, fmt.Errorf("%w: eval.threshold must be in (0, 1], got %v", ErrInvalidConfig, s.Eval.Threshold))
	}

	return errors.Join(errs...)
}
